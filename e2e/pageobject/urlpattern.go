package pageobject

import (
	"fmt"
	"regexp"

	"github.com/gobwas/glob"
)

// URLPattern decides whether a URL is the one a wait is looking for.
type URLPattern interface {
	Match(url string) bool
	String() string
}

type exactURL string

// ExactURL matches only the literal url.
func ExactURL(url string) URLPattern {
	return exactURL(url)
}

func (u exactURL) Match(url string) bool { return string(u) == url }
func (u exactURL) String() string        { return string(u) }

type regexpURL struct {
	re *regexp.Regexp
}

// RegexpURL matches any URL the expression finds a match in.
func RegexpURL(re *regexp.Regexp) URLPattern {
	return regexpURL{re: re}
}

func (u regexpURL) Match(url string) bool { return u.re.MatchString(url) }
func (u regexpURL) String() string        { return "/" + u.re.String() + "/" }

type globURL struct {
	pattern string
	g       glob.Glob
}

// GlobURL matches URLs against a glob where '*' stays within one path
// segment and '**' crosses segments, e.g. "**/dashboard" or
// "http://localhost:*/login*".
func GlobURL(pattern string) (URLPattern, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("invalid url glob %q: %w", pattern, err)
	}
	return globURL{pattern: pattern, g: g}, nil
}

// MustGlobURL is like GlobURL but panics on an invalid pattern.
func MustGlobURL(pattern string) URLPattern {
	p, err := GlobURL(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

func (u globURL) Match(url string) bool { return u.g.Match(url) }
func (u globURL) String() string        { return u.pattern }
