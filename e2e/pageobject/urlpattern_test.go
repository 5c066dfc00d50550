package pageobject_test

import (
	"regexp"
	"testing"

	"github.com/gti/pagekit/e2e/pageobject"
	"github.com/stretchr/testify/assert"
)

func TestURLPatterns(t *testing.T) {
	tests := []struct {
		name    string
		pattern pageobject.URLPattern
		url     string
		want    bool
	}{
		{"exact match", pageobject.ExactURL("http://localhost:3000/login"), "http://localhost:3000/login", true},
		{"exact rejects query", pageobject.ExactURL("http://localhost:3000/login"), "http://localhost:3000/login?x=1", false},
		{"regexp", pageobject.RegexpURL(regexp.MustCompile(`/login(\?.*)?$`)), "http://localhost:3000/login?x=1", true},
		{"regexp miss", pageobject.RegexpURL(regexp.MustCompile(`/signup$`)), "http://localhost:3000/login", false},
		{"glob any depth", pageobject.MustGlobURL("**/dashboard"), "http://localhost:3000/app/dashboard", true},
		{"glob single segment", pageobject.MustGlobURL("http://localhost:*/login"), "http://localhost:3000/login", true},
		{"glob star stops at slash", pageobject.MustGlobURL("http://localhost:*/login"), "http://localhost:3000/app/login", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pattern.Match(tt.url))
		})
	}
}

func TestURLPattern_String(t *testing.T) {
	assert.Equal(t, "https://ex.com", pageobject.ExactURL("https://ex.com").String())
	assert.Equal(t, "/dash/", pageobject.RegexpURL(regexp.MustCompile("dash")).String())
	assert.Equal(t, "**/x", pageobject.MustGlobURL("**/x").String())
}
