package pageobject

import (
	"os"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds WaitForElement and WaitForURL.
	DefaultTimeout = 5000 * time.Millisecond

	// DefaultExpectTimeout bounds the Expect* polling assertions.
	DefaultExpectTimeout = 5000 * time.Millisecond
)

// Options holds the per-page defaults. The zero value of each field selects
// the package default.
type Options struct {
	// ScreenshotDir is where TakeScreenshot writes images. Defaults to
	// os.TempDir().
	ScreenshotDir string

	// Timeout is the default for WaitForElement and WaitForURL.
	Timeout time.Duration

	// ExpectTimeout is the default polling window of Expect* calls.
	ExpectTimeout time.Duration

	// FullPage is the default for TakeScreenshot. nil means true.
	FullPage *bool

	// Logger receives one debug entry per operation. Defaults to a no-op.
	Logger *zap.Logger
}

// Option customizes a Page at construction.
type Option func(*Options)

// WithScreenshotDir sets the directory screenshots are written to.
func WithScreenshotDir(dir string) Option {
	return func(o *Options) { o.ScreenshotDir = dir }
}

// WithDefaultTimeout sets the wait timeout used when a call passes none.
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithExpectTimeout sets the polling window of Expect* calls.
func WithExpectTimeout(d time.Duration) Option {
	return func(o *Options) { o.ExpectTimeout = d }
}

// WithFullPageScreenshots sets the default capture mode of TakeScreenshot.
func WithFullPageScreenshots(full bool) Option {
	return func(o *Options) { o.FullPage = &full }
}

// WithLogger routes operation logs to l.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithOptions copies every non-zero field of src.
func WithOptions(src Options) Option {
	return func(o *Options) {
		if src.ScreenshotDir != "" {
			o.ScreenshotDir = src.ScreenshotDir
		}
		if src.Timeout > 0 {
			o.Timeout = src.Timeout
		}
		if src.ExpectTimeout > 0 {
			o.ExpectTimeout = src.ExpectTimeout
		}
		if src.FullPage != nil {
			o.FullPage = src.FullPage
		}
		if src.Logger != nil {
			o.Logger = src.Logger
		}
	}
}

func (o *Options) applyDefaults() {
	if o.ScreenshotDir == "" {
		o.ScreenshotDir = os.TempDir()
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.ExpectTimeout <= 0 {
		o.ExpectTimeout = DefaultExpectTimeout
	}
	if o.FullPage == nil {
		full := true
		o.FullPage = &full
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// WaitOption customizes a single wait or expect call.
type WaitOption func(*waitConfig)

type waitConfig struct {
	timeout time.Duration
}

// WithTimeout overrides the timeout of one call.
func WithTimeout(d time.Duration) WaitOption {
	return func(c *waitConfig) { c.timeout = d }
}

func resolveWait(def time.Duration, opts []WaitOption) waitConfig {
	c := waitConfig{timeout: def}
	for _, opt := range opts {
		opt(&c)
	}
	if c.timeout <= 0 {
		c.timeout = def
	}
	return c
}

// ScreenshotOption customizes a single TakeScreenshot call.
type ScreenshotOption func(*screenshotConfig)

type screenshotConfig struct {
	fullPage bool
}

// FullPage selects whole-document capture (true) or viewport-only (false).
func FullPage(full bool) ScreenshotOption {
	return func(c *screenshotConfig) { c.fullPage = full }
}
