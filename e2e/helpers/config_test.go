package helpers

import (
	"testing"
	"time"

	"github.com/gti/pagekit/e2e/pageobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:3000", cfg.BaseURL)
	assert.Equal(t, pageobject.DefaultTimeout, cfg.Timeout)
	assert.Equal(t, pageobject.DefaultExpectTimeout, cfg.ExpectTimeout)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 1280, cfg.ViewportWidth)
	assert.Equal(t, 720, cfg.ViewportHeight)
	assert.Equal(t, "en-US", cfg.Locale)
	assert.NotNil(t, cfg.Logger)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("E2E_BASE_URL", "http://127.0.0.1:9999")
	t.Setenv("E2E_SCREENSHOT_DIR", "/var/shots")
	t.Setenv("E2E_TIMEOUT", "2s")
	t.Setenv("E2E_EXPECT_TIMEOUT", "750ms")
	t.Setenv("E2E_HEADLESS", "false")
	t.Setenv("E2E_NO_SANDBOX", "true")
	t.Setenv("E2E_SLOW_MOTION", "100ms")
	t.Setenv("E2E_SCREENSHOT_MAX_WIDTH", "640")

	cfg := LoadConfig()

	assert.Equal(t, "http://127.0.0.1:9999", cfg.BaseURL)
	assert.Equal(t, "/var/shots", cfg.ScreenshotDir)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, 750*time.Millisecond, cfg.ExpectTimeout)
	assert.False(t, cfg.Headless)
	assert.True(t, cfg.NoSandbox)
	assert.Equal(t, 100*time.Millisecond, cfg.SlowMotion)
	assert.Equal(t, 640, cfg.ScreenshotMaxWidth)
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("E2E_TIMEOUT", "soon")
	t.Setenv("E2E_HEADLESS", "maybe")
	t.Setenv("E2E_SCREENSHOT_MAX_WIDTH", "wide")

	cfg := LoadConfig()
	def := DefaultConfig()

	assert.Equal(t, def.Timeout, cfg.Timeout)
	assert.Equal(t, def.Headless, cfg.Headless)
	assert.Equal(t, 0, cfg.ScreenshotMaxWidth)
}

func TestConfig_PageOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScreenshotDir = "/shots"
	cfg.Timeout = time.Second
	cfg.ExpectTimeout = 3 * time.Second

	opts := pageobject.New(nil, cfg.BaseURL, cfg.PageOptions()...).Options()

	require.NotNil(t, opts.FullPage)
	assert.Equal(t, "/shots", opts.ScreenshotDir)
	assert.Equal(t, time.Second, opts.Timeout)
	assert.Equal(t, 3*time.Second, opts.ExpectTimeout)
	assert.True(t, *opts.FullPage)
}
