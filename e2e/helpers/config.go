// Package helpers provides narrowly-scoped utilities for E2E testing.
package helpers

import (
	"os"
	"strconv"
	"time"

	"github.com/gti/pagekit/e2e/pageobject"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds browser and page object settings for an E2E run.
//
// LoadConfig reads it from the environment (and a .env file if present):
//   - E2E_BASE_URL: application under test (default http://localhost:3000)
//   - E2E_SCREENSHOT_DIR: screenshot directory (default: OS temp dir)
//   - E2E_TIMEOUT: wait timeout, Go duration (default 5s)
//   - E2E_EXPECT_TIMEOUT: assertion polling window (default 5s)
//   - E2E_NAVIGATION_TIMEOUT: page load timeout (default 30s)
//   - E2E_HEADLESS: run without a window (default true)
//   - E2E_SLOW_MOTION: delay between browser actions (default 0)
//   - E2E_SCREENSHOT_MAX_WIDTH: downscale wider screenshots, 0 disables
//   - E2E_NO_SANDBOX: pass --no-sandbox, needed in most containers
type Config struct {
	BaseURL       string
	ScreenshotDir string

	Timeout           time.Duration
	ExpectTimeout     time.Duration
	NavigationTimeout time.Duration

	Headless   bool
	NoSandbox  bool
	SlowMotion time.Duration

	ViewportWidth  int
	ViewportHeight int
	Locale         string

	ScreenshotMaxWidth int

	Logger *zap.Logger
}

// DefaultConfig returns the settings used when no environment is set.
func DefaultConfig() Config {
	return Config{
		BaseURL:            "http://localhost:3000",
		ScreenshotDir:      os.TempDir(),
		Timeout:            pageobject.DefaultTimeout,
		ExpectTimeout:      pageobject.DefaultExpectTimeout,
		NavigationTimeout:  30 * time.Second,
		Headless:           true,
		ViewportWidth:      1280,
		ViewportHeight:     720,
		Locale:             "en-US",
		ScreenshotMaxWidth: 0,
		Logger:             zap.NewNop(),
	}
}

// LoadConfig overlays environment variables on DefaultConfig.
func LoadConfig() Config {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	def := DefaultConfig()
	return Config{
		BaseURL:            getEnv("E2E_BASE_URL", def.BaseURL),
		ScreenshotDir:      getEnv("E2E_SCREENSHOT_DIR", def.ScreenshotDir),
		Timeout:            getEnvDuration("E2E_TIMEOUT", def.Timeout),
		ExpectTimeout:      getEnvDuration("E2E_EXPECT_TIMEOUT", def.ExpectTimeout),
		NavigationTimeout:  getEnvDuration("E2E_NAVIGATION_TIMEOUT", def.NavigationTimeout),
		Headless:           getEnvBool("E2E_HEADLESS", def.Headless),
		NoSandbox:          getEnvBool("E2E_NO_SANDBOX", def.NoSandbox),
		SlowMotion:         getEnvDuration("E2E_SLOW_MOTION", def.SlowMotion),
		ViewportWidth:      def.ViewportWidth,
		ViewportHeight:     def.ViewportHeight,
		Locale:             def.Locale,
		ScreenshotMaxWidth: getEnvInt("E2E_SCREENSHOT_MAX_WIDTH", def.ScreenshotMaxWidth),
		Logger:             def.Logger,
	}
}

// PageOptions converts the page-level settings for pageobject.New.
func (c Config) PageOptions() []pageobject.Option {
	return []pageobject.Option{
		pageobject.WithScreenshotDir(c.ScreenshotDir),
		pageobject.WithDefaultTimeout(c.Timeout),
		pageobject.WithExpectTimeout(c.ExpectTimeout),
		pageobject.WithLogger(c.logger()),
	}
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	parsed, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	parsed, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	parsed, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return parsed
}
