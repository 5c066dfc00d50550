package helpers

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gti/pagekit/e2e/pageobject"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// captureTimeout bounds the failure screenshot so a hung page cannot stall
// test cleanup.
const captureTimeout = 10 * time.Second

// Screenshotter is satisfied by *pageobject.Page and every page object that
// embeds it.
type Screenshotter interface {
	TakeScreenshot(ctx context.Context, name string, opts ...pageobject.ScreenshotOption) (string, error)
}

// CaptureOnFailure saves a screenshot named failure_<test name> when t has
// failed. It is a no-op for passing tests.
//
//	t.Cleanup(func() { helpers.CaptureOnFailure(t, login) })
func CaptureOnFailure(t testing.TB, page Screenshotter) {
	t.Helper()
	if !t.Failed() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), captureTimeout)
	defer cancel()

	path, err := page.TakeScreenshot(ctx, FailureScreenshotName(t.Name()))
	if err != nil {
		t.Logf("failed to capture failure screenshot: %v", err)
		return
	}
	t.Logf("failure screenshot: %s", path)
}

// FailureScreenshotName turns a test name into a file-safe screenshot name.
//
//	FailureScreenshotName("TestLogin/invalid email") // "failure_TestLogin_invalid_email"
func FailureScreenshotName(testName string) string {
	name := unsafeNameChars.ReplaceAllString(testName, "_")
	return "failure_" + strings.Trim(name, "_")
}
