// Package pageobject provides the base for browser test page objects.
//
// A page object wraps one screen of the application under test behind a
// typed helper. Concrete page objects embed *Page and add selectors and
// composite actions:
//
//	type LoginPage struct {
//	    *pageobject.Page
//	}
//
//	func NewLoginPage(h pageobject.Handle, baseURL string) *LoginPage {
//	    return &LoginPage{Page: pageobject.New(h, baseURL)}
//	}
//
// Page never owns the browser. It forwards every call to the Handle it was
// constructed with, and the test fixture that opened the Handle closes it.
package pageobject

import (
	"context"
	"time"
)

// LoadState is a document lifecycle milestone a Handle can wait for.
type LoadState string

const (
	// LoadStateLoad waits for the window load event.
	LoadStateLoad LoadState = "load"

	// LoadStateDOMContentLoaded waits until the document has been parsed.
	LoadStateDOMContentLoaded LoadState = "domcontentloaded"

	// LoadStateNetworkIdle waits for the load event and then for a period
	// with no in-flight network requests.
	LoadStateNetworkIdle LoadState = "networkidle"
)

// Handle is one live browser tab. Implementations are not required to be
// safe for concurrent use; a tab is driven by one goroutine at a time.
type Handle interface {
	// Goto loads url in the tab.
	Goto(ctx context.Context, url string) error

	// WaitForLoadState blocks until the tab reaches state.
	WaitForLoadState(ctx context.Context, state LoadState) error

	// Title returns the current document title.
	Title(ctx context.Context) (string, error)

	// URL returns the current document URL.
	URL(ctx context.Context) (string, error)

	// Screenshot captures the tab as PNG and writes it to path.
	Screenshot(ctx context.Context, path string, fullPage bool) error

	// WaitForSelector blocks until an element matching selector is attached
	// to the DOM. It returns an error wrapping ErrTimeout after timeout.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error

	// WaitForURL blocks until the current URL matches pattern. It returns an
	// error wrapping ErrTimeout after timeout.
	WaitForURL(ctx context.Context, pattern URLPattern, timeout time.Duration) error

	// Locator returns a lazy reference to the elements matching selector.
	// Resolution happens on each Locator call.
	Locator(selector string) Locator
}

// Locator acts on the first element matching a selector at call time.
type Locator interface {
	// Selector returns the selector this locator was created with.
	Selector() string

	// ScrollIntoView scrolls the element into the viewport if needed.
	ScrollIntoView(ctx context.Context) error

	// IsVisible reports whether the element exists and is rendered. An
	// absent element is not visible and not an error.
	IsVisible(ctx context.Context) (bool, error)

	// TextContent returns the DOM textContent, or nil when it is null.
	TextContent(ctx context.Context) (*string, error)

	// Click performs a left click once the element is actionable.
	Click(ctx context.Context) error

	// Fill replaces the value of an input, textarea or contenteditable.
	Fill(ctx context.Context, value string) error

	// Check ticks a checkbox or radio; no-op when already checked.
	Check(ctx context.Context) error

	// Uncheck clears a checkbox; no-op when already clear.
	Uncheck(ctx context.Context) error

	// IsChecked reports the checked state of a checkbox or radio.
	IsChecked(ctx context.Context) (bool, error)

	// Attribute returns the named attribute, or nil when it is absent.
	Attribute(ctx context.Context, name string) (*string, error)
}
