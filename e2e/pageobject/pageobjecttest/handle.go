// Package pageobjecttest provides an in-memory pageobject.Handle for unit
// testing page objects without a browser.
//
// The fake keeps a table of selectors to element states. Tests mutate the
// table, possibly from another goroutine while a wait is pending, and
// inspect the recorded calls afterwards:
//
//	h := pageobjecttest.NewHandle()
//	h.SetElement("#greeting", pageobjecttest.Element{Visible: true, Text: pageobjecttest.Text("Hello")})
//	page := pageobject.New(h, "https://ex.com")
//	text, _ := page.Text(ctx, "#greeting")
package pageobjecttest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gti/pagekit/e2e/pageobject"
	"github.com/gti/pagekit/internal/poll"
)

// pollInterval is short so tests with 100ms timeouts stay fast.
const pollInterval = 5 * time.Millisecond

// Element is the state of one selector in the fake DOM. A selector with no
// entry matches nothing.
type Element struct {
	// Text is the textContent; nil models a null textContent.
	Text *string

	Visible  bool
	Disabled bool
	Checked  bool

	// Value is what the last Fill wrote.
	Value string

	Attrs map[string]string
}

// Text returns a pointer to s for Element.Text.
func Text(s string) *string {
	return &s
}

// ScreenshotCall records one Screenshot invocation.
type ScreenshotCall struct {
	Path     string
	FullPage bool
}

// Handle is a goroutine-safe fake tab.
type Handle struct {
	mu sync.Mutex

	url      string
	title    string
	elements map[string]*Element
	onClick  map[string]func(h *Handle)

	calls       []string
	screenshots []ScreenshotCall

	// GotoErr, LoadStateErr and ScreenshotErr, when set, are returned by the
	// matching operation.
	GotoErr       error
	LoadStateErr  error
	ScreenshotErr error

	// WriteScreenshots makes Screenshot write a placeholder file at the
	// requested path so filesystem failures surface like a real capture.
	WriteScreenshots bool
}

var _ pageobject.Handle = (*Handle)(nil)

// NewHandle returns an empty fake on about:blank.
func NewHandle() *Handle {
	return &Handle{
		url:      "about:blank",
		elements: make(map[string]*Element),
		onClick:  make(map[string]func(h *Handle)),
	}
}

// SetURL replaces the current URL.
func (h *Handle) SetURL(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.url = url
}

// SetTitle replaces the document title.
func (h *Handle) SetTitle(title string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.title = title
}

// SetElement makes selector match an element in state el.
func (h *Handle) SetElement(selector string, el Element) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.elements[selector] = &el
}

// RemoveElement detaches selector's element.
func (h *Handle) RemoveElement(selector string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.elements, selector)
}

// Element returns a copy of the state of selector.
func (h *Handle) Element(selector string) (Element, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	el, ok := h.elements[selector]
	if !ok {
		return Element{}, false
	}
	return *el, true
}

// OnClick runs fn, with the handle unlocked, after a successful click on
// selector. Use it to model navigation or DOM updates.
func (h *Handle) OnClick(selector string, fn func(h *Handle)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onClick[selector] = fn
}

// Calls returns the operations performed so far, in order, e.g.
// "goto https://ex.com/login" or "wait networkidle".
func (h *Handle) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

// Screenshots returns every Screenshot call so far.
func (h *Handle) Screenshots() []ScreenshotCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ScreenshotCall(nil), h.screenshots...)
}

func (h *Handle) record(format string, args ...any) {
	h.calls = append(h.calls, fmt.Sprintf(format, args...))
}

func (h *Handle) Goto(ctx context.Context, url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record("goto %s", url)
	if h.GotoErr != nil {
		return h.GotoErr
	}
	h.url = url
	return nil
}

func (h *Handle) WaitForLoadState(ctx context.Context, state pageobject.LoadState) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record("wait %s", state)
	return h.LoadStateErr
}

func (h *Handle) Title(ctx context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.title, nil
}

func (h *Handle) URL(ctx context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.url, nil
}

func (h *Handle) Screenshot(ctx context.Context, path string, fullPage bool) error {
	h.mu.Lock()
	h.record("screenshot %s", path)
	h.screenshots = append(h.screenshots, ScreenshotCall{Path: path, FullPage: fullPage})
	err, write := h.ScreenshotErr, h.WriteScreenshots
	h.mu.Unlock()

	if err != nil {
		return err
	}
	if write {
		// PNG signature only; enough for callers that stat the file.
		return os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o644)
	}
	return nil
}

func (h *Handle) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	h.mu.Lock()
	h.record("wait for selector %s", selector)
	h.mu.Unlock()

	return poll.Until(ctx, timeout, pollInterval, func(context.Context) (bool, error) {
		_, ok := h.Element(selector)
		return ok, nil
	})
}

func (h *Handle) WaitForURL(ctx context.Context, pattern pageobject.URLPattern, timeout time.Duration) error {
	h.mu.Lock()
	h.record("wait for url %s", pattern)
	h.mu.Unlock()

	return poll.Until(ctx, timeout, pollInterval, func(ctx context.Context) (bool, error) {
		url, _ := h.URL(ctx)
		return pattern.Match(url), nil
	})
}

func (h *Handle) Locator(selector string) pageobject.Locator {
	return &locator{h: h, selector: selector}
}

type locator struct {
	h        *Handle
	selector string
}

func (l *locator) Selector() string { return l.selector }

// find returns the live element; callers must hold l.h.mu.
func (l *locator) find() (*Element, error) {
	el, ok := l.h.elements[l.selector]
	if !ok {
		return nil, fmt.Errorf("%s: %w", l.selector, pageobject.ErrNotFound)
	}
	return el, nil
}

func (l *locator) actionable() (*Element, error) {
	el, err := l.find()
	if err != nil {
		return nil, err
	}
	if !el.Visible {
		return nil, fmt.Errorf("%s is not visible: %w", l.selector, pageobject.ErrNotActionable)
	}
	if el.Disabled {
		return nil, fmt.Errorf("%s is disabled: %w", l.selector, pageobject.ErrNotActionable)
	}
	return el, nil
}

func (l *locator) ScrollIntoView(ctx context.Context) error {
	l.h.mu.Lock()
	defer l.h.mu.Unlock()
	l.h.record("scroll %s", l.selector)
	_, err := l.find()
	return err
}

func (l *locator) IsVisible(ctx context.Context) (bool, error) {
	l.h.mu.Lock()
	defer l.h.mu.Unlock()
	el, ok := l.h.elements[l.selector]
	return ok && el.Visible, nil
}

func (l *locator) TextContent(ctx context.Context) (*string, error) {
	l.h.mu.Lock()
	defer l.h.mu.Unlock()
	el, err := l.find()
	if err != nil {
		return nil, err
	}
	if el.Text == nil {
		return nil, nil
	}
	text := *el.Text
	return &text, nil
}

func (l *locator) Click(ctx context.Context) error {
	l.h.mu.Lock()
	l.h.record("click %s", l.selector)
	_, err := l.actionable()
	hook := l.h.onClick[l.selector]
	l.h.mu.Unlock()

	if err != nil {
		return err
	}
	if hook != nil {
		hook(l.h)
	}
	return nil
}

func (l *locator) Fill(ctx context.Context, value string) error {
	l.h.mu.Lock()
	defer l.h.mu.Unlock()
	l.h.record("fill %s", l.selector)
	el, err := l.actionable()
	if err != nil {
		return err
	}
	el.Value = value
	return nil
}

func (l *locator) Check(ctx context.Context) error {
	return l.setChecked(true)
}

func (l *locator) Uncheck(ctx context.Context) error {
	return l.setChecked(false)
}

func (l *locator) setChecked(checked bool) error {
	l.h.mu.Lock()
	defer l.h.mu.Unlock()
	if checked {
		l.h.record("check %s", l.selector)
	} else {
		l.h.record("uncheck %s", l.selector)
	}
	el, err := l.actionable()
	if err != nil {
		return err
	}
	el.Checked = checked
	return nil
}

func (l *locator) IsChecked(ctx context.Context) (bool, error) {
	l.h.mu.Lock()
	defer l.h.mu.Unlock()
	el, err := l.find()
	if err != nil {
		return false, err
	}
	return el.Checked, nil
}

func (l *locator) Attribute(ctx context.Context, name string) (*string, error) {
	l.h.mu.Lock()
	defer l.h.mu.Unlock()
	el, err := l.find()
	if err != nil {
		return nil, err
	}
	value, ok := el.Attrs[name]
	if !ok {
		return nil, nil
	}
	return &value, nil
}
