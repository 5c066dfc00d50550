package helpers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/gti/pagekit/e2e/pageobject"
	"github.com/gti/pagekit/internal/poll"
	"github.com/ysmood/gson"
	"go.uber.org/zap"
)

// networkIdleWindow is how long the tab must go without in-flight requests
// to count as network idle.
const networkIdleWindow = 500 * time.Millisecond

var _ pageobject.Handle = (*RodHandle)(nil)

// RodHandle drives one rod.Page as a pageobject.Handle.
//
// Actions wait up to actionTimeout for their element, then fail with
// pageobject.ErrNotFound or pageobject.ErrNotActionable. Loads are bounded by
// navTimeout.
type RodHandle struct {
	page          *rod.Page
	actionTimeout time.Duration
	navTimeout    time.Duration
	maxShotWidth  int
	log           *zap.Logger
}

// NewRodHandle wraps page using the timeouts and screenshot settings of cfg.
func NewRodHandle(page *rod.Page, cfg Config) *RodHandle {
	actionTimeout := cfg.Timeout
	if actionTimeout <= 0 {
		actionTimeout = pageobject.DefaultTimeout
	}
	navTimeout := cfg.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}

	return &RodHandle{
		page:          page,
		actionTimeout: actionTimeout,
		navTimeout:    navTimeout,
		maxShotWidth:  cfg.ScreenshotMaxWidth,
		log:           cfg.logger().Named("rod"),
	}
}

// Page returns the underlying rod page.
func (h *RodHandle) Page() *rod.Page {
	return h.page
}

func (h *RodHandle) Goto(ctx context.Context, url string) error {
	h.log.Debug("goto", zap.String("url", url))
	p, release := withTimeout(h.page.Context(ctx), h.navTimeout)
	defer release()

	if err := p.Navigate(url); err != nil {
		return timeoutErr(ctx, fmt.Errorf("failed to navigate to %s: %w", url, err))
	}
	return nil
}

func (h *RodHandle) WaitForLoadState(ctx context.Context, state pageobject.LoadState) error {
	p, release := withTimeout(h.page.Context(ctx), h.navTimeout)
	defer release()

	switch state {
	case pageobject.LoadStateDOMContentLoaded:
		if err := p.Wait(rod.Eval(`() => document.readyState !== 'loading'`)); err != nil {
			return timeoutErr(ctx, fmt.Errorf("failed to wait for DOM content: %w", err))
		}
	case pageobject.LoadStateLoad:
		if err := p.WaitLoad(); err != nil {
			return timeoutErr(ctx, fmt.Errorf("failed to wait for page load: %w", err))
		}
	case pageobject.LoadStateNetworkIdle:
		if err := p.WaitLoad(); err != nil {
			return timeoutErr(ctx, fmt.Errorf("failed to wait for page load: %w", err))
		}
		p.WaitRequestIdle(networkIdleWindow, nil, nil, nil)()
		if err := p.GetContext().Err(); err != nil {
			return timeoutErr(ctx, fmt.Errorf("failed to wait for network idle: %w", err))
		}
	default:
		return fmt.Errorf("unknown load state %q", state)
	}
	return nil
}

func (h *RodHandle) Title(ctx context.Context) (string, error) {
	info, err := h.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("failed to get page info: %w", err)
	}
	return info.Title, nil
}

func (h *RodHandle) URL(ctx context.Context) (string, error) {
	info, err := h.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("failed to get page info: %w", err)
	}
	return info.URL, nil
}

func (h *RodHandle) Screenshot(ctx context.Context, path string, fullPage bool) error {
	data, err := h.page.Context(ctx).Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}

	if h.maxShotWidth > 0 {
		data, err = downscalePNG(data, h.maxShotWidth)
		if err != nil {
			return err
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	h.log.Debug("screenshot saved", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

func (h *RodHandle) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	p, release := withTimeout(h.page.Context(ctx), timeout)
	defer release()

	if _, err := p.Element(selector); err != nil {
		return timeoutErr(ctx, fmt.Errorf("timeout waiting for element %s: %w", selector, err))
	}
	return nil
}

func (h *RodHandle) WaitForURL(ctx context.Context, pattern pageobject.URLPattern, timeout time.Duration) error {
	return poll.Until(ctx, timeout, poll.DefaultInterval, func(ctx context.Context) (bool, error) {
		info, err := h.page.Context(ctx).Info()
		if err != nil {
			return false, fmt.Errorf("failed to get page info: %w", err)
		}
		return pattern.Match(info.URL), nil
	})
}

func (h *RodHandle) Locator(selector string) pageobject.Locator {
	return &rodLocator{h: h, selector: selector}
}

type rodLocator struct {
	h        *RodHandle
	selector string
}

func (l *rodLocator) Selector() string { return l.selector }

// element waits for the selector to be attached.
func (l *rodLocator) element(ctx context.Context) (*rod.Element, error) {
	p, release := withTimeout(l.h.page.Context(ctx), l.h.actionTimeout)
	defer release()

	el, err := p.Element(l.selector)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w: %w", l.selector, pageobject.ErrNotFound, pageobject.ErrTimeout)
		}
		return nil, fmt.Errorf("failed to find element %s: %w", l.selector, err)
	}
	return el.Context(ctx), nil
}

// actionable waits for the element to be visible and enabled.
func (l *rodLocator) actionable(ctx context.Context) (*rod.Element, error) {
	el, err := l.element(ctx)
	if err != nil {
		return nil, err
	}
	if err := waitVisible(el, l.h.actionTimeout); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s is not visible: %w", l.selector, pageobject.ErrNotActionable)
	}
	disabled, err := el.Disabled()
	if err != nil {
		return nil, fmt.Errorf("failed to read disabled state of %s: %w", l.selector, err)
	}
	if disabled {
		return nil, fmt.Errorf("%s is disabled: %w", l.selector, pageobject.ErrNotActionable)
	}
	return el, nil
}

func (l *rodLocator) ScrollIntoView(ctx context.Context) error {
	el, err := l.element(ctx)
	if err != nil {
		return err
	}
	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("failed to scroll to %s: %w", l.selector, err)
	}
	return nil
}

func (l *rodLocator) IsVisible(ctx context.Context) (bool, error) {
	has, el, err := l.h.page.Context(ctx).Has(l.selector)
	if err != nil {
		return false, fmt.Errorf("failed to query %s: %w", l.selector, err)
	}
	if !has {
		return false, nil
	}
	visible, err := el.Visible()
	if err != nil {
		// detached between the query and the check
		return false, nil
	}
	return visible, nil
}

func (l *rodLocator) TextContent(ctx context.Context) (*string, error) {
	el, err := l.element(ctx)
	if err != nil {
		return nil, err
	}
	res, err := el.Eval(`() => this.textContent`)
	if err != nil {
		return nil, fmt.Errorf("failed to get text from %s: %w", l.selector, err)
	}
	return nullableString(res.Value), nil
}

func (l *rodLocator) Click(ctx context.Context) error {
	el, err := l.actionable(ctx)
	if err != nil {
		return err
	}
	bounded := el.Timeout(l.h.actionTimeout)
	defer bounded.CancelTimeout()

	if err := bounded.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click element %s: %w", l.selector, errors.Join(pageobject.ErrNotActionable, err))
	}
	return nil
}

func (l *rodLocator) Fill(ctx context.Context, value string) error {
	el, err := l.actionable(ctx)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("failed to select text in %s: %w", l.selector, err)
	}
	if value == "" {
		// inserting "" leaves the selection in place
		_, err = el.Eval(`() => {
			this.value = '';
			this.dispatchEvent(new Event('input', { bubbles: true }));
			this.dispatchEvent(new Event('change', { bubbles: true }));
		}`)
	} else {
		err = el.Input(value)
	}
	if err != nil {
		return fmt.Errorf("failed to input text into %s: %w", l.selector, err)
	}
	return nil
}

func (l *rodLocator) Check(ctx context.Context) error {
	return l.setChecked(ctx, true)
}

func (l *rodLocator) Uncheck(ctx context.Context) error {
	return l.setChecked(ctx, false)
}

func (l *rodLocator) setChecked(ctx context.Context, want bool) error {
	el, err := l.actionable(ctx)
	if err != nil {
		return err
	}
	checked, err := isChecked(el)
	if err != nil {
		return fmt.Errorf("failed to read checked state of %s: %w", l.selector, err)
	}
	if checked == want {
		return nil
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to toggle %s: %w", l.selector, errors.Join(pageobject.ErrNotActionable, err))
	}
	checked, err = isChecked(el)
	if err != nil {
		return fmt.Errorf("failed to read checked state of %s: %w", l.selector, err)
	}
	if checked != want {
		return fmt.Errorf("%s did not change checked state: %w", l.selector, pageobject.ErrNotActionable)
	}
	return nil
}

func (l *rodLocator) IsChecked(ctx context.Context) (bool, error) {
	el, err := l.element(ctx)
	if err != nil {
		return false, err
	}
	checked, err := isChecked(el)
	if err != nil {
		return false, fmt.Errorf("failed to read checked state of %s: %w", l.selector, err)
	}
	return checked, nil
}

func (l *rodLocator) Attribute(ctx context.Context, name string) (*string, error) {
	el, err := l.element(ctx)
	if err != nil {
		return nil, err
	}
	value, err := el.Attribute(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read attribute %s of %s: %w", name, l.selector, err)
	}
	return value, nil
}

// withTimeout bounds p by d. Call release once the bounded operation
// returns so the timer does not outlive it.
func withTimeout(p *rod.Page, d time.Duration) (bounded *rod.Page, release func()) {
	bounded = p.Timeout(d)
	return bounded, func() { bounded.CancelTimeout() }
}

func waitVisible(el *rod.Element, d time.Duration) error {
	bounded := el.Timeout(d)
	defer bounded.CancelTimeout()
	return bounded.WaitVisible()
}

func isChecked(el *rod.Element) (bool, error) {
	prop, err := el.Property("checked")
	if err != nil {
		return false, err
	}
	return prop.Bool(), nil
}

// nullableString maps a JS null or undefined to nil.
func nullableString(v gson.JSON) *string {
	if v.Nil() {
		return nil
	}
	s := v.Str()
	return &s
}

// timeoutErr marks err as a timeout when the local deadline, not the
// caller's context, ended the operation.
func timeoutErr(ctx context.Context, err error) error {
	if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", pageobject.ErrTimeout, err)
	}
	return err
}

func downscalePNG(data []byte, maxWidth int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	if img.Bounds().Dx() <= maxWidth {
		return data, nil
	}

	img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode screenshot: %w", err)
	}
	return buf.Bytes(), nil
}
