package pageobject

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"go.uber.org/zap"
)

// PageObject is implemented by every page object. BaseURL is fixed for the
// lifetime of the value.
type PageObject interface {
	BaseURL() string
}

var _ PageObject = (*Page)(nil)

// Page is the shared behavior of page objects: a Handle, the application's
// base URL, and defaults for timeouts and screenshots. All fields are set
// once by New.
type Page struct {
	handle  Handle
	baseURL string
	opts    Options
	log     *zap.Logger
}

// New binds a page object to an already open Handle.
func New(h Handle, baseURL string, opts ...Option) *Page {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	o.applyDefaults()

	return &Page{
		handle:  h,
		baseURL: baseURL,
		opts:    o,
		log:     o.Logger.With(zap.String("base_url", baseURL)),
	}
}

// BaseURL returns the address every relative path is resolved against.
func (p *Page) BaseURL() string {
	return p.baseURL
}

// Handle returns the underlying tab for operations Page does not wrap.
func (p *Page) Handle() Handle {
	return p.handle
}

// Options returns the resolved defaults of this page.
func (p *Page) Options() Options {
	return p.opts
}

// Locator is shorthand for p.Handle().Locator(selector).
func (p *Page) Locator(selector string) Locator {
	return p.handle.Locator(selector)
}

// Navigate loads BaseURL()+path and waits for the network to go idle.
// An empty path loads the base URL itself.
func (p *Page) Navigate(ctx context.Context, path string) error {
	url := p.baseURL + path
	p.log.Debug("navigate", zap.String("url", url))

	if err := p.handle.Goto(ctx, url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := p.handle.WaitForLoadState(ctx, LoadStateNetworkIdle); err != nil {
		return fmt.Errorf("wait for %s after navigating to %s: %w", LoadStateNetworkIdle, url, err)
	}
	return nil
}

// Title returns the current document title.
func (p *Page) Title(ctx context.Context) (string, error) {
	return p.handle.Title(ctx)
}

// URL returns the current document URL.
func (p *Page) URL(ctx context.Context) (string, error) {
	return p.handle.URL(ctx)
}

// ScreenshotPath returns where TakeScreenshot(name) writes its image.
func (p *Page) ScreenshotPath(name string) string {
	return filepath.Join(p.opts.ScreenshotDir, name+".png")
}

// TakeScreenshot captures the page to <ScreenshotDir>/<name>.png and returns
// that path. The whole document is captured unless FullPage(false) is given
// or the page was built with WithFullPageScreenshots(false).
func (p *Page) TakeScreenshot(ctx context.Context, name string, opts ...ScreenshotOption) (string, error) {
	cfg := screenshotConfig{fullPage: *p.opts.FullPage}
	for _, opt := range opts {
		opt(&cfg)
	}

	path := p.ScreenshotPath(name)
	p.log.Debug("screenshot", zap.String("path", path), zap.Bool("full_page", cfg.fullPage))

	if err := p.handle.Screenshot(ctx, path, cfg.fullPage); err != nil {
		return "", fmt.Errorf("screenshot %s: %w", path, err)
	}
	return path, nil
}

// WaitForElement blocks until selector matches an attached element.
func (p *Page) WaitForElement(ctx context.Context, selector string, opts ...WaitOption) error {
	cfg := resolveWait(p.opts.Timeout, opts)
	p.log.Debug("wait for element", zap.String("selector", selector), zap.Duration("timeout", cfg.timeout))

	if err := p.handle.WaitForSelector(ctx, selector, cfg.timeout); err != nil {
		return fmt.Errorf("wait for element %s: %w", selector, err)
	}
	return nil
}

// WaitForURL blocks until the current URL matches pattern.
func (p *Page) WaitForURL(ctx context.Context, pattern URLPattern, opts ...WaitOption) error {
	cfg := resolveWait(p.opts.Timeout, opts)
	p.log.Debug("wait for url", zap.Stringer("pattern", pattern), zap.Duration("timeout", cfg.timeout))

	if err := p.handle.WaitForURL(ctx, pattern, cfg.timeout); err != nil {
		return fmt.Errorf("wait for url %s: %w", pattern, err)
	}
	return nil
}

// ScrollToElement scrolls the first match of selector into view.
func (p *Page) ScrollToElement(ctx context.Context, selector string) error {
	p.log.Debug("scroll to element", zap.String("selector", selector))

	if err := p.handle.Locator(selector).ScrollIntoView(ctx); err != nil {
		return fmt.Errorf("scroll to %s: %w", selector, err)
	}
	return nil
}

// IsElementVisible reports whether selector matches a rendered element.
// A selector that matches nothing yields false without error.
func (p *Page) IsElementVisible(ctx context.Context, selector string) (bool, error) {
	return p.handle.Locator(selector).IsVisible(ctx)
}

// Text returns the text content of the first match of selector, or "" when
// the content is null.
func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	text, err := p.handle.Locator(selector).TextContent(ctx)
	if err != nil {
		return "", fmt.Errorf("text of %s: %w", selector, err)
	}
	if text == nil {
		return "", nil
	}
	return *text, nil
}

// Click clicks the first match of selector.
func (p *Page) Click(ctx context.Context, selector string) error {
	p.log.Debug("click", zap.String("selector", selector))

	if err := p.handle.Locator(selector).Click(ctx); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

// Fill replaces the value of the first match of selector.
func (p *Page) Fill(ctx context.Context, selector, value string) error {
	p.log.Debug("fill", zap.String("selector", selector))

	if err := p.handle.Locator(selector).Fill(ctx, value); err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	return nil
}

// FillForm fills every field in values whose name has an entry in
// selectors, in name order. Names without a selector are skipped.
func (p *Page) FillForm(ctx context.Context, selectors, values map[string]string) error {
	for _, name := range slices.Sorted(maps.Keys(values)) {
		value := values[name]
		selector, ok := selectors[name]
		if !ok {
			p.log.Debug("fill form: no selector", zap.String("field", name))
			continue
		}
		if err := p.Fill(ctx, selector, value); err != nil {
			return err
		}
	}
	return nil
}

// Check ticks the checkbox matched by selector.
func (p *Page) Check(ctx context.Context, selector string) error {
	p.log.Debug("check", zap.String("selector", selector))

	if err := p.handle.Locator(selector).Check(ctx); err != nil {
		return fmt.Errorf("check %s: %w", selector, err)
	}
	return nil
}

// Uncheck clears the checkbox matched by selector.
func (p *Page) Uncheck(ctx context.Context, selector string) error {
	p.log.Debug("uncheck", zap.String("selector", selector))

	if err := p.handle.Locator(selector).Uncheck(ctx); err != nil {
		return fmt.Errorf("uncheck %s: %w", selector, err)
	}
	return nil
}

// IsChecked reports the checked state of the element matched by selector.
func (p *Page) IsChecked(ctx context.Context, selector string) (bool, error) {
	return p.handle.Locator(selector).IsChecked(ctx)
}
