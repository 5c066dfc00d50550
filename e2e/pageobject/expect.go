package pageobject

import (
	"context"
	"errors"
	"strings"

	"github.com/gti/pagekit/internal/poll"
	"go.uber.org/zap"
)

// probe reads the current value of what an expectation checks and reports
// whether it already matches. Probe errors do not end polling; the element
// may simply not exist yet.
type probe func(ctx context.Context) (actual any, ok bool, err error)

func (p *Page) expect(ctx context.Context, assertion, selector string, expected any, opts []WaitOption, check probe) error {
	cfg := resolveWait(p.opts.ExpectTimeout, opts)
	p.log.Debug("expect",
		zap.String("assertion", assertion),
		zap.String("selector", selector),
		zap.Any("expected", expected),
		zap.Duration("timeout", cfg.timeout))

	var (
		actual  any
		lastErr error
	)
	err := poll.Until(ctx, cfg.timeout, poll.DefaultInterval, func(ctx context.Context) (bool, error) {
		value, ok, err := check(ctx)
		if err != nil {
			lastErr = err
			return false, nil
		}
		actual, lastErr = value, nil
		return ok, nil
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, poll.ErrTimeout) {
		return err
	}
	return &AssertionError{
		Assertion: assertion,
		Selector:  selector,
		Expected:  expected,
		Actual:    actual,
		Timeout:   cfg.timeout,
		Err:       lastErr,
	}
}

// ExpectVisible waits until selector matches a visible element.
func (p *Page) ExpectVisible(ctx context.Context, selector string, opts ...WaitOption) error {
	loc := p.handle.Locator(selector)
	return p.expect(ctx, "ToBeVisible", selector, "visible", opts, func(ctx context.Context) (any, bool, error) {
		visible, err := loc.IsVisible(ctx)
		return visibility(visible), visible, err
	})
}

// ExpectHidden waits until selector matches nothing or only hidden elements.
func (p *Page) ExpectHidden(ctx context.Context, selector string, opts ...WaitOption) error {
	loc := p.handle.Locator(selector)
	return p.expect(ctx, "ToBeHidden", selector, "hidden", opts, func(ctx context.Context) (any, bool, error) {
		visible, err := loc.IsVisible(ctx)
		return visibility(visible), !visible, err
	})
}

// ExpectText waits until the text of selector equals text. Both sides are
// compared with whitespace runs collapsed and ends trimmed.
func (p *Page) ExpectText(ctx context.Context, selector, text string, opts ...WaitOption) error {
	loc := p.handle.Locator(selector)
	want := normalizeSpace(text)
	return p.expect(ctx, "ToHaveText", selector, want, opts, func(ctx context.Context) (any, bool, error) {
		got, err := textOf(ctx, loc)
		return got, got == want, err
	})
}

// ExpectContainsText waits until the text of selector contains text.
func (p *Page) ExpectContainsText(ctx context.Context, selector, text string, opts ...WaitOption) error {
	loc := p.handle.Locator(selector)
	want := normalizeSpace(text)
	return p.expect(ctx, "ToContainText", selector, want, opts, func(ctx context.Context) (any, bool, error) {
		got, err := textOf(ctx, loc)
		return got, strings.Contains(got, want), err
	})
}

// ExpectAttribute waits until attribute name of selector equals value.
func (p *Page) ExpectAttribute(ctx context.Context, selector, name, value string, opts ...WaitOption) error {
	loc := p.handle.Locator(selector)
	return p.expect(ctx, "ToHaveAttribute("+name+")", selector, value, opts, func(ctx context.Context) (any, bool, error) {
		got, err := loc.Attribute(ctx, name)
		if err != nil || got == nil {
			return nil, false, err
		}
		return *got, *got == value, nil
	})
}

// ExpectURL waits until the current URL equals BaseURL()+path.
func (p *Page) ExpectURL(ctx context.Context, path string, opts ...WaitOption) error {
	want := p.baseURL + path
	return p.expect(ctx, "ToHaveURL", "", want, opts, func(ctx context.Context) (any, bool, error) {
		got, err := p.handle.URL(ctx)
		return got, got == want, err
	})
}

func textOf(ctx context.Context, loc Locator) (string, error) {
	text, err := loc.TextContent(ctx)
	if err != nil || text == nil {
		return "", err
	}
	return normalizeSpace(*text), nil
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func visibility(visible bool) string {
	if visible {
		return "visible"
	}
	return "hidden"
}

