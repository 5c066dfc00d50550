// Package helpers provides narrowly-scoped utilities for E2E testing.
package helpers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/gti/pagekit/e2e/pageobject"
	"go.uber.org/zap"
)

// Browser owns one launched Chromium process.
//
// Tests share a Browser and open one Session each, so every test gets a
// fresh incognito context with its own cookies and storage:
//
//	browser, err := helpers.NewBrowser(ctx, cfg)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer browser.Close()
//
//	session := browser.Session(t)
//	login := pages.NewLoginPage(session.Handle(), cfg.BaseURL, cfg.PageOptions()...)
type Browser struct {
	cfg      Config
	launcher *launcher.Launcher
	browser  *rod.Browser
	log      *zap.Logger
}

// NewBrowser launches Chromium with the headless, sandbox and slow motion
// settings of cfg. Call Close() when done to kill the process.
func NewBrowser(ctx context.Context, cfg Config) (*Browser, error) {
	log := cfg.logger().Named("browser")

	l := launcher.New().Context(ctx).Headless(cfg.Headless)
	if cfg.NoSandbox {
		l = l.NoSandbox(true)
	}
	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if cfg.SlowMotion > 0 {
		browser = browser.SlowMotion(cfg.SlowMotion)
	}
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	log.Info("browser started", zap.Bool("headless", cfg.Headless), zap.String("control_url", url))

	return &Browser{
		cfg:      cfg,
		launcher: l,
		browser:  browser,
		log:      log,
	}, nil
}

// NewSession opens a tab in a new incognito context with the configured
// viewport and locale.
func (b *Browser) NewSession(ctx context.Context) (*Session, error) {
	incognito, err := b.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.cfg.ViewportWidth,
		Height:            b.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	if b.cfg.Locale != "" {
		if err := (proto.EmulationSetLocaleOverride{Locale: b.cfg.Locale}).Call(page); err != nil {
			_ = incognito.Close()
			return nil, fmt.Errorf("failed to set locale: %w", err)
		}
	}

	return &Session{
		context: incognito,
		page:    page,
		handle:  NewRodHandle(page, b.cfg),
	}, nil
}

// Session opens a session for t and closes it when the test ends.
// Failing tests get a screenshot via CaptureOnFailure before the close.
func (b *Browser) Session(t testing.TB) *Session {
	t.Helper()

	s, err := b.NewSession(context.Background())
	if err != nil {
		t.Fatalf("failed to open browser session: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("failed to close browser session: %v", err)
		}
	})
	// registered last so it runs before the close above
	t.Cleanup(func() {
		CaptureOnFailure(t, pageobject.New(s.Handle(), b.cfg.BaseURL, b.cfg.PageOptions()...))
	})
	return s
}

// Close kills the browser process.
//
// Always call Close() when done with the browser, typically using defer.
func (b *Browser) Close() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
	b.log.Info("browser stopped")
	return err
}

// Session is one isolated browser context with a single tab.
type Session struct {
	context *rod.Browser
	page    *rod.Page
	handle  *RodHandle
}

// Handle returns the tab as a pageobject.Handle.
func (s *Session) Handle() *RodHandle {
	return s.handle
}

// Cookies returns the cookies visible to the current page.
//
//	cookies, err := session.Cookies(ctx)
//	token := helpers.FindCookie(cookies, "session_token")
func (s *Session) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	raw, err := s.page.Context(ctx).Cookies(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(raw))
	for _, c := range raw {
		cookie := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HttpOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.Expires > 0 {
			cookie.Expires = c.Expires.Time()
		}
		cookies = append(cookies, cookie)
	}
	return cookies, nil
}

// Close closes the tab and its browser context.
func (s *Session) Close() error {
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.context != nil {
		return s.context.Close()
	}
	return nil
}

// FindCookie returns the cookie called name, or nil.
func FindCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
