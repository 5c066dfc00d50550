//go:build e2e

package tests

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gti/pagekit/e2e/helpers"
	"github.com/gti/pagekit/e2e/pageobject"
	"github.com/gti/pagekit/e2e/pages"
)

// Base page behaviour against a real browser.

func TestPage_Title(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	_, login := openLogin(t)

	title, err := login.Title(ctx)
	a.NoError(err)
	a.Equal("Login", title)
}

func TestPage_Screenshot(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	session := newSession(t)

	cfg := env.BrowserConfig()
	dir := t.TempDir()
	opts := append(cfg.PageOptions(), pageobject.WithScreenshotDir(dir))
	login := pages.NewLoginPage(session.Handle(), cfg.BaseURL, opts...)
	a.NoError(login.Open(ctx))

	path, err := login.TakeScreenshot(ctx, "login_form")
	a.NoError(err)
	a.Equal(filepath.Join(dir, "login_form.png"), path)

	info, err := os.Stat(path)
	a.NoError(err)
	a.True(info.Size() > 0, "screenshot should not be empty")
}

func TestPage_WaitForElementTimeout(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	_, login := openLogin(t)

	err := login.WaitForElement(ctx, "#does-not-exist", pageobject.WithTimeout(300*time.Millisecond))
	a.Timeout(err)
}

func TestPage_IsElementVisible(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	_, login := openLogin(t)

	visible, err := login.IsElementVisible(ctx, pages.LoginEmail)
	a.NoError(err)
	a.True(visible)

	// rendered but hidden until a submit fails
	visible, err = login.IsElementVisible(ctx, pages.LoginErrorMessage)
	a.NoError(err)
	a.False(visible)

	visible, err = login.IsElementVisible(ctx, "#does-not-exist")
	a.NoError(err)
	a.False(visible)
}

func TestPage_ScrollToElement(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	_, login := openLogin(t)

	a.NoError(login.ScrollToElement(ctx, pages.LoginSignupLink))
	a.NoError(login.ExpectVisible(ctx, pages.LoginSignupLink))
}

func TestPage_CheckAndUncheck(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	_, login := openLogin(t)

	a.NoError(login.CheckRememberMe(ctx))
	checked, err := login.IsRememberMeChecked(ctx)
	a.NoError(err)
	a.True(checked)

	// idempotent
	a.NoError(login.CheckRememberMe(ctx))

	a.NoError(login.UncheckRememberMe(ctx))
	checked, err = login.IsRememberMeChecked(ctx)
	a.NoError(err)
	a.False(checked)
}

func TestPage_FillReplacesValue(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	_, login := openLogin(t)

	a.NoError(login.FillEmail(ctx, "first@example.com"))
	a.NoError(login.FillEmail(ctx, "second@example.com"))
	a.NoError(login.FillPassword(ctx, "longenough1"))
	a.NoError(login.ClickSubmit(ctx))

	// the form echoes the submitted email back
	a.NoError(login.ExpectAttribute(ctx, pages.LoginEmail, "value", "second@example.com"))
}

func TestPage_ClickMissingElement(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	session := newSession(t)

	cfg := env.BrowserConfig()
	page := pageobject.New(session.Handle(), cfg.BaseURL, cfg.PageOptions()...)
	a.NoError(page.Navigate(ctx, pages.LoginPath))

	err := page.Click(ctx, "#does-not-exist")
	a.True(errors.Is(err, pageobject.ErrNotFound), "got %v", err)
}

func TestAPI_Health(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)

	health, err := env.API.Health(ctx)
	a.NoError(err)
	if a.NotNil(health) {
		a.Equal("ok", health.Status)
		a.Equal("ok", health.Database)
	}

	// protected routes reject a client without the key
	resp, err := helpers.NewAPIClient(env.ServiceURL(), "").Call(ctx, http.MethodPost, "/api/users", nil)
	a.NoError(err)
	a.Equal(http.StatusUnauthorized, resp.StatusCode)
}
