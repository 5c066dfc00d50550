//go:build e2e

package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gti/pagekit/e2e/helpers"
	"github.com/gti/pagekit/e2e/pageobject"
	"github.com/gti/pagekit/e2e/pages"
	"github.com/gti/pagekit/internal/database"
	"github.com/gti/pagekit/internal/handler"
	"github.com/gti/pagekit/internal/middleware"
)

var seedCredentials = pages.Credentials{
	Email:    database.SeedUser.Email,
	Password: database.SeedUser.Password,
}

// openLogin opens /login in a fresh session.
func openLogin(t *testing.T) (*helpers.Session, *pages.LoginPage) {
	t.Helper()
	session := newSession(t)
	cfg := env.BrowserConfig()

	login := pages.NewLoginPage(session.Handle(), cfg.BaseURL, cfg.PageOptions()...)
	if err := login.Open(context.Background()); err != nil {
		t.Fatalf("failed to open login page: %v", err)
	}
	return session, login
}

func TestLogin_Successful(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	_, login := openLogin(t)

	a.NoError(login.Login(ctx, seedCredentials.Email, seedCredentials.Password, false))
	a.NoError(login.ExpectLoginSuccessful(ctx))
}

func TestLogin_InvalidEmail(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	_, login := openLogin(t)

	a.NoError(login.Login(ctx, "invalid-email", "password123", false))
	a.NoError(login.ExpectErrorMessage(ctx, handler.MsgEmailInvalid))
	a.NoError(login.ExpectOnLoginPage(ctx))
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	_, login := openLogin(t)

	a.NoError(login.Login(ctx, seedCredentials.Email, "wrongpassword", false))
	a.NoError(login.ExpectErrorMessage(ctx, handler.MsgInvalidCredentials))
}

func TestLogin_EmptyFields(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	_, login := openLogin(t)

	a.NoError(login.ClickSubmit(ctx))
	a.NoError(login.ExpectEmailFieldError(ctx))
}

func TestLogin_RememberMeSetsCookie(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	session, login := openLogin(t)

	a.NoError(login.Login(ctx, seedCredentials.Email, seedCredentials.Password, true))
	a.NoError(login.ExpectLoginSuccessful(ctx))

	cookies, err := session.Cookies(ctx)
	a.NoError(err)

	remember := helpers.FindCookie(cookies, middleware.RememberCookieName)
	if a.NotNil(remember, "remember cookie should be set") {
		a.True(remember.Expires.After(time.Now()), "remember cookie should expire in the future")
	}

	sess := helpers.FindCookie(cookies, middleware.SessionCookieName)
	if a.NotNil(sess, "session cookie should be set") {
		a.True(sess.Expires.IsZero(), "session cookie should not persist")
	}

	plain, remembered, err := env.DB.SessionCount(ctx, seedCredentials.Email)
	a.NoError(err)
	a.Equal(1, plain)
	a.Equal(1, remembered)
}

func TestLogin_WithoutRememberMe(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	session, login := openLogin(t)

	checked, err := login.IsRememberMeChecked(ctx)
	a.NoError(err)
	a.False(checked)

	a.NoError(login.Login(ctx, seedCredentials.Email, seedCredentials.Password, false))
	a.NoError(login.ExpectLoginSuccessful(ctx))

	cookies, err := session.Cookies(ctx)
	a.NoError(err)
	a.Nil(helpers.FindCookie(cookies, middleware.RememberCookieName))
}

func TestLogin_ForgotPasswordNavigation(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	_, login := openLogin(t)

	a.NoError(login.ClickForgotPassword(ctx))
	a.NoError(login.ExpectURL(ctx, "/forgot-password"))
}

func TestLogin_SignupNavigation(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	_, login := openLogin(t)

	a.NoError(login.ClickSignup(ctx))
	a.NoError(login.ExpectURL(ctx, "/signup"))
}

func TestLogin_WithCredentials(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	_, login := openLogin(t)

	creds := pages.Credentials{Email: "alice@example.com", Password: "alicepassword"}
	a.NoError(env.SeedUser(ctx, creds.Email, creds.Password))

	a.NoError(login.LoginWithCredentials(ctx, creds))
	a.NoError(login.ExpectLoginSuccessful(ctx))
}

func TestLogin_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     string
	}{
		{"missing email", "", "password", handler.MsgEmailRequired},
		{"missing password", "user@example.com", "", handler.MsgPasswordRequired},
		{"malformed email", "invalid", "password", handler.MsgEmailInvalid},
		{"short password", "user@example.com", "short", handler.MsgPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			a := helpers.NewAssert(t)
			_, login := openLogin(t)

			a.NoError(login.FillEmail(ctx, tt.email))
			a.NoError(login.FillPassword(ctx, tt.password))
			a.NoError(login.ClickSubmit(ctx))
			a.NoError(login.ExpectErrorMessage(ctx, tt.want))
		})
	}
}

func TestLogin_ExpectErrorMessageMismatch(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	_, login := openLogin(t)

	a.NoError(login.Login(ctx, seedCredentials.Email, "wrongpassword", false))
	err := login.ExpectErrorMessage(ctx, "Some other message", pageobject.WithTimeout(500*time.Millisecond))
	a.AssertionFailed(err)
}

func TestDashboard_AfterLogin(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	session, login := openLogin(t)

	a.NoError(login.LoginWithCredentials(ctx, seedCredentials))
	a.NoError(login.ExpectLoginSuccessful(ctx))

	cfg := env.BrowserConfig()
	dashboard := pages.NewDashboardPage(session.Handle(), cfg.BaseURL, cfg.PageOptions()...)
	a.NoError(dashboard.ExpectGreeting(ctx, seedCredentials.Email))

	header, err := dashboard.Header(ctx)
	a.NoError(err)
	a.Equal("Dashboard", header)
}

func TestDashboard_Logout(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	session, login := openLogin(t)

	a.NoError(login.Login(ctx, seedCredentials.Email, seedCredentials.Password, true))
	a.NoError(login.ExpectLoginSuccessful(ctx))

	cfg := env.BrowserConfig()
	dashboard := pages.NewDashboardPage(session.Handle(), cfg.BaseURL, cfg.PageOptions()...)
	a.NoError(dashboard.Logout(ctx))

	plain, remembered, err := env.DB.SessionCount(ctx, seedCredentials.Email)
	a.NoError(err)
	a.Equal(0, plain)
	a.Equal(0, remembered)

	// protected page bounces back to the form
	a.NoError(dashboard.Open(ctx))
	a.NoError(login.ExpectOnLoginPage(ctx))
}

func TestDashboard_RequiresLogin(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	session := newSession(t)

	cfg := env.BrowserConfig()
	dashboard := pages.NewDashboardPage(session.Handle(), cfg.BaseURL, cfg.PageOptions()...)
	login := pages.NewLoginPage(session.Handle(), cfg.BaseURL, cfg.PageOptions()...)

	a.NoError(dashboard.Open(ctx))
	a.NoError(login.ExpectOnLoginPage(ctx))
}

func TestAPI_CreateUserThenLogin(t *testing.T) {
	ctx := context.Background()
	a := helpers.NewAssert(t)
	iso := env.NewIsolatedEnv(t.Name())
	defer func() { a.NoError(iso.Cleanup(ctx)) }()

	email := iso.UniqueEmail("bob")
	a.NoError(iso.SeedUser(ctx, email, "bobpassword"))

	_, err := iso.API.CreateUser(ctx, email, "bobpassword")
	a.True(errors.Is(err, helpers.ErrUserExists), "got %v", err)

	browser, err := iso.Browser(ctx)
	a.NoError(err)
	session := browser.Session(t)

	cfg := env.BrowserConfig()
	login := pages.NewLoginPage(session.Handle(), cfg.BaseURL, cfg.PageOptions()...)
	a.NoError(login.Open(ctx))
	a.NoError(login.Login(ctx, email, "bobpassword", false))
	a.NoError(login.ExpectLoginSuccessful(ctx))
}
