// Package pages holds page objects for the sandbox application.
package pages

import (
	"context"
	"fmt"

	"github.com/gti/pagekit/e2e/pageobject"
)

// Login page selectors.
const (
	LoginEmail          = "#email"
	LoginPassword       = "#password"
	LoginSubmit         = "button[type='submit']"
	LoginErrorMessage   = "[data-testid='error-message']"
	LoginRememberMe     = "#remember-me"
	LoginForgotPassword = "a[href='/forgot-password']"
	LoginSignupLink     = "a[href='/signup']"
)

// LoginPath is where the login form is served.
const LoginPath = "/login"

// Credentials is a user to log in as.
type Credentials struct {
	Email      string
	Password   string
	RememberMe bool
}

// LoginPage is the page object for /login.
//
//	login := pages.NewLoginPage(session.Handle(), cfg.BaseURL, cfg.PageOptions()...)
//	if err := login.Open(ctx); err != nil {
//	    t.Fatal(err)
//	}
//	require.NoError(t, login.Login(ctx, "test@example.com", "testpassword123", false))
//	require.NoError(t, login.ExpectLoginSuccessful(ctx))
type LoginPage struct {
	*pageobject.Page
}

// NewLoginPage binds a login page object to h. It does not navigate; call
// Open first unless the tab is already on /login.
func NewLoginPage(h pageobject.Handle, baseURL string, opts ...pageobject.Option) *LoginPage {
	return &LoginPage{Page: pageobject.New(h, baseURL, opts...)}
}

// Open navigates to the login form.
func (p *LoginPage) Open(ctx context.Context) error {
	return p.Navigate(ctx, LoginPath)
}

// FillEmail replaces the email input value.
func (p *LoginPage) FillEmail(ctx context.Context, email string) error {
	return p.Fill(ctx, LoginEmail, email)
}

// FillPassword replaces the password input value.
func (p *LoginPage) FillPassword(ctx context.Context, password string) error {
	return p.Fill(ctx, LoginPassword, password)
}

// CheckRememberMe ticks the remember-me box. Already ticked is a no-op.
func (p *LoginPage) CheckRememberMe(ctx context.Context) error {
	return p.Check(ctx, LoginRememberMe)
}

// UncheckRememberMe clears the remember-me box.
func (p *LoginPage) UncheckRememberMe(ctx context.Context) error {
	return p.Uncheck(ctx, LoginRememberMe)
}

// ClickSubmit submits the form as filled.
func (p *LoginPage) ClickSubmit(ctx context.Context) error {
	return p.Click(ctx, LoginSubmit)
}

// ClickForgotPassword follows the forgot password link.
func (p *LoginPage) ClickForgotPassword(ctx context.Context) error {
	return p.Click(ctx, LoginForgotPassword)
}

// ClickSignup follows the create account link.
func (p *LoginPage) ClickSignup(ctx context.Context) error {
	return p.Click(ctx, LoginSignupLink)
}

// Login fills the form and submits it. The remember-me box is only touched
// when remember is true.
func (p *LoginPage) Login(ctx context.Context, email, password string, remember bool) error {
	if err := p.FillEmail(ctx, email); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := p.FillPassword(ctx, password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if remember {
		if err := p.CheckRememberMe(ctx); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}
	if err := p.ClickSubmit(ctx); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

// LoginWithCredentials is Login for a Credentials value. Zero fields submit
// empty inputs.
func (p *LoginPage) LoginWithCredentials(ctx context.Context, c Credentials) error {
	return p.Login(ctx, c.Email, c.Password, c.RememberMe)
}

// ExpectLoginSuccessful asserts the browser lands on the dashboard.
func (p *LoginPage) ExpectLoginSuccessful(ctx context.Context, opts ...pageobject.WaitOption) error {
	return p.ExpectURL(ctx, DashboardPath, opts...)
}

// ExpectErrorMessage asserts the error banner is shown with exactly message.
func (p *LoginPage) ExpectErrorMessage(ctx context.Context, message string, opts ...pageobject.WaitOption) error {
	if err := p.ExpectVisible(ctx, LoginErrorMessage, opts...); err != nil {
		return err
	}
	return p.ExpectText(ctx, LoginErrorMessage, message, opts...)
}

// ExpectOnLoginPage asserts the browser is still on /login.
func (p *LoginPage) ExpectOnLoginPage(ctx context.Context, opts ...pageobject.WaitOption) error {
	return p.ExpectURL(ctx, LoginPath, opts...)
}

// ExpectEmailFieldError asserts the email input is marked aria-invalid.
func (p *LoginPage) ExpectEmailFieldError(ctx context.Context, opts ...pageobject.WaitOption) error {
	return p.ExpectAttribute(ctx, LoginEmail, "aria-invalid", "true", opts...)
}

// ErrorMessage returns the error banner text, "" when it has none.
func (p *LoginPage) ErrorMessage(ctx context.Context) (string, error) {
	return p.Text(ctx, LoginErrorMessage)
}

// IsRememberMeChecked reports the remember-me box state.
func (p *LoginPage) IsRememberMeChecked(ctx context.Context) (bool, error) {
	return p.IsChecked(ctx, LoginRememberMe)
}
