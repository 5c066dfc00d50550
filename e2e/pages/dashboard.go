package pages

import (
	"context"

	"github.com/gti/pagekit/e2e/pageobject"
)

// Dashboard page selectors.
const (
	DashboardHeader   = "[data-testid='dashboard-header']"
	DashboardGreeting = "[data-testid='greeting']"
	DashboardLogout   = "[data-testid='logout']"
)

// DashboardPath is the landing page after a successful login.
const DashboardPath = "/dashboard"

// DashboardPage is the page object for /dashboard.
type DashboardPage struct {
	*pageobject.Page
}

func NewDashboardPage(h pageobject.Handle, baseURL string, opts ...pageobject.Option) *DashboardPage {
	return &DashboardPage{Page: pageobject.New(h, baseURL, opts...)}
}

// Open navigates to the dashboard. Without a session the app redirects to
// /login.
func (p *DashboardPage) Open(ctx context.Context) error {
	return p.Navigate(ctx, DashboardPath)
}

// Header returns the page heading.
func (p *DashboardPage) Header(ctx context.Context) (string, error) {
	return p.Text(ctx, DashboardHeader)
}

// ExpectGreeting asserts the greeting names email.
func (p *DashboardPage) ExpectGreeting(ctx context.Context, email string, opts ...pageobject.WaitOption) error {
	return p.ExpectText(ctx, DashboardGreeting, "Welcome, "+email, opts...)
}

// Logout submits the logout form and waits to be back on /login.
func (p *DashboardPage) Logout(ctx context.Context, opts ...pageobject.WaitOption) error {
	if err := p.Click(ctx, DashboardLogout); err != nil {
		return err
	}
	return p.ExpectURL(ctx, LoginPath, opts...)
}
