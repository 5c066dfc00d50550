package pages_test

import (
	"context"
	"testing"
	"time"

	"github.com/gti/pagekit/e2e/pageobject"
	"github.com/gti/pagekit/e2e/pageobject/pageobjecttest"
	"github.com/gti/pagekit/e2e/pages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dashboard(t *testing.T) (*pages.DashboardPage, *pageobjecttest.Handle) {
	t.Helper()

	h := pageobjecttest.NewHandle()
	h.SetURL(baseURL + pages.DashboardPath)
	h.SetElement(pages.DashboardHeader, pageobjecttest.Element{Visible: true, Text: pageobjecttest.Text("Dashboard")})
	h.SetElement(pages.DashboardGreeting, pageobjecttest.Element{Visible: true, Text: pageobjecttest.Text("Welcome, test@example.com")})
	h.SetElement(pages.DashboardLogout, pageobjecttest.Element{Visible: true})

	return pages.NewDashboardPage(h, baseURL, pageobject.WithExpectTimeout(100*time.Millisecond)), h
}

func TestDashboardPage_Content(t *testing.T) {
	ctx := context.Background()
	dash, _ := dashboard(t)

	header, err := dash.Header(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Dashboard", header)

	assert.NoError(t, dash.ExpectGreeting(ctx, "test@example.com"))
	assert.True(t, pageobject.IsAssertion(dash.ExpectGreeting(ctx, "other@example.com")))
}

func TestDashboardPage_Open(t *testing.T) {
	dash, h := dashboard(t)

	require.NoError(t, dash.Open(context.Background()))

	assert.Equal(t, "goto http://localhost:3000/dashboard", h.Calls()[0])
}

func TestDashboardPage_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("returns to login", func(t *testing.T) {
		dash, h := dashboard(t)
		h.OnClick(pages.DashboardLogout, func(h *pageobjecttest.Handle) { h.SetURL(baseURL + pages.LoginPath) })

		assert.NoError(t, dash.Logout(ctx))
	})

	t.Run("no redirect is an assertion failure", func(t *testing.T) {
		dash, _ := dashboard(t)

		assert.True(t, pageobject.IsAssertion(dash.Logout(ctx)))
	})
}
