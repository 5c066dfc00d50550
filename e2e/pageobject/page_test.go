package pageobject_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/gti/pagekit/e2e/pageobject"
	"github.com/gti/pagekit/e2e/pageobject/pageobjecttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const baseURL = "https://ex.com"

func newPage(t *testing.T, opts ...pageobject.Option) (*pageobject.Page, *pageobjecttest.Handle) {
	t.Helper()
	h := pageobjecttest.NewHandle()
	opts = append([]pageobject.Option{pageobject.WithLogger(zaptest.NewLogger(t))}, opts...)
	return pageobject.New(h, baseURL, opts...), h
}

func TestNew_Defaults(t *testing.T) {
	page, _ := newPage(t)
	opts := page.Options()

	assert.Equal(t, baseURL, page.BaseURL())
	assert.Equal(t, os.TempDir(), opts.ScreenshotDir)
	assert.Equal(t, 5000*time.Millisecond, opts.Timeout)
	assert.Equal(t, 5000*time.Millisecond, opts.ExpectTimeout)
	require.NotNil(t, opts.FullPage)
	assert.True(t, *opts.FullPage)
}

func TestNew_WithOptions(t *testing.T) {
	full := false
	page, _ := newPage(t, pageobject.WithOptions(pageobject.Options{
		ScreenshotDir: "/var/shots",
		Timeout:       time.Second,
		FullPage:      &full,
	}))
	opts := page.Options()

	assert.Equal(t, "/var/shots", opts.ScreenshotDir)
	assert.Equal(t, time.Second, opts.Timeout)
	assert.Equal(t, pageobject.DefaultExpectTimeout, opts.ExpectTimeout)
	assert.False(t, *opts.FullPage)
}

func TestPage_Navigate(t *testing.T) {
	ctx := context.Background()
	page, h := newPage(t)

	require.NoError(t, page.Navigate(ctx, "/login"))

	assert.Equal(t, []string{
		"goto https://ex.com/login",
		"wait networkidle",
	}, h.Calls())
}

func TestPage_Navigate_EmptyPath(t *testing.T) {
	ctx := context.Background()
	page, h := newPage(t)

	require.NoError(t, page.Navigate(ctx, ""))

	assert.Equal(t, "goto https://ex.com", h.Calls()[0])
	url, err := page.URL(ctx)
	require.NoError(t, err)
	assert.Equal(t, baseURL, url)
}

func TestPage_Navigate_PropagatesErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("goto", func(t *testing.T) {
		page, h := newPage(t)
		boom := errors.New("net::ERR_CONNECTION_REFUSED")
		h.GotoErr = boom

		err := page.Navigate(ctx, "/login")
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"goto https://ex.com/login"}, h.Calls(), "should not wait after a failed load")
	})

	t.Run("load state", func(t *testing.T) {
		page, h := newPage(t)
		h.LoadStateErr = pageobject.ErrTimeout

		err := page.Navigate(ctx, "/slow")
		assert.True(t, pageobject.IsTimeout(err))
	})
}

func TestPage_TitleAndURL(t *testing.T) {
	ctx := context.Background()
	page, h := newPage(t)
	h.SetTitle("Sign in")
	h.SetURL("https://ex.com/login?next=%2F")

	title, err := page.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sign in", title)

	url, err := page.URL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://ex.com/login?next=%2F", url)
}

func TestPage_TakeScreenshot(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		page, h := newPage(t, pageobject.WithScreenshotDir("/tmp"))

		path, err := page.TakeScreenshot(ctx, "shot1")
		require.NoError(t, err)

		assert.Equal(t, "/tmp/shot1.png", path)
		assert.Equal(t, []pageobjecttest.ScreenshotCall{{Path: "/tmp/shot1.png", FullPage: true}}, h.Screenshots())
	})

	t.Run("viewport only", func(t *testing.T) {
		page, h := newPage(t, pageobject.WithScreenshotDir("/tmp"))

		_, err := page.TakeScreenshot(ctx, "fold", pageobject.FullPage(false))
		require.NoError(t, err)
		assert.False(t, h.Screenshots()[0].FullPage)
	})

	t.Run("page default off", func(t *testing.T) {
		page, h := newPage(t, pageobject.WithFullPageScreenshots(false))

		_, err := page.TakeScreenshot(ctx, "fold")
		require.NoError(t, err)
		assert.False(t, h.Screenshots()[0].FullPage)
	})

	t.Run("writes into configured dir", func(t *testing.T) {
		dir := t.TempDir()
		page, h := newPage(t, pageobject.WithScreenshotDir(dir))
		h.WriteScreenshots = true

		path, err := page.TakeScreenshot(ctx, "home")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "home.png"), path)
		assert.FileExists(t, path)
	})

	t.Run("unwritable dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "missing")
		page, h := newPage(t, pageobject.WithScreenshotDir(dir))
		h.WriteScreenshots = true

		_, err := page.TakeScreenshot(ctx, "home")
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestPage_WaitForElement(t *testing.T) {
	ctx := context.Background()

	t.Run("times out", func(t *testing.T) {
		page, _ := newPage(t)

		start := time.Now()
		err := page.WaitForElement(ctx, "#late", pageobject.WithTimeout(100*time.Millisecond))

		require.Error(t, err)
		assert.True(t, pageobject.IsTimeout(err))
		assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("present", func(t *testing.T) {
		page, h := newPage(t)
		h.SetElement("#ready", pageobjecttest.Element{})

		start := time.Now()
		require.NoError(t, page.WaitForElement(ctx, "#ready", pageobject.WithTimeout(100*time.Millisecond)))
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("appears while waiting", func(t *testing.T) {
		page, h := newPage(t)
		go func() {
			time.Sleep(30 * time.Millisecond)
			h.SetElement("#late", pageobjecttest.Element{Visible: true})
		}()

		assert.NoError(t, page.WaitForElement(ctx, "#late", pageobject.WithTimeout(time.Second)))
	})

	t.Run("parent cancellation is not a timeout", func(t *testing.T) {
		page, _ := newPage(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		err := page.WaitForElement(cctx, "#never")
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, pageobject.IsTimeout(err))
	})
}

func TestPage_WaitForURL(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		pattern pageobject.URLPattern
		url     string
	}{
		{"literal", pageobject.ExactURL("https://ex.com/dashboard"), "https://ex.com/dashboard"},
		{"regexp", pageobject.RegexpURL(regexp.MustCompile(`/dash\w+$`)), "https://ex.com/dashboard"},
		{"glob", pageobject.MustGlobURL("**/dashboard"), "https://ex.com/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, h := newPage(t)
			h.SetURL(tt.url)

			assert.NoError(t, page.WaitForURL(ctx, tt.pattern, pageobject.WithTimeout(100*time.Millisecond)))
		})
	}

	t.Run("times out", func(t *testing.T) {
		page, h := newPage(t)
		h.SetURL("https://ex.com/login")

		err := page.WaitForURL(ctx, pageobject.ExactURL("https://ex.com/dashboard"), pageobject.WithTimeout(50*time.Millisecond))
		assert.True(t, pageobject.IsTimeout(err))
	})
}

func TestPage_ScrollToElement(t *testing.T) {
	ctx := context.Background()
	page, h := newPage(t)
	h.SetElement("#footer", pageobjecttest.Element{Visible: true})

	require.NoError(t, page.ScrollToElement(ctx, "#footer"))
	assert.Contains(t, h.Calls(), "scroll #footer")

	err := page.ScrollToElement(ctx, "#nothing")
	assert.ErrorIs(t, err, pageobject.ErrNotFound)
}

func TestPage_IsElementVisible(t *testing.T) {
	ctx := context.Background()
	page, h := newPage(t)
	h.SetElement("#shown", pageobjecttest.Element{Visible: true})
	h.SetElement("#hidden", pageobjecttest.Element{Visible: false})

	tests := []struct {
		selector string
		want     bool
	}{
		{"#shown", true},
		{"#hidden", false},
		{"#absent", false},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			visible, err := page.IsElementVisible(ctx, tt.selector)
			require.NoError(t, err)
			assert.Equal(t, tt.want, visible)
		})
	}
}

func TestPage_Text(t *testing.T) {
	ctx := context.Background()
	page, h := newPage(t)
	h.SetElement("#greeting", pageobjecttest.Element{Text: pageobjecttest.Text("Hello")})
	h.SetElement("#null", pageobjecttest.Element{Text: nil})

	text, err := page.Text(ctx, "#greeting")
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)

	text, err = page.Text(ctx, "#null")
	require.NoError(t, err)
	assert.Equal(t, "", text)

	_, err = page.Text(ctx, "#absent")
	assert.ErrorIs(t, err, pageobject.ErrNotFound)
}

func TestPage_ClickAndFill(t *testing.T) {
	ctx := context.Background()
	page, h := newPage(t)
	h.SetElement("#email", pageobjecttest.Element{Visible: true})
	h.SetElement("#submit", pageobjecttest.Element{Visible: true})
	h.SetElement("#disabled", pageobjecttest.Element{Visible: true, Disabled: true})
	h.SetElement("#invisible", pageobjecttest.Element{Visible: false})

	require.NoError(t, page.Fill(ctx, "#email", "user@example.com"))
	el, _ := h.Element("#email")
	assert.Equal(t, "user@example.com", el.Value)

	require.NoError(t, page.Click(ctx, "#submit"))

	assert.ErrorIs(t, page.Click(ctx, "#disabled"), pageobject.ErrNotActionable)
	assert.ErrorIs(t, page.Fill(ctx, "#invisible", "x"), pageobject.ErrNotActionable)
	assert.ErrorIs(t, page.Click(ctx, "#absent"), pageobject.ErrNotFound)
}

func TestPage_CheckUncheck(t *testing.T) {
	ctx := context.Background()
	page, h := newPage(t)
	h.SetElement("#remember-me", pageobjecttest.Element{Visible: true})

	require.NoError(t, page.Check(ctx, "#remember-me"))
	checked, err := page.IsChecked(ctx, "#remember-me")
	require.NoError(t, err)
	assert.True(t, checked)

	require.NoError(t, page.Uncheck(ctx, "#remember-me"))
	checked, err = page.IsChecked(ctx, "#remember-me")
	require.NoError(t, err)
	assert.False(t, checked)
}

func TestPage_FillForm(t *testing.T) {
	ctx := context.Background()
	page, h := newPage(t)
	h.SetElement("#email", pageobjecttest.Element{Visible: true})
	h.SetElement("#name", pageobjecttest.Element{Visible: true})

	selectors := map[string]string{"email": "#email", "name": "#name"}
	err := page.FillForm(ctx, selectors, map[string]string{
		"email":   "test@example.com",
		"name":    "John",
		"unknown": "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"fill #email", "fill #name"}, h.Calls())
	el, _ := h.Element("#name")
	assert.Equal(t, "John", el.Value)
}
