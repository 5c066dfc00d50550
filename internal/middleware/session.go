package middleware

import (
	"net/http"
	"time"

	"github.com/gti/pagekit/internal/service"
	"github.com/labstack/echo/v4"
)

const (
	SessionCookieName  = "session_token"
	RememberCookieName = "remember_token"
	UserEmailKey       = "user_email"
)

// SessionAuth returns middleware that requires a session and redirects
// anonymous requests to loginPath.
func SessionAuth(authService *service.AuthService, loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Check if already authenticated from SessionAuthOptional
			if IsAuthenticated(c) {
				return next(c)
			}
			if authenticate(c, authService) {
				return next(c)
			}
			return c.Redirect(http.StatusSeeOther, loginPath)
		}
	}
}

// SessionAuthOptional is like SessionAuth but doesn't reject unauthenticated requests
func SessionAuthOptional(authService *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authenticate(c, authService)
			return next(c)
		}
	}
}

// authenticate resolves the session cookie, falling back to the remember
// cookie, and stores the email in the context on success.
func authenticate(c echo.Context, authService *service.AuthService) bool {
	ctx := c.Request().Context()

	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		email, err := authService.ValidateSession(ctx, cookie.Value)
		if err == nil {
			c.Set(UserEmailKey, email)
			return true
		}
		ClearCookie(c, SessionCookieName)
	}

	cookie, err := c.Cookie(RememberCookieName)
	if err != nil {
		return false
	}
	res, err := authService.ResumeSession(ctx, cookie.Value)
	if err != nil {
		ClearCookie(c, RememberCookieName)
		return false
	}

	SetSessionCookie(c, res.SessionToken)
	c.Set(UserEmailKey, res.Email)
	return true
}

// GetUserEmail returns the authenticated user's email from context
func GetUserEmail(c echo.Context) string {
	email, _ := c.Get(UserEmailKey).(string)
	return email
}

// IsAuthenticated returns whether the request has a valid session
func IsAuthenticated(c echo.Context) bool {
	return GetUserEmail(c) != ""
}

// SetSessionCookie sets the browser-session cookie
func SetSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: http.SameSiteLaxMode,
	})
}

// SetRememberCookie sets the persistent remember-me cookie
func SetRememberCookie(c echo.Context, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     RememberCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the named cookie
func ClearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
