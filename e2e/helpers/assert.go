// Package helpers provides narrowly-scoped utilities for E2E testing.
package helpers

import (
	"testing"

	"github.com/gti/pagekit/e2e/pageobject"
	"github.com/stretchr/testify/assert"
)

// Assert provides assertion capabilities for E2E tests.
//
// This is a thin wrapper around testify/assert to provide a consistent
// interface for E2E test assertions. All assertions log failures but
// do not stop test execution (use require package for fatal assertions).
//
// Usage:
//
//	a := NewAssert(t)
//	a.NoError(login.Login(ctx, "test@example.com", "testpassword123", false))
//	a.Contains(cookieNames, "session_token", "login should set a session cookie")
type Assert struct {
	t testing.TB
}

// NewAssert creates a new assertion helper for the given test.
func NewAssert(t testing.TB) *Assert {
	return &Assert{t: t}
}

// Equal asserts that expected and actual are equal.
//
//	a.Equal(200, resp.StatusCode)
//	a.Equal("admin", title, "page title")
func (a *Assert) Equal(expected, actual interface{}, msgAndArgs ...interface{}) bool {
	return assert.Equal(a.t, expected, actual, msgAndArgs...)
}

// NotEqual asserts that expected and actual are not equal.
//
//	a.NotEqual("", cookie.Value, "session token should not be empty")
func (a *Assert) NotEqual(expected, actual interface{}, msgAndArgs ...interface{}) bool {
	return assert.NotEqual(a.t, expected, actual, msgAndArgs...)
}

// Nil asserts that the specified object is nil.
//
//	a.Nil(helpers.FindCookie(cookies, "remember_token"), "no remember cookie without remember me")
func (a *Assert) Nil(object interface{}, msgAndArgs ...interface{}) bool {
	return assert.Nil(a.t, object, msgAndArgs...)
}

// NotNil asserts that the specified object is not nil.
//
//	a.NotNil(helpers.FindCookie(cookies, "session_token"))
func (a *Assert) NotNil(object interface{}, msgAndArgs ...interface{}) bool {
	return assert.NotNil(a.t, object, msgAndArgs...)
}

// True asserts that the specified value is true.
//
//	a.True(checked, "remember me should be checked")
func (a *Assert) True(value bool, msgAndArgs ...interface{}) bool {
	return assert.True(a.t, value, msgAndArgs...)
}

// False asserts that the specified value is false.
//
//	a.False(visible, "error message should be hidden")
func (a *Assert) False(value bool, msgAndArgs ...interface{}) bool {
	return assert.False(a.t, value, msgAndArgs...)
}

// NoError asserts that err is nil.
//
//	resp, err := api.Call(ctx, "GET", "/api/health", nil)
//	a.NoError(err, "health check should not return error")
func (a *Assert) NoError(err error, msgAndArgs ...interface{}) bool {
	return assert.NoError(a.t, err, msgAndArgs...)
}

// Error asserts that err is not nil.
//
//	a.Error(login.ExpectLoginSuccessful(ctx), "bad password must not reach the dashboard")
func (a *Assert) Error(err error, msgAndArgs ...interface{}) bool {
	return assert.Error(a.t, err, msgAndArgs...)
}

// Contains asserts that the string s contains the substring.
//
//	a.Contains(msg, "Invalid", "error message should mention invalid input")
func (a *Assert) Contains(s, contains string, msgAndArgs ...interface{}) bool {
	return assert.Contains(a.t, s, contains, msgAndArgs...)
}

// NotContains asserts that the string s does not contain the substring.
//
//	a.NotContains(url, "/login", "should have left the login page")
func (a *Assert) NotContains(s, contains string, msgAndArgs ...interface{}) bool {
	return assert.NotContains(a.t, s, contains, msgAndArgs...)
}

// Len asserts that the specified object has the expected length.
//
//	a.Len(cookies, 2, "session and remember cookies")
func (a *Assert) Len(object interface{}, length int, msgAndArgs ...interface{}) bool {
	return assert.Len(a.t, object, length, msgAndArgs...)
}

// Empty asserts that the specified object is empty.
//
//	a.Empty(msg, "no error message expected")
func (a *Assert) Empty(object interface{}, msgAndArgs ...interface{}) bool {
	return assert.Empty(a.t, object, msgAndArgs...)
}

// NotEmpty asserts that the specified object is not empty.
//
//	a.NotEmpty(path, "screenshot path")
func (a *Assert) NotEmpty(object interface{}, msgAndArgs ...interface{}) bool {
	return assert.NotEmpty(a.t, object, msgAndArgs...)
}

// Timeout asserts that err is a wait that ran out of time.
//
//	a.Timeout(page.WaitForElement(ctx, "#never", pageobject.WithTimeout(time.Second)))
func (a *Assert) Timeout(err error, msgAndArgs ...interface{}) bool {
	a.t.Helper()
	if !pageobject.IsTimeout(err) {
		return assert.Fail(a.t, "expected a timeout error, got: "+errString(err), msgAndArgs...)
	}
	return true
}

// AssertionFailed asserts that err is a failed Expect* call.
//
//	a.AssertionFailed(login.ExpectLoginSuccessful(ctx))
func (a *Assert) AssertionFailed(err error, msgAndArgs ...interface{}) bool {
	a.t.Helper()
	if !pageobject.IsAssertion(err) {
		return assert.Fail(a.t, "expected an assertion error, got: "+errString(err), msgAndArgs...)
	}
	return true
}

func errString(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}
