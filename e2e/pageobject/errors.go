package pageobject

import (
	"errors"
	"fmt"
	"time"

	"github.com/gti/pagekit/internal/poll"
)

var (
	// ErrTimeout marks a wait whose condition did not hold before its deadline.
	ErrTimeout = poll.ErrTimeout

	// ErrNotFound marks an operation whose selector matched no element.
	ErrNotFound = errors.New("element not found")

	// ErrNotActionable marks an interaction with an element that is hidden,
	// disabled or otherwise unable to receive input.
	ErrNotActionable = errors.New("element not actionable")

	// ErrAssertion marks a failed Expect* call.
	ErrAssertion = errors.New("assertion failed")
)

// AssertionError describes an expectation that did not become true within
// its polling timeout.
type AssertionError struct {
	// Assertion names the check, e.g. "ToBeVisible" or "ToHaveURL".
	Assertion string

	// Selector is the element the check targeted; empty for page-level checks.
	Selector string

	// Expected is the value the check waited for.
	Expected any

	// Actual is the last value observed before giving up.
	Actual any

	// Timeout is how long the check polled.
	Timeout time.Duration

	// Err is the last operational error seen while polling, if any.
	Err error
}

func (e *AssertionError) Error() string {
	target := "page"
	if e.Selector != "" {
		target = fmt.Sprintf("locator(%q)", e.Selector)
	}
	msg := fmt.Sprintf("expect(%s).%s: expected %v, got %v after %v", target, e.Assertion, e.Expected, e.Actual, e.Timeout)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports ErrAssertion as a match so callers can use errors.Is.
func (e *AssertionError) Is(target error) bool {
	return target == ErrAssertion
}

func (e *AssertionError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a timeout-kind failure.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsAssertion reports whether err is an assertion-kind failure.
func IsAssertion(err error) bool {
	return errors.Is(err, ErrAssertion)
}
