// Package errs provides common errors thrown in the app that are expected to be caught upstream
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrSubscriptionFailed = errors.New("subscription to host events failed")
	ErrCommandRejected    = errors.New("host rejected command")
	ErrMalformedPayload   = errors.New("malformed event payload")
	ErrHostUnavailable    = errors.New("host not reachable")
)

// CommandError is returned when the host acknowledges a command with a failure.
type CommandError struct {
	Command string
	Token   string
	Reason  string
}

func (e *CommandError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s (token %s): %s", e.Command, e.Token, ErrCommandRejected)
	}
	return fmt.Sprintf("%s (token %s): %s: %s", e.Command, e.Token, ErrCommandRejected, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return ErrCommandRejected
}

// Kind returns a short user facing label for the known error classes.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSubscriptionFailed):
		return "Subscription Failed"
	case errors.Is(err, ErrCommandRejected):
		return "Command Rejected"
	case errors.Is(err, ErrMalformedPayload):
		return "Malformed Payload"
	case errors.Is(err, ErrHostUnavailable):
		return "Host Unavailable"
	}
	return "Error"
}
