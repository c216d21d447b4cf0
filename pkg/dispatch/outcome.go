package dispatch

import (
	"errors"

	"github.com/voicedesk/redial/pkg/backoff"
)

// Outcome is the dispatcher's interpretation of one executed attempt.
type Outcome struct {
	Success bool
	Class   backoff.Class // failure class; zero value when Success
	Reason  string        // human-readable failure reason
}

type classifiedError struct {
	class backoff.Class
	err   error
}

func (e *classifiedError) Error() string {
	return e.err.Error()
}

func (e *classifiedError) Unwrap() error {
	return e.err
}

// Permanent marks a handler error as a permanent failure: stop immediately
// and surface to the owner. Use for malformed payloads, 4xx validation
// errors, unknown recipients.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{class: backoff.ClassPermanent, err: err}
}

// Blocked marks a handler error as a policy block: stop immediately without
// surfacing an error. Use for opt-outs and owner-disabled targets.
func Blocked(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{class: backoff.ClassPolicyBlocked, err: err}
}

// Transient marks a handler error as retryable. Unclassified errors are
// already treated as transient; the wrapper exists for call sites that want
// to be explicit.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{class: backoff.ClassTransient, err: err}
}

// ClassOf extracts the failure class from a handler error. Anything not
// explicitly classified is transient: when in doubt the engine retries rather
// than dropping work.
func ClassOf(err error) backoff.Class {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.class
	}
	return backoff.ClassTransient
}

// IsPermanent reports whether the error carries a permanent classification.
func IsPermanent(err error) bool {
	return ClassOf(err) == backoff.ClassPermanent
}

// IsBlocked reports whether the error carries a policy-block classification.
func IsBlocked(err error) bool {
	return ClassOf(err) == backoff.ClassPolicyBlocked
}
