package notifier

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures that can end a poll cycle.
type ErrorKind string

// Error kinds, used as the "kind" log attribute.
const (
	KindFetch         ErrorKind = "fetch"
	KindMalformed     ErrorKind = "malformed_response"
	KindUnknownStatus ErrorKind = "unknown_status"
	KindNotify        ErrorKind = "notify"
	KindUnexpected    ErrorKind = "unexpected"
)

// FetchError indicates the status API could not be queried or answered
// with something other than a JSON object.
type FetchError struct {
	Err        error
	URL        string
	StatusCode int // 0 when no response was received
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MalformedResponseError indicates the response JSON lacks the expected shape.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed response: " + e.Reason
}

// UnknownStatusError indicates a submission that cannot be rendered:
// its status is not in the catalog or it has no name.
type UnknownStatusError struct {
	Name   string
	Status Status
}

func (e *UnknownStatusError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("submission has no name (status %q)", e.Status)
	}
	return fmt.Sprintf("unknown status %q for submission %q", e.Status, e.Name)
}

// NotifyError indicates the messaging sink rejected a message.
// It never leaves the telegram package.
type NotifyError struct {
	Err    error
	ChatID int64
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify chat %d: %v", e.ChatID, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }

// IsFetchError checks if an error is a FetchError.
func IsFetchError(err error) bool {
	var target *FetchError
	return errors.As(err, &target)
}

// IsMalformedResponse checks if an error is a MalformedResponseError.
func IsMalformedResponse(err error) bool {
	var target *MalformedResponseError
	return errors.As(err, &target)
}

// IsUnknownStatus checks if an error is an UnknownStatusError.
func IsUnknownStatus(err error) bool {
	var target *UnknownStatusError
	return errors.As(err, &target)
}

// Kind reports the kind of err. Joined errors report the kind of the first
// classified member.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case IsFetchError(err):
		return KindFetch
	case IsMalformedResponse(err):
		return KindMalformed
	case IsUnknownStatus(err):
		return KindUnknownStatus
	}
	var notify *NotifyError
	if errors.As(err, &notify) {
		return KindNotify
	}
	return KindUnexpected
}

// Recoverable reports whether err is one of the upstream failures the poll
// loop is expected to ride out.
func Recoverable(err error) bool {
	switch Kind(err) {
	case KindFetch, KindMalformed, KindUnknownStatus:
		return true
	default:
		return false
	}
}
