// Package homework validates status API responses and renders notifications.
package homework

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"homework-notifier/pkg/notifier"
)

const (
	homeworksKey   = "homeworks"
	currentDateKey = "current_date"
)

// ExtractPending returns the submissions in p that need a notification, in
// the order received.
//
// Every entry is checked. Entries that fail validation are left out and
// described by the returned error; the valid entries are still returned so
// the caller can deliver them. An empty list yields nil, nil.
func ExtractPending(p notifier.Payload) ([]notifier.Submission, error) {
	raw, ok := p[homeworksKey]
	if !ok {
		return nil, &notifier.MalformedResponseError{Reason: fmt.Sprintf("missing %q key", homeworksKey)}
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, &notifier.MalformedResponseError{Reason: fmt.Sprintf("%q is %T, not a list", homeworksKey, raw)}
	}

	if len(list) == 0 {
		return nil, nil
	}

	var subs []notifier.Submission
	var errs []error
	for i, item := range list {
		sub, err := parseSubmission(item)
		if err != nil {
			errs = append(errs, &RecordError{Index: i, Err: err})
			continue
		}
		subs = append(subs, sub)
	}

	return subs, errors.Join(errs...)
}

// RecordError describes a single submission entry that failed validation.
type RecordError struct {
	Err   error
	Index int
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s[%d]: %v", homeworksKey, e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

func parseSubmission(item any) (notifier.Submission, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return notifier.Submission{}, &notifier.MalformedResponseError{Reason: fmt.Sprintf("entry is %T, not an object", item)}
	}

	status, ok := obj["status"].(string)
	if !ok {
		return notifier.Submission{}, &notifier.MalformedResponseError{Reason: "entry has no string status"}
	}

	// The name is checked by Format.
	name, _ := obj["homework_name"].(string)

	if _, known := notifier.Verdict(notifier.Status(status)); !known {
		return notifier.Submission{}, &notifier.UnknownStatusError{Name: name, Status: notifier.Status(status)}
	}

	return notifier.Submission{Name: name, Status: notifier.Status(status)}, nil
}

// CurrentDate returns the server-reported timestamp in p, if present and integral.
func CurrentDate(p notifier.Payload) (int64, bool) {
	switch v := p[currentDateKey].(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}
