package homework

import (
	"fmt"

	"homework-notifier/pkg/notifier"
)

// Format renders the notification text for a single submission.
func Format(s notifier.Submission) (string, error) {
	if s.Name == "" {
		return "", &notifier.UnknownStatusError{Status: s.Status}
	}
	verdict, ok := notifier.Verdict(s.Status)
	if !ok {
		return "", &notifier.UnknownStatusError{Name: s.Name, Status: s.Status}
	}
	return fmt.Sprintf("Изменился статус проверки работы \"%s\". %s", s.Name, verdict), nil
}

// FailureMessage renders the operator message for a failed cycle.
func FailureMessage(err error) string {
	return fmt.Sprintf("Сбой в работе: %v", err)
}
