// Package notifier contains the core domain types for the homework status notifier.
package notifier

// Status is the review state reported for a homework submission.
type Status string

// Known review states.
const (
	StatusApproved  Status = "approved"
	StatusReviewing Status = "reviewing"
	StatusRejected  Status = "rejected"
)

// verdicts maps every known status to the text shown to the student.
var verdicts = map[Status]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена, в ней нашлись ошибки.",
}

// Verdict returns the display text for a status and whether the status is known.
func Verdict(s Status) (string, bool) {
	v, ok := verdicts[s]
	return v, ok
}

// Statuses returns the known statuses in a stable order.
func Statuses() []Status {
	return []Status{StatusApproved, StatusReviewing, StatusRejected}
}

// Submission is one homework review unit reported by the upstream API.
type Submission struct {
	Name   string `json:"homework_name"`
	Status Status `json:"status"`
}

// Payload is a decoded JSON object returned by the status API.
type Payload map[string]any
