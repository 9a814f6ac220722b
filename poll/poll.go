// Package poll runs the fetch, validate and notify cycle on a fixed interval.
package poll

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"homework-notifier/homework"
	"homework-notifier/pkg/notifier"
)

// Fetcher interface for querying the status API.
type Fetcher interface {
	Fetch(ctx context.Context, cursor int64) (notifier.Payload, error)
}

// Notifier interface for delivering chat messages. Delivery failures are
// handled by the implementation; the result only reports success.
type Notifier interface {
	Notify(ctx context.Context, text string) bool
}

// State is the phase of the poll loop.
type State int

// Loop phases.
const (
	StateIdle State = iota
	StateFetching
	StateValidating
	StateNotifying
	StateSleeping
	StateFailing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateValidating:
		return "validating"
	case StateNotifying:
		return "notifying"
	case StateSleeping:
		return "sleeping"
	case StateFailing:
		return "failing"
	default:
		return "unknown"
	}
}

// Status is a point-in-time copy of the loop state.
type Status struct {
	LastCycleAt   time.Time
	LastSuccessAt time.Time
	LastError     string
	LastErrorKind notifier.ErrorKind
	State         State
	Cursor        int64
	Cycles        int
	Failures      int
	Notifications int
}

// Monitor owns the time cursor and drives poll cycles.
type Monitor struct {
	fetcher  Fetcher
	notifier Notifier
	logger   *slog.Logger
	wake     chan struct{}
	interval time.Duration

	// lastReported is the last failure message delivered to the operator.
	// Only the loop goroutine touches it.
	lastReported string

	mu     sync.Mutex
	status Status
}

// New creates a monitor whose cursor starts at the current time.
func New(fetcher Fetcher, n Notifier, interval time.Duration, logger *slog.Logger) *Monitor {
	return &Monitor{
		fetcher:  fetcher,
		notifier: n,
		logger:   logger,
		wake:     make(chan struct{}, 1),
		interval: interval,
		status: Status{
			State:  StateIdle,
			Cursor: time.Now().Unix(),
		},
	}
}

// Run polls until ctx is cancelled. Cycle failures never stop the loop.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("Poll loop started",
		"interval", m.interval.String(),
		"cursor", m.Snapshot().Cursor)

	for {
		if err := m.Cycle(ctx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}

		timer := time.NewTimer(m.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			m.logger.Info("Poll loop stopped", "error", ctx.Err())
			return ctx.Err()
		case <-m.wake:
			timer.Stop()
			m.logger.Info("Poll loop woken early")
		case <-timer.C:
		}
	}
}

// Trigger wakes a sleeping loop so the next cycle starts immediately.
// It never starts a cycle of its own.
func (m *Monitor) Trigger() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the current loop state.
func (m *Monitor) Snapshot() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Cycle runs one fetch, validate and notify pass and applies the failure
// policy. It returns the cycle's error after it has been handled.
func (m *Monitor) Cycle(ctx context.Context) error {
	logger := m.logger.With("cycle_id", uuid.NewString())
	startTime := time.Now()

	m.update(func(s *Status) {
		s.State = StateIdle
		s.Cycles++
		s.LastCycleAt = startTime
	})

	notified, err := m.runCycle(ctx, logger)

	if err != nil && ctx.Err() != nil {
		// Shutting down: the failure is ours, not upstream's.
		m.setState(StateSleeping)
		return err
	}

	if err != nil {
		m.fail(ctx, logger, err)
	} else {
		m.lastReported = ""
		m.update(func(s *Status) {
			s.LastSuccessAt = time.Now()
			s.LastError = ""
			s.LastErrorKind = ""
		})
	}

	m.setState(StateSleeping)
	logger.Info("Poll cycle completed",
		"notified", notified,
		"cursor", m.Snapshot().Cursor,
		"ok", err == nil,
		"duration_ms", time.Since(startTime).Milliseconds())

	return err
}

func (m *Monitor) runCycle(ctx context.Context, logger *slog.Logger) (int, error) {
	cursor := m.Snapshot().Cursor

	m.setState(StateFetching)
	payload, err := m.fetcher.Fetch(ctx, cursor)
	if err != nil {
		return 0, err
	}

	m.setState(StateValidating)
	subs, validateErr := homework.ExtractPending(payload)

	// A response without a usable submission list says nothing about the
	// window it covers, so the cursor stays put.
	var recordErr *homework.RecordError
	if validateErr != nil && !errors.As(validateErr, &recordErr) {
		return 0, validateErr
	}

	logger.Info("Response validated",
		"pending", len(subs),
		"rejected_entries", validateErr != nil,
		"from_date", cursor)

	var notified int
	var formatErrs []error
	if len(subs) > 0 {
		m.setState(StateNotifying)
	}
	for _, sub := range subs {
		text, err := homework.Format(sub)
		if err != nil {
			formatErrs = append(formatErrs, err)
			continue
		}
		delivered := m.notifier.Notify(ctx, text)
		if delivered {
			notified++
		}
		logger.Info("Status change forwarded", "homework", sub.Name, "status", sub.Status, "delivered", delivered)
	}

	m.update(func(s *Status) { s.Notifications += notified })

	if next, ok := homework.CurrentDate(payload); ok {
		m.update(func(s *Status) { s.Cursor = next })
		logger.Debug("Cursor advanced", "from", cursor, "to", next)
	} else {
		logger.Warn("Response has no current_date, cursor unchanged", "cursor", cursor)
	}

	return notified, errors.Join(append([]error{validateErr}, formatErrs...)...)
}

// fail logs err and reports it to the operator chat unless the same failure
// was the last one reported.
func (m *Monitor) fail(ctx context.Context, logger *slog.Logger, err error) {
	m.setState(StateFailing)

	kind := notifier.Kind(err)
	m.update(func(s *Status) {
		s.Failures++
		s.LastError = err.Error()
		s.LastErrorKind = kind
	})

	if notifier.Recoverable(err) {
		logger.Error("Poll cycle failed", "kind", kind, "error", err)
	} else {
		logger.Error("Poll cycle failed with unexpected error", "kind", kind, "error", err)
	}

	msg := homework.FailureMessage(err)
	if msg == m.lastReported {
		logger.Info("Failure already reported to operator, not notifying again", "kind", kind)
		return
	}

	if m.notifier.Notify(ctx, msg) {
		m.lastReported = msg
	}
}

func (m *Monitor) setState(state State) {
	m.update(func(s *Status) { s.State = state })
}

func (m *Monitor) update(fn func(*Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.status)
}
