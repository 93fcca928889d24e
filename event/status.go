package event

import "fmt"

/* Status represents the processing state of an integration event
 * Follows the lifecycle: Pending -> Processing -> Processed/Failed
 * A Failed event may go back to Processing when it is retried
 */
type Status int

const (
	Pending Status = iota + 1
	Processing
	Processed
	Failed
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Processing:
		return "processing"
	case Processed:
		return "processed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// NewStatus creates a Status from a string
func NewStatus(str string) Status {
	switch str {
	case "pending":
		return Pending
	case "processing":
		return Processing
	case "processed":
		return Processed
	case "failed":
		return Failed
	default:
		return Pending
	}
}

// Validate checks if the status is valid
func (s Status) Validate() error {
	if s < Pending || s > Failed {
		return fmt.Errorf("invalid status: %d", s)
	}
	return nil
}

// IsFinal returns true if the status can no longer change
func (s Status) IsFinal() bool {
	return s == Processed
}

// CanTransitionTo reports whether moving from s to next is allowed
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case Pending:
		return next == Processing || next == Failed
	case Processing:
		return next == Processed || next == Failed
	case Failed:
		return next == Processing || next == Failed
	default:
		return false
	}
}

// ValidateTransition checks every allowed source status against the lifecycle
func ValidateTransition(from []Status, to Status) error {
	if err := to.Validate(); err != nil {
		return err
	}
	for _, s := range from {
		if !s.CanTransitionTo(to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, to)
		}
	}
	return nil
}

// AllStatuses lists every valid status, used for index keys and metrics
func AllStatuses() []Status {
	return []Status{Pending, Processing, Processed, Failed}
}

// Strings converts a list of statuses to their string form
func Strings(statuses []Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, s.String())
	}
	return out
}
