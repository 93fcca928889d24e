package retry

import (
	"fmt"
	"time"
)

/* Policy is the retry contract of one call site
 * Attempts are 1-based; attempt n that fails waits Schedule[min(n-1, len-1)]
 * before attempt n+1 runs, so the last delay is reused when the schedule is short
 */
type Policy struct {
	MaxAttempts int
	Schedule    []time.Duration
	Timeout     time.Duration
}

// Validate checks the policy is usable
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}

	if p.MaxAttempts > 1 && len(p.Schedule) == 0 {
		return fmt.Errorf("backoff schedule is required when max attempts is %d", p.MaxAttempts)
	}

	for i, d := range p.Schedule {
		if d < 0 {
			return fmt.Errorf("backoff delay %d is negative: %s", i, d)
		}
	}

	if p.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", p.Timeout)
	}

	return nil
}

// Delay returns how long to wait after the given failed attempt
func (p Policy) Delay(attempt int) time.Duration {
	if len(p.Schedule) == 0 {
		return 0
	}

	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx > len(p.Schedule)-1 {
		idx = len(p.Schedule) - 1
	}

	return p.Schedule[idx]
}
