package policies

import (
	"fmt"
	"time"

	"github.com/marcelsud/integration-pipeline/retry"
)

// Call site names used by the pipeline
const (
	WebhookDispatch  = "webhook.dispatch"
	NotificationSend = "notification.send"
	PaymentRetry     = "payment.retry"
)

/* CallSite is the retry configuration of one outbound call site
 * Backoff is the delay list, the last value is reused once the list runs out
 */
type CallSite struct {
	Name        string
	MaxAttempts int
	Backoff     []time.Duration
	Timeout     time.Duration
}

// Validate checks if the call site configuration is valid
func (c *CallSite) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("call site %s: %w", c.Name, err)
	}
	return nil
}

// Policy converts the call site into a retry policy
func (c *CallSite) Policy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.MaxAttempts,
		Schedule:    append([]time.Duration(nil), c.Backoff...),
		Timeout:     c.Timeout,
	}
}

// Defaults returns the built-in call sites, used when policies.yaml is absent
func Defaults() []*CallSite {
	short := []time.Duration{10 * time.Second, 30 * time.Second, 60 * time.Second}
	return []*CallSite{
		{Name: WebhookDispatch, MaxAttempts: 3, Backoff: short, Timeout: 30 * time.Second},
		{Name: NotificationSend, MaxAttempts: 3, Backoff: short, Timeout: 30 * time.Second},
		{
			Name:        PaymentRetry,
			MaxAttempts: 4,
			Backoff:     []time.Duration{24 * time.Hour, 72 * time.Hour, 168 * time.Hour},
			Timeout:     60 * time.Second,
		},
	}
}
