package billing

import (
	"context"
	"errors"
)

// ErrDeclined is returned when the billing service refused the charge
var ErrDeclined = errors.New("charge declined")

// ErrSubscriptionNotFound is returned for unknown subscriptions
var ErrSubscriptionNotFound = errors.New("subscription not found")

// Retry is the payload of a payment.retry job
type Retry struct {
	SubscriptionID string `json:"subscription_id"`
	TenantID       string `json:"tenant_id"`
}

// Charge is the billing service answer for a paid charge
type Charge struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Charger asks the billing service to charge a subscription again
type Charger interface {
	Charge(ctx context.Context, subscriptionID string) (Charge, error)
}

// Suspender downgrades a subscription once its payment retries are exhausted
type Suspender interface {
	// Suspend returns false when the subscription was already suspended
	Suspend(ctx context.Context, subscriptionID, reason string) (bool, error)
}

// Notifier queues an outbound notification
type Notifier interface {
	Notify(ctx context.Context, targetID, templateKey string) error
}
