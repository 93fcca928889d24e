package notification

import (
	"context"
	"errors"
	"time"
)

// ErrTargetNotFound is returned by a TargetLoader when the entity is gone
var ErrTargetNotFound = errors.New("notification target not found")

// ErrUnsupportedTemplate is returned when a template key has no renderer
var ErrUnsupportedTemplate = errors.New("unsupported template key")

// Target is the entity a message is about, loaded fresh on every attempt
type Target struct {
	ID           string
	TenantID     string
	Instance     string
	Phone        string
	CustomerName string
	OrderCode    string
	StoreName    string
}

// Request is one send command, JobID and Attempt come from the retry job
type Request struct {
	TargetID    string `json:"target_id"`
	TemplateKey string `json:"template_key"`
	JobID       string `json:"-"`
	Attempt     int    `json:"-"`
}

// Message is what goes to the provider
type Message struct {
	Instance string
	Number   string
	Text     string
}

// Result is the provider answer for a call that reached it
// Anything but an explicit acceptance is a soft failure
type Result struct {
	Accepted  bool
	MessageID string
	Status    string
	Reason    string
}

// Outcome of one attempt
type Outcome string

const (
	OutcomeSent        Outcome = "sent"
	OutcomeRejected    Outcome = "rejected"
	OutcomeError       Outcome = "error"
	OutcomeUnsupported Outcome = "unsupported"
	OutcomeExhausted   Outcome = "exhausted"
)

// Attempt is the delivery record of one attempt
type Attempt struct {
	JobID       string    `json:"job_id"`
	TargetID    string    `json:"target_id"`
	TenantID    string    `json:"tenant_id,omitempty"`
	TemplateKey string    `json:"template_key"`
	Attempt     int       `json:"attempt"`
	Outcome     Outcome   `json:"outcome"`
	MessageID   string    `json:"message_id,omitempty"`
	Error       string    `json:"error,omitempty"`
	At          time.Time `json:"at"`
}

// Provider sends text messages through the messaging provider
type Provider interface {
	// SendText returns an error only when the call itself faulted
	// (transport error, timeout, 5xx, rate limit, open breaker)
	SendText(ctx context.Context, msg Message) (Result, error)
}

// TargetLoader reads the current state of a target
type TargetLoader interface {
	Load(ctx context.Context, targetID string) (Target, error)
}

// AttemptRecorder keeps the per-target delivery history
type AttemptRecorder interface {
	Record(ctx context.Context, a Attempt) error
	List(ctx context.Context, targetID string, limit int64) ([]Attempt, error)
}
