package retry

import (
	"encoding/json"
	"fmt"
	"time"
)

/* Job is one attempt of a retryable unit of work
 * The ID stays the same across attempts, the Attempt number grows
 * MaxAttempts is captured at submission so a later policy change
 * does not move the cap of work already in flight
 */
type Job struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	Attempt     int             `json:"attempt"`
	MaxAttempts int             `json:"max_attempts"`
	Payload     json.RawMessage `json:"payload"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
	LastError   string          `json:"last_error,omitempty"`
}

// Next returns the job for the following attempt
func (j Job) Next(cause error, now time.Time) Job {
	next := j
	next.Attempt = j.Attempt + 1
	next.EnqueuedAt = now
	if cause != nil {
		next.LastError = cause.Error()
	}
	return next
}

// Decode unmarshals the payload into v
func (j Job) Decode(v interface{}) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", j.Kind, err)
	}
	return nil
}

// Delivery is a job handed out by a queue, Receipt is what Ack needs
type Delivery struct {
	Job     Job
	Receipt string
}
