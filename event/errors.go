package event

import "errors"

var (
	// ErrNotFound is returned when an event id is not in the inbox
	ErrNotFound = errors.New("event not found")
	// ErrInvalidTransition is returned when a status change breaks the lifecycle
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrClaimHeld is returned while another dispatch holds a live claim on the event
	ErrClaimHeld = errors.New("event claimed by another dispatch")
)
