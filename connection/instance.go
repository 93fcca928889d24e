package connection

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// State is the connection state of a messaging instance
type State string

const (
	Connected    State = "connected"
	Connecting   State = "connecting"
	Disconnected State = "disconnected"
)

var (
	// ErrInstanceNotFound is returned when an instance was never registered
	ErrInstanceNotFound = errors.New("instance not found")
	// ErrUnknownState is returned for provider states with no mapping
	ErrUnknownState = errors.New("unknown connection state")
)

// Instance is a tenant's messaging channel at the provider
type Instance struct {
	ID         string
	TenantID   string
	State      State
	LastSeenAt time.Time
}

// Validate checks a state value
func (s State) Validate() error {
	switch s {
	case Connected, Connecting, Disconnected:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownState, string(s))
}

// FromProvider maps the provider vocabulary onto State
//
//	open       -> connected
//	connecting -> connecting
//	close      -> disconnected
func FromProvider(state string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "open":
		return Connected, nil
	case "connecting":
		return Connecting, nil
	case "close", "closed":
		return Disconnected, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownState, state)
}
