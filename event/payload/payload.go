package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// eventTypePattern validates event types: hierarchical, full-stop delimited, [a-zA-Z0-9_.]
var eventTypePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+(\.[a-zA-Z0-9_]+)*$`)

// Envelope is the JSON body the messaging provider posts to the webhook endpoint
type Envelope struct {
	// ID is the provider-side event id, optional
	ID string `json:"id,omitempty"`

	// Event is the type tag, e.g. "connection.update" or "messages.upsert"
	Event string `json:"event"`

	// Instance identifies the provider instance (one per tenant phone line)
	Instance string `json:"instance,omitempty"`

	// Data is the event specific body, kept opaque
	Data json.RawMessage `json:"data,omitempty"`

	// APIKey is the body fallback for callers that cannot sign requests
	APIKey string `json:"api_key,omitempty"`
}

// UnmarshalJSON accepts the aliases the provider uses across versions:
// "event_type" for "event", "source" for "instance", and numeric ids
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID        json.RawMessage `json:"id"`
		Event     string          `json:"event"`
		EventType string          `json:"event_type"`
		Instance  string          `json:"instance"`
		Source    string          `json:"source"`
		Data      json.RawMessage `json:"data"`
		APIKey    string          `json:"api_key"`
		APIKeyAlt string          `json:"apikey"`
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("unmarshaling envelope: %w", err)
	}

	id, err := rawID(aux.ID)
	if err != nil {
		return err
	}

	e.ID = id
	e.Event = firstNonEmpty(aux.Event, aux.EventType)
	e.Instance = firstNonEmpty(aux.Instance, aux.Source)
	e.Data = aux.Data
	e.APIKey = firstNonEmpty(aux.APIKey, aux.APIKeyAlt)
	return nil
}

// Validate checks the fields the pipeline relies on
func (e Envelope) Validate() error {
	if e.Event == "" {
		return fmt.Errorf("event is required")
	}

	if err := ValidateEventType(NormalizeEventType(e.Event)); err != nil {
		return err
	}

	if e.Instance == "" {
		return fmt.Errorf("instance is required")
	}

	if len(e.Data) > 0 && !json.Valid(e.Data) {
		return fmt.Errorf("data must be valid JSON")
	}

	return nil
}

// EventType returns the normalized event type
func (e Envelope) EventType() string {
	return NormalizeEventType(e.Event)
}

// DecodeData unmarshals the data field into v
func (e Envelope) DecodeData(v interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("data is empty")
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decoding data: %w", err)
	}
	return nil
}

// Parse parses and validates a raw webhook body
func Parse(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshaling payload: %w", err)
	}

	if err := env.Validate(); err != nil {
		return Envelope{}, fmt.Errorf("validating payload: %w", err)
	}

	return env, nil
}

// NormalizeEventType lowercases and trims an event type
// Constant style tags such as CONNECTION_UPDATE become connection.update
func NormalizeEventType(eventType string) string {
	eventType = strings.TrimSpace(eventType)
	if eventType == strings.ToUpper(eventType) && !strings.Contains(eventType, ".") {
		eventType = strings.ReplaceAll(eventType, "_", ".")
	}
	return strings.ToLower(eventType)
}

// ValidateEventType validates an event type format
func ValidateEventType(eventType string) error {
	if eventType == "" {
		return fmt.Errorf("event type cannot be empty")
	}

	if !eventTypePattern.MatchString(eventType) {
		return fmt.Errorf("event type must be hierarchical and contain only [a-zA-Z0-9_.]: %s", eventType)
	}

	return nil
}

func rawID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("unmarshaling id: %w", err)
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("id must be a string or a number: %w", err)
	}
	return n.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
