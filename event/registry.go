package event

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/marcelsud/integration-pipeline/event/payload"
)

// Handler applies the side effects of one event type
type Handler func(ctx context.Context, ev IntegrationEvent) error

/* Registry maps an event type tag to its handler
 * Types are validated and normalized when registered, so a lookup miss
 * always means "nobody handles this type" and never a typo at startup
 */
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty handler registry
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to an event type
func (r *Registry) Register(eventType string, h Handler) error {
	if h == nil {
		return fmt.Errorf("handler for %q is nil", eventType)
	}

	normalized := payload.NormalizeEventType(eventType)
	if err := payload.ValidateEventType(normalized); err != nil {
		return fmt.Errorf("registering handler: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[normalized]; exists {
		return fmt.Errorf("handler for %q already registered", normalized)
	}
	r.handlers[normalized] = h
	return nil
}

// Lookup returns the handler for an event type
func (r *Registry) Lookup(eventType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[payload.NormalizeEventType(eventType)]
	return h, ok
}

// Types returns the registered event types, sorted
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
