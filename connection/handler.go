package connection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marcelsud/integration-pipeline/event"
	"github.com/marcelsud/integration-pipeline/event/payload"
	"github.com/marcelsud/integration-pipeline/retry"
	"github.com/rs/zerolog"
)

// Handler applies connection.update events to the instance store
type Handler struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewHandler creates a connection update handler
func NewHandler(store Store, logger zerolog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger.With().Str("handler", "connection.update").Logger(),
		now:    time.Now,
	}
}

type updateData struct {
	State  string `json:"state"`
	Reason int    `json:"statusReason,omitempty"`
}

/* HandleConnectionUpdate is an event.Handler
 * A payload that can never be applied (malformed or an unknown state) is a
 * permanent failure, a store error is retried
 */
func (h *Handler) HandleConnectionUpdate(ctx context.Context, ev event.IntegrationEvent) error {
	env, err := payload.Parse(ev.Payload)
	if err != nil {
		return retry.Permanent(fmt.Errorf("parsing connection update: %w", err))
	}

	var data updateData
	if err := env.DecodeData(&data); err != nil {
		return retry.Permanent(err)
	}

	state, err := FromProvider(data.State)
	if err != nil {
		return retry.Permanent(err)
	}

	instanceID := env.Instance
	if instanceID == "" {
		instanceID = ev.Source
	}

	if err := h.store.UpdateState(ctx, instanceID, state, h.now().UTC()); err != nil {
		if errors.Is(err, ErrInstanceNotFound) {
			h.logger.Warn().Str("instance", instanceID).Msg("update for unregistered instance")
		}
		return fmt.Errorf("updating instance %s: %w", instanceID, err)
	}

	h.logger.Info().
		Str("event_id", ev.ID).
		Str("instance", instanceID).
		Str("tenant_id", ev.TenantID).
		Str("state", string(state)).
		Msg("instance state updated")
	return nil
}
