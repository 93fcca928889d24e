package pipeline

import (
	"context"

	"github.com/marcelsud/integration-pipeline/event"
	"github.com/marcelsud/integration-pipeline/event/payload"
)

type upsertData struct {
	Key struct {
		ID        string `json:"id"`
		RemoteJID string `json:"remoteJid"`
		FromMe    bool   `json:"fromMe"`
	} `json:"key"`
	MessageType string `json:"messageType"`
}

// logMessage handles messages.upsert, received messages are only logged for now
func (p *Pipeline) logMessage(_ context.Context, ev event.IntegrationEvent) error {
	log := p.logger.Info().
		Str("event_id", ev.ID).
		Str("tenant_id", ev.TenantID).
		Str("source", ev.Source)

	if env, err := payload.Parse(ev.Payload); err == nil {
		var data upsertData
		if env.DecodeData(&data) == nil {
			log = log.
				Str("message_id", data.Key.ID).
				Str("remote_jid", data.Key.RemoteJID).
				Bool("from_me", data.Key.FromMe).
				Str("message_type", data.MessageType)
		}
	}

	log.Msg("message received")
	return nil
}
