package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/marcelsud/integration-pipeline/event"
	"github.com/marcelsud/integration-pipeline/event/payload"
	"github.com/marcelsud/integration-pipeline/event/signature"
	"github.com/marcelsud/integration-pipeline/pipeline"
)

// maxWebhookBody bounds what a provider may post
const maxWebhookBody = 1 << 20

/* postWebhook handles POST /v1/webhooks
 * Order matters: authenticate, validate, store, enqueue, then answer
 * Nothing reaches the inbox before authentication succeeds, and a 200
 * is only sent once the event is durable
 */
func postWebhook(uc pipeline.UseCase, verifier *signature.Verifier) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
		defer r.Body.Close()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		if err := verifier.Authenticate(r.Header.Get(signature.HeaderName), body, apiKeyFrom(r, body)); err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		env, err := payload.Parse(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid payload: %v", err))
			return
		}

		res, err := uc.Ingest(r.Context(), event.RawEvent{
			ID:      env.ID,
			Type:    env.EventType(),
			Source:  env.Instance,
			Payload: body,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, res)
	})
}

// apiKeyFrom reads the api key from the query string or, failing that, the body
func apiKeyFrom(r *http.Request, body []byte) string {
	if key := r.URL.Query().Get("api_key"); key != "" {
		return key
	}

	var env payload.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.APIKey
}
