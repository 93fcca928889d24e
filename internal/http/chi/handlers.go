package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/integration-pipeline/event/signature"
	"github.com/marcelsud/integration-pipeline/pipeline"
	"github.com/rs/zerolog"
)

// Handlers sets up the pipeline API routes
// metrics may be nil, then /metrics is not mounted
func Handlers(ctx context.Context, uc pipeline.UseCase, verifier *signature.Verifier, metrics http.Handler, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/webhooks", postWebhook(uc, verifier))

		r.Method(http.MethodGet, "/events/{id}", getEvent(uc))
		r.Method(http.MethodPost, "/events/{id}/requeue", requeueEvent(uc))

		r.Method(http.MethodPost, "/notifications", postNotification(uc))
		r.Method(http.MethodGet, "/notifications/{target_id}/attempts", getAttempts(uc))

		r.Method(http.MethodPost, "/payments/retries", postPaymentRetry(uc))
	})

	return r
}
