package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marcelsud/integration-pipeline/event"
	"github.com/marcelsud/integration-pipeline/notification"
	"github.com/marcelsud/integration-pipeline/pipeline"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps use case errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, event.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrInvalidRequest), errors.Is(err, notification.ErrUnsupportedTemplate):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
