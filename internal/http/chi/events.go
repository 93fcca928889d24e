package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/marcelsud/integration-pipeline/pipeline"
)

/*
* Representa o evento na camada web
 */
type eventResponse struct {
	ID           string `json:"id"`
	TenantID     string `json:"tenant_id,omitempty"`
	Type         string `json:"type"`
	Source       string `json:"source"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type jobResponse struct {
	JobID string `json:"job_id"`
}

func getEvent(uc pipeline.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ev, err := uc.GetEvent(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}

		writeJSON(w, http.StatusOK, eventResponse{
			ID:           ev.ID,
			TenantID:     ev.TenantID,
			Type:         ev.Type,
			Source:       ev.Source,
			Status:       ev.Status.String(),
			ErrorMessage: ev.ErrorMessage,
			CreatedAt:    ev.CreatedAt.Format(time.RFC3339),
			UpdatedAt:    ev.UpdatedAt.Format(time.RFC3339),
		})
	})
}

func requeueEvent(uc pipeline.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jobID, err := uc.Requeue(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, jobResponse{JobID: jobID})
	})
}
