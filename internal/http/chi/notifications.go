package chi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/marcelsud/integration-pipeline/billing"
	"github.com/marcelsud/integration-pipeline/pipeline"
)

type notificationRequest struct {
	TargetID    string `json:"target_id"`
	TemplateKey string `json:"template_key"`
}

type paymentRetryRequest struct {
	SubscriptionID string `json:"subscription_id"`
	TenantID       string `json:"tenant_id"`
}

func postNotification(uc pipeline.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req notificationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		jobID, err := uc.SendNotification(r.Context(), req.TargetID, req.TemplateKey)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, jobResponse{JobID: jobID})
	})
}

func getAttempts(uc pipeline.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var limit int64
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		attempts, err := uc.NotificationAttempts(r.Context(), chi.URLParam(r, "target_id"), limit)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, attempts)
	})
}

func postPaymentRetry(uc pipeline.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req paymentRetryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		jobID, err := uc.RetryPayment(r.Context(), billing.Retry{SubscriptionID: req.SubscriptionID, TenantID: req.TenantID})
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, jobResponse{JobID: jobID})
	})
}
