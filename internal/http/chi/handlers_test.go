package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/marcelsud/integration-pipeline/billing"
	"github.com/marcelsud/integration-pipeline/event"
	"github.com/marcelsud/integration-pipeline/event/signature"
	"github.com/marcelsud/integration-pipeline/notification"
	"github.com/marcelsud/integration-pipeline/pipeline"
	"github.com/marcelsud/integration-pipeline/pipeline/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

/*
* Os handlers são testados com o mock do caso de uso.
* O fluxo completo com Redis de verdade fica em pipeline/pipeline_test.go
 */

const (
	testSecret = "whsec-test-secret"
	testAPIKey = "inbound-key"
)

const connectionBody = `{"id":"evt-1","event":"connection.update","instance":"inst-1","data":{"state":"open"}}`

func newHandler(t *testing.T) (http.Handler, *mocks.UseCase) {
	t.Helper()
	uc := mocks.NewUseCase(t)
	verifier := signature.NewVerifier([]string{testSecret}, testAPIKey)
	return Handlers(context.Background(), uc, verifier, nil, zerolog.Nop()), uc
}

func serve(h http.Handler, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func signed(body string) http.Header {
	h := http.Header{}
	h.Set(signature.HeaderName, signature.HeaderPrefix+signature.Sign([]byte(testSecret), []byte(body)))
	return h
}

func TestHealth(t *testing.T) {
	h, _ := newHandler(t)
	w := serve(h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestPostWebhook(t *testing.T) {
	t.Run("signed delivery is ingested", func(t *testing.T) {
		h, uc := newHandler(t)
		uc.On("Ingest", mock.Anything, mock.MatchedBy(func(raw event.RawEvent) bool {
			return raw.ID == "evt-1" &&
				raw.Type == "connection.update" &&
				raw.Source == "inst-1" &&
				string(raw.Payload) == connectionBody
		})).Return(pipeline.IngestResult{EventID: "evt-1"}, nil)

		w := serve(h, http.MethodPost, "/v1/webhooks", connectionBody, signed(connectionBody))

		require.Equal(t, http.StatusOK, w.Code)
		var res pipeline.IngestResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, "evt-1", res.EventID)
		assert.False(t, res.Duplicate)
	})

	t.Run("constant style event tag is normalized", func(t *testing.T) {
		h, uc := newHandler(t)
		body := `{"event":"CONNECTION_UPDATE","instance":"inst-1","data":{"state":"open"}}`
		uc.On("Ingest", mock.Anything, mock.MatchedBy(func(raw event.RawEvent) bool {
			return raw.Type == "connection.update" && raw.ID == ""
		})).Return(pipeline.IngestResult{EventID: "generated"}, nil)

		w := serve(h, http.MethodPost, "/v1/webhooks", body, signed(body))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bad signature never reaches the inbox", func(t *testing.T) {
		h, uc := newHandler(t)

		w := serve(h, http.MethodPost, "/v1/webhooks", connectionBody, signed(`{"tampered":true}`))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		uc.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
	})

	t.Run("missing credentials", func(t *testing.T) {
		h, uc := newHandler(t)

		w := serve(h, http.MethodPost, "/v1/webhooks", connectionBody, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		uc.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
	})

	t.Run("api key in query", func(t *testing.T) {
		h, uc := newHandler(t)
		uc.On("Ingest", mock.Anything, mock.Anything).Return(pipeline.IngestResult{EventID: "evt-1", Duplicate: true}, nil)

		w := serve(h, http.MethodPost, "/v1/webhooks?api_key="+testAPIKey, connectionBody, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"event_id":"evt-1","duplicate":true}`, w.Body.String())
	})

	t.Run("api key in body", func(t *testing.T) {
		h, uc := newHandler(t)
		body := `{"event":"messages.upsert","instance":"inst-1","apikey":"` + testAPIKey + `","data":{}}`
		uc.On("Ingest", mock.Anything, mock.Anything).Return(pipeline.IngestResult{EventID: "x"}, nil)

		w := serve(h, http.MethodPost, "/v1/webhooks", body, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong api key", func(t *testing.T) {
		h, _ := newHandler(t)
		w := serve(h, http.MethodPost, "/v1/webhooks?api_key=nope", connectionBody, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed payload", func(t *testing.T) {
		h, uc := newHandler(t)
		body := `{"instance":"inst-1"}`

		w := serve(h, http.MethodPost, "/v1/webhooks", body, signed(body))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		uc.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
	})

	t.Run("storage failure asks for a redelivery", func(t *testing.T) {
		h, uc := newHandler(t)
		uc.On("Ingest", mock.Anything, mock.Anything).Return(pipeline.IngestResult{}, errors.New("redis down"))

		w := serve(h, http.MethodPost, "/v1/webhooks", connectionBody, signed(connectionBody))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("body too large", func(t *testing.T) {
		h, _ := newHandler(t)
		body := `{"event":"messages.upsert","data":"` + strings.Repeat("a", maxWebhookBody) + `"}`

		w := serve(h, http.MethodPost, "/v1/webhooks", body, signed(body))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestGetEvent(t *testing.T) {
	h, uc := newHandler(t)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	uc.On("GetEvent", mock.Anything, "evt-1").Return(event.IntegrationEvent{
		ID:        "evt-1",
		TenantID:  "tenant-1",
		Type:      "connection.update",
		Source:    "inst-1",
		Status:    event.Processed,
		CreatedAt: created,
		UpdatedAt: created,
	}, nil)
	uc.On("GetEvent", mock.Anything, "missing").Return(event.IntegrationEvent{}, event.ErrNotFound)

	w := serve(h, http.MethodGet, "/v1/events/evt-1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res eventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "processed", res.Status)
	assert.Equal(t, "tenant-1", res.TenantID)
	assert.Equal(t, "2025-01-02T03:04:05Z", res.CreatedAt)

	w = serve(h, http.MethodGet, "/v1/events/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequeueEvent(t *testing.T) {
	h, uc := newHandler(t)
	uc.On("Requeue", mock.Anything, "evt-1").Return("job-9", nil)

	w := serve(h, http.MethodPost, "/v1/events/evt-1/requeue", "", nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"job_id":"job-9"}`, w.Body.String())
}

func TestPostNotification(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		h, uc := newHandler(t)
		uc.On("SendNotification", mock.Anything, "order-1", notification.OrderReady).Return("job-1", nil)

		w := serve(h, http.MethodPost, "/v1/notifications", `{"target_id":"order-1","template_key":"order_ready"}`, nil)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.JSONEq(t, `{"job_id":"job-1"}`, w.Body.String())
	})

	t.Run("unsupported template", func(t *testing.T) {
		h, uc := newHandler(t)
		uc.On("SendNotification", mock.Anything, "order-1", "order_refunded").Return("", notification.ErrUnsupportedTemplate)

		w := serve(h, http.MethodPost, "/v1/notifications", `{"target_id":"order-1","template_key":"order_refunded"}`, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not configured", func(t *testing.T) {
		h, uc := newHandler(t)
		uc.On("SendNotification", mock.Anything, "order-1", "order_ready").Return("", pipeline.ErrNotConfigured)

		w := serve(h, http.MethodPost, "/v1/notifications", `{"target_id":"order-1","template_key":"order_ready"}`, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		h, _ := newHandler(t)
		w := serve(h, http.MethodPost, "/v1/notifications", `{`, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetAttempts(t *testing.T) {
	h, uc := newHandler(t)
	uc.On("NotificationAttempts", mock.Anything, "order-1", int64(5)).Return([]notification.Attempt{
		{JobID: "job-1", TargetID: "order-1", Outcome: notification.OutcomeSent, Attempt: 1},
	}, nil)

	w := serve(h, http.MethodGet, "/v1/notifications/order-1/attempts?limit=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res []notification.Attempt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res, 1)
	assert.Equal(t, notification.OutcomeSent, res[0].Outcome)

	w = serve(h, http.MethodGet, "/v1/notifications/order-1/attempts?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostPaymentRetry(t *testing.T) {
	h, uc := newHandler(t)
	uc.On("RetryPayment", mock.Anything, billing.Retry{SubscriptionID: "sub-1", TenantID: "tenant-1"}).Return("job-3", nil)
	uc.On("RetryPayment", mock.Anything, billing.Retry{}).Return("", pipeline.ErrInvalidRequest)

	w := serve(h, http.MethodPost, "/v1/payments/retries", `{"subscription_id":"sub-1","tenant_id":"tenant-1"}`, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"job_id":"job-3"}`, w.Body.String())

	w = serve(h, http.MethodPost, "/v1/payments/retries", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsRoute(t *testing.T) {
	uc := mocks.NewUseCase(t)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pipeline_queue_length 1\n"))
	})
	h := Handlers(context.Background(), uc, signature.NewVerifier(nil, ""), metrics, zerolog.Nop())

	w := serve(h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pipeline_queue_length")
}
