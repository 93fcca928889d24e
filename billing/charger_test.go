package billing_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marcelsud/integration-pipeline/billing"
	"github.com/marcelsud/integration-pipeline/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPCharger_Charge(t *testing.T) {
	ctx := context.Background()

	newCharger := func(t *testing.T, status int, body string) *billing.HTTPCharger {
		t.Helper()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/subscriptions/sub-1/charges", r.URL.Path)
			assert.Equal(t, "Bearer billing-token", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
		t.Cleanup(server.Close)

		c, err := billing.NewHTTPCharger(server.URL, "billing-token", time.Second)
		require.NoError(t, err)
		return c
	}

	t.Run("paid", func(t *testing.T) {
		charge, err := newCharger(t, http.StatusCreated, `{"id":"ch-1","status":"paid"}`).Charge(ctx, "sub-1")
		require.NoError(t, err)
		assert.Equal(t, "ch-1", charge.ID)
	})

	t.Run("declined in body", func(t *testing.T) {
		_, err := newCharger(t, http.StatusOK, `{"id":"ch-1","status":"failed"}`).Charge(ctx, "sub-1")
		assert.ErrorIs(t, err, billing.ErrDeclined)
	})

	t.Run("payment required", func(t *testing.T) {
		_, err := newCharger(t, http.StatusPaymentRequired, `{"error":"insufficient funds"}`).Charge(ctx, "sub-1")
		assert.ErrorIs(t, err, billing.ErrDeclined)
		assert.False(t, retry.IsPermanent(err))
	})

	t.Run("unknown subscription is permanent", func(t *testing.T) {
		_, err := newCharger(t, http.StatusNotFound, `{}`).Charge(ctx, "sub-1")
		assert.ErrorIs(t, err, billing.ErrSubscriptionNotFound)
		assert.True(t, retry.IsPermanent(err))
	})

	t.Run("server error is retried", func(t *testing.T) {
		_, err := newCharger(t, http.StatusBadGateway, ``).Charge(ctx, "sub-1")
		require.Error(t, err)
		assert.False(t, retry.IsPermanent(err))
	})
}
