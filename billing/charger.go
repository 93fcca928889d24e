package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/marcelsud/integration-pipeline/retry"
)

// HTTPCharger calls the billing service charge endpoint
type HTTPCharger struct {
	client *resty.Client
}

// NewHTTPCharger creates a charger for the billing service at baseURL
func NewHTTPCharger(baseURL, token string, timeout time.Duration) (*HTTPCharger, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("billing url is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0)
	if token != "" {
		client.SetAuthToken(token)
	}

	return &HTTPCharger{client: client}, nil
}

// Charge asks for a new charge of the subscription's open invoice
func (c *HTTPCharger) Charge(ctx context.Context, subscriptionID string) (Charge, error) {
	var charge Charge

	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&charge).
		SetPathParam("id", subscriptionID).
		Post("/v1/subscriptions/{id}/charges")
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Charge{}, err
		}
		return Charge{}, fmt.Errorf("billing request failed: %w", err)
	}

	switch status := resp.StatusCode(); {
	case status >= http.StatusOK && status < http.StatusMultipleChoices:
		if charge.Status != "" && charge.Status != "paid" {
			return Charge{}, fmt.Errorf("%w: status %s", ErrDeclined, charge.Status)
		}
		return charge, nil
	case status == http.StatusPaymentRequired:
		return Charge{}, fmt.Errorf("%w: %s", ErrDeclined, strings.TrimSpace(resp.String()))
	case status == http.StatusNotFound:
		return Charge{}, retry.Permanent(fmt.Errorf("%w: %s", ErrSubscriptionNotFound, subscriptionID))
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError && status != http.StatusTooManyRequests:
		return Charge{}, retry.Permanent(fmt.Errorf("billing service returned status %d", status))
	default:
		return Charge{}, fmt.Errorf("billing service returned status %d", status)
	}
}
