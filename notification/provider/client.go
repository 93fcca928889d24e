package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/marcelsud/integration-pipeline/notification"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

const defaultTimeout = 30 * time.Second

// Config holds the provider connection settings
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// Breaker: opens after ConsecutiveFailures faults, probes again after OpenTimeout
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type sendTextResponse struct {
	Key struct {
		ID string `json:"id"`
	} `json:"key"`
	Status string `json:"status"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Message  any    `json:"message"`
	Response struct {
		Message any `json:"message"`
	} `json:"response"`
}

/* Client is a notification.Provider for the messaging provider HTTP API
 * Retries are never done here: every attempt is a retry.Job of its own
 * A breaker in front of the API turns a provider outage into fast failures
 */
type Client struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

// NewClient creates a provider client
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	return NewClientWithResty(cfg, resty.New(), logger)
}

// NewClientWithResty creates a provider client on an existing resty client
func NewClientWithResty(cfg Config, client *resty.Client, logger zerolog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("provider base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid provider base url: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	client.SetBaseURL(base).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("apikey", cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	logger = logger.With().Str("component", "provider").Logger()

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "messaging-provider",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// only faults count against the provider, soft failures are answers
		IsSuccessful: func(err error) bool {
			return err == nil || !IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return &Client{client: client, breaker: breaker, logger: logger}, nil
}

// SendText posts a text message through the given instance
func (c *Client) SendText(ctx context.Context, msg notification.Message) (notification.Result, error) {
	if msg.Instance == "" || msg.Number == "" {
		return notification.Result{Accepted: false, Reason: "target has no instance or phone number"}, nil
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.sendText(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return notification.Result{}, &Error{Message: "provider unavailable (circuit breaker open)", Transient: true, Cause: err}
	}
	if err != nil {
		return notification.Result{}, err
	}

	return out.(notification.Result), nil
}

func (c *Client) sendText(ctx context.Context, msg notification.Message) (notification.Result, error) {
	var body sendTextResponse
	var failure errorResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(sendTextRequest{Number: msg.Number, Text: msg.Text}).
		SetResult(&body).
		SetError(&failure).
		SetPathParam("instance", msg.Instance).
		Post("/message/sendText/{instance}")
	if err != nil {
		return notification.Result{}, &Error{
			Message:   "provider request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}

	status := resp.StatusCode()
	switch {
	case status >= http.StatusOK && status < http.StatusMultipleChoices:
		// 2xx without a message id is not an acknowledgement
		return notification.Result{
			Accepted:  body.Key.ID != "",
			MessageID: body.Key.ID,
			Status:    body.Status,
		}, nil
	case isTransientHTTPStatus(status):
		return notification.Result{}, &Error{
			StatusCode: status,
			Message:    strings.TrimSpace(resp.String()),
			Transient:  true,
		}
	default:
		reason := failure.reason()
		if reason == "" {
			reason = fmt.Sprintf("provider returned status %d", status)
		}
		c.logger.Debug().Int("status", status).Str("reason", reason).Msg("provider refused message")
		return notification.Result{Accepted: false, Status: fmt.Sprintf("%d", status), Reason: reason}, nil
	}
}

func (e errorResponse) reason() string {
	for _, m := range []any{e.Response.Message, e.Message} {
		switch v := m.(type) {
		case string:
			if v != "" {
				return v
			}
		case []any:
			parts := make([]string, 0, len(v))
			for _, p := range v {
				parts = append(parts, fmt.Sprint(p))
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
	}
	return e.Error
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError
}
