package polling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPFetcher reads a JSON array of objects with a stable "id" from a read endpoint
type HTTPFetcher struct {
	client *resty.Client
	url    string
}

// NewHTTPFetcher creates a fetcher for url, token is sent as a bearer token
func NewHTTPFetcher(url, token string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}

	return &HTTPFetcher{client: client, url: url}
}

// Fetch implements Fetcher
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]Item, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(f.url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", f.url, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", f.url, resp.StatusCode())
	}

	return DecodeItems(resp.Body())
}

// DecodeItems parses a JSON array whose elements carry an "id" (string or number)
func DecodeItems(body []byte) ([]Item, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}

	items := make([]Item, 0, len(raw))
	for i, r := range raw {
		var head struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(r, &head); err != nil {
			return nil, fmt.Errorf("decoding item %d: %w", i, err)
		}

		id, err := itemID(head.ID)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, Item{ID: id, Raw: r})
	}
	return items, nil
}

func itemID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("missing id")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decoding id: %w", err)
		}
		if s == "" {
			return "", fmt.Errorf("missing id")
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("id must be a string or a number: %w", err)
	}
	return n.String(), nil
}
