package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Base provides common fields and methods shared by REST-based provider
// implementations. Embed this struct to avoid repeating name, apiKey, and
// HTTP plumbing across providers.
type Base struct {
	name       string
	apiKey     string
	httpClient *http.Client
}

// Name returns the provider name.
func (b *Base) Name() string { return b.name }

// getJSON issues a GET to endpoint with the given query parameters and
// decodes the JSON response into out. A non-2xx status is returned as a
// *StatusError carrying the upstream message; transport errors propagate
// unchanged apart from wrapping. No retries.
func (b *Base) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	u := endpoint
	if len(query) > 0 {
		u = endpoint + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Provider:   b.name,
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(body),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// upstreamMessage extracts a human-readable error message from an upstream
// error body, falling back to the raw body.
func upstreamMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Reason  string `json:"reason"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Reason != "" {
			return payload.Reason
		}
	}
	return strings.TrimSpace(string(body))
}
