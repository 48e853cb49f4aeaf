// measurement/client.go
package measurement

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultCollectURL is the Universal Analytics collection endpoint.
const DefaultCollectURL = "https://www.google-analytics.com/collect"

// Outcome is what happened to a hit once it reached the send step.
type Outcome string

const (
	OutcomeSent       Outcome = "sent"
	OutcomeSuppressed Outcome = "suppressed"
	OutcomeFailed     Outcome = "failed"
)

// Sender delivers a hit to a collection endpoint.
type Sender interface {
	Send(ctx context.Context, hit *Hit) error
}

// Client posts hits to a Measurement Protocol endpoint. One request per hit,
// no retries.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

func NewClient(endpoint string, httpClient *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultCollectURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

func (c *Client) Send(ctx context.Context, hit *Hit) error {
	if hit == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(hit.Values().Encode()))
	if err != nil {
		return fmt.Errorf("failed to build collect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if hit.UserAgentOverride != "" {
		req.Header.Set("User-Agent", hit.UserAgentOverride)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s hit: %w", hit.Type, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("collect endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
