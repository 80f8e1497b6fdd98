// Package carrier provides a Go client for the carrier platform admin API.
//
// Basic usage:
//
//	c := carrier.NewClient("http://localhost:8080", nil)
//	stats, err := c.Stats(ctx)
package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// APIError is returned when the carrier API answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("carrier: %s returned HTTP %d", e.Path, e.StatusCode)
}

// Options tunes client construction.
type Options struct {
	// Traced wraps the transport with otelhttp instrumentation.
	Traced bool
	// Timeout overrides the default 30s request timeout.
	Timeout time.Duration
}

// Client talks to the carrier platform admin API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the carrier admin API.
// Pass nil opts for defaults.
func NewClient(baseURL string, opts *Options) *Client {
	timeout := 30 * time.Second
	var transport http.RoundTripper
	if opts != nil {
		if opts.Timeout > 0 {
			timeout = opts.Timeout
		}
		if opts.Traced {
			transport = otelhttp.NewTransport(http.DefaultTransport)
		}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
	}
}

// Stats fetches the platform KPI snapshot.
func (c *Client) Stats(ctx context.Context) (*StatsSnapshot, error) {
	var stats StatsSnapshot
	if err := c.get(ctx, "/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Subscribers fetches the full subscriber collection.
func (c *Client) Subscribers(ctx context.Context) ([]Subscriber, error) {
	var subs []Subscriber
	if err := c.get(ctx, "/users", &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// ActiveCalls fetches the sessions currently in progress.
func (c *Client) ActiveCalls(ctx context.Context) ([]CallSession, error) {
	var calls []CallSession
	if err := c.get(ctx, "/calls/active", &calls); err != nil {
		return nil, err
	}
	return calls, nil
}

// Config fetches the read-only platform configuration.
func (c *Client) Config(ctx context.Context) (*PlatformConfig, error) {
	var cfg PlatformConfig
	if err := c.get(ctx, "/config", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CreateSubscriber registers a new subscriber account.
func (c *Client) CreateSubscriber(ctx context.Context, sub Subscriber) (*Subscriber, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("marshaling subscriber: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/users", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "/users"); err != nil {
		return nil, err
	}

	var created Subscriber
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		// Some deployments answer with a bare status; fall back to the input.
		created = sub
		created.Password = ""
	}
	return &created, nil
}

// DeleteSubscriber removes a subscriber account.
func (c *Client) DeleteSubscriber(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp, "/users/{id}")
}

// AdjustBalance sets a subscriber's balance adjustment. Positive and
// negative amounts are both accepted; the backend owns any bounds.
func (c *Client) AdjustBalance(ctx context.Context, id string, amount float64) error {
	body, err := json.Marshal(map[string]float64{"amount": amount})
	if err != nil {
		return fmt.Errorf("marshaling amount: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(id)+"/balance", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp, "/users/{id}/balance")
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, path); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &APIError{StatusCode: resp.StatusCode, Path: path, Body: string(snippet)}
}
