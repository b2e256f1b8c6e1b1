// Package webhook provides an HTTP client for sending load results to webhook endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/analyzer"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/loader"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// Load outcomes reported in Event.Status.
const (
	StatusOK     = "ok"
	StatusEmpty  = "empty"
	StatusFailed = "failed"
)

// Event is the JSON body posted to a webhook after a load.
type Event struct {
	Status     string              `json:"status"`
	Generation uint64              `json:"generation"`
	Snapshot   string              `json:"snapshot,omitempty"`
	Error      string              `json:"error,omitempty"`
	StartedAt  time.Time           `json:"started_at"`
	Duration   string              `json:"duration"`
	Sessions   int                 `json:"sessions"`
	Stats      analyzer.Stats      `json:"stats"`
	Sources    []loader.SourceInfo `json:"sources,omitempty"`
}

// NewEvent summarizes a published load state.
func NewEvent(st *loader.State) *Event {
	ev := &Event{
		Generation: st.Generation,
		StartedAt:  st.StartedAt,
		Duration:   st.Duration.String(),
	}

	switch {
	case st.Failed():
		ev.Status = StatusFailed
		ev.Error = st.Err.Error()
	case st.Empty():
		ev.Status = StatusEmpty
	default:
		ev.Status = StatusOK
	}

	if snap := st.Snapshot; snap != nil {
		ev.Snapshot = snap.ID
		ev.Sessions = snap.Sessions.Len()
		ev.Stats = snap.Stats
		ev.Sources = snap.Sources
	}

	return ev
}

// Client sends load events to webhook endpoints.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new webhook client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
	}
}

// SendOptions configures a webhook request.
type SendOptions struct {
	URL     string
	Token   string        // Bearer token (optional)
	Timeout time.Duration // Request timeout (uses DefaultTimeout if zero)
}

// Response contains the result of a webhook request.
type Response struct {
	StatusCode int
	Body       string
	Duration   time.Duration
	Error      error
}

// Success returns true if the webhook was sent successfully (2xx status).
func (r *Response) Success() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Send posts an event to a webhook endpoint.
func (c *Client) Send(ctx context.Context, event *Event, opts SendOptions) *Response {
	start := time.Now()
	resp := &Response{}
	fail := func(err error) *Response {
		resp.Error = err
		resp.Duration = time.Since(start)
		return resp
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fail(fmt.Errorf("failed to marshal event: %w", err))
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(payload))
	if err != nil {
		return fail(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "breadcrumbs-webhook")
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("request failed: %w", err))
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1024*1024)) // Limit to 1MB
	if err != nil {
		return fail(fmt.Errorf("failed to read response: %w", err))
	}

	resp.StatusCode = httpResp.StatusCode
	resp.Body = string(body)
	resp.Duration = time.Since(start)

	if resp.StatusCode >= 400 {
		resp.Error = fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return resp
}
