package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultHTTPTimeout bounds a fetch when no client is supplied.
const DefaultHTTPTimeout = 10 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 256 << 20

// HTTPSource fetches a log over HTTP.
type HTTPSource struct {
	url    string
	format Format
	client *http.Client
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if c != nil {
			s.client = c
		}
	}
}

// WithTimeout sets the client timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.client = &http.Client{Timeout: d}
		}
	}
}

// NewHTTPSource creates a URL source. FormatAuto detects the format from
// the URL path.
func NewHTTPSource(url string, format Format, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:    url,
		format: resolveFormat(format, url),
		client: &http.Client{Timeout: DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the URL.
func (s *HTTPSource) Name() string { return s.url }

// Format returns the record format.
func (s *HTTPSource) Format() Format { return s.format }

// Read fetches the whole body. Non-2xx responses and truncated bodies are
// failures.
func (s *HTTPSource) Read(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, unavailable(s.url, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", "breadcrumbs")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, unavailable(s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, unavailable(s.url, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, unavailable(s.url, fmt.Errorf("reading body: %w", err))
	}
	if len(data) > maxBody {
		return nil, unavailable(s.url, fmt.Errorf("body exceeds %d bytes", maxBody))
	}
	return data, nil
}
