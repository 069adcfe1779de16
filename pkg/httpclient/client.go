package httpclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Timeouts is the per-request budget: a total deadline plus separate connect
// and response-header limits. Zero values fall back to the defaults below.
type Timeouts struct {
	Total          time.Duration
	Connect        time.Duration
	ResponseHeader time.Duration
}

// DefaultTimeouts is generous on the total budget because session pages embed
// full transcripts and can run to several megabytes.
var DefaultTimeouts = Timeouts{
	Total:          30 * time.Minute,
	Connect:        30 * time.Second,
	ResponseHeader: 5 * time.Minute,
}

// HTTPClient wraps an http.Client with browser-like headers and a timeout
// budget. The source site serves empty shells to clients without a realistic
// User-Agent.
type HTTPClient struct {
	client *http.Client
}

// NewClient creates a new HTTP client with the default timeout budget.
func NewClient() *HTTPClient {
	return NewClientWithTimeouts(DefaultTimeouts)
}

// NewClientWithTimeouts creates a new HTTP client with the given budget.
func NewClientWithTimeouts(t Timeouts) *HTTPClient {
	if t.Total == 0 {
		t.Total = DefaultTimeouts.Total
	}
	if t.Connect == 0 {
		t.Connect = DefaultTimeouts.Connect
	}
	if t.ResponseHeader == 0 {
		t.ResponseHeader = DefaultTimeouts.ResponseHeader
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   t.Connect,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ResponseHeaderTimeout: t.ResponseHeader,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}

	client := &http.Client{
		Timeout:   t.Total,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Follow up to 10 redirects
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	return &HTTPClient{client: client}
}

// Do executes an HTTP request with browser-like headers applied.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	setHeaders(req)
	return c.client.Do(req)
}

// Get is a convenience method for GET requests.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// GetString fetches a URL and returns its body as a string. A non-200 status
// is an error; callers treat any error as "no content" for that page.
func (c *HTTPClient) GetString(ctx context.Context, url string) (string, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}

func setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")
}
