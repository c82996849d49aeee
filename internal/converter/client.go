package converter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrTimeout means the backend did not answer within the deadline. The UI
// treats it differently from a connect failure ("try a different backend").
var ErrTimeout = errors.New("backend connection timeout: the request took too long to respond")

// ConnectError is a transport-level failure to reach the backend at all
// (DNS, refused connection, TLS).
type ConnectError struct {
	Backend string
	Err     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("backend connection failed: unable to reach %s", e.Backend)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// BackendError means the backend answered with a non-2xx status. Snippet
// carries at most the first 100 characters of the response body.
type BackendError struct {
	Status  int
	Snippet string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error (%d): %s", e.Status, e.Snippet)
}

const snippetLimit = 100

// Client performs the outbound conversion call.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient builds a converter client. The timeout applies to one whole
// request including reading the body.
func NewClient(timeout time.Duration, userAgent string) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch performs GET against the prepared conversion URL and returns the
// whole response body as text. Generated configs are small text documents,
// so no streaming.
func (c *Client) Fetch(ctx context.Context, requestURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.http.Do(req)
	if err != nil {
		return "", classifyTransportError(requestURL, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, snippetLimit))
		return "", &BackendError{Status: res.StatusCode, Snippet: string(body)}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", classifyTransportError(requestURL, err)
	}

	return string(body), nil
}

func classifyTransportError(requestURL string, err error) error {
	if isTimeout(err) {
		return ErrTimeout
	}
	return &ConnectError{Backend: backendOf(requestURL), Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// backendOf reduces a request URL to scheme://host for error messages.
func backendOf(requestURL string) string {
	u, err := url.Parse(requestURL)
	if err != nil || u.Host == "" {
		return requestURL
	}
	return u.Scheme + "://" + u.Host
}
