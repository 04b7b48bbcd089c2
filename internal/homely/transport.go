package homely

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// requestTimeout bounds every upstream call.
const requestTimeout = 10 * time.Second

// rawResponse is an HTTP response reduced to what the callers classify.
type rawResponse struct {
	status int
	body   []byte
}

// transport issues the actual HTTP requests. Network-level failures of any
// kind surface as ErrRequestFailed; interpreting status codes is the
// caller's job.
type transport struct {
	httpClient *http.Client
	logger     *slog.Logger
}

func newTransport(logger *slog.Logger) *transport {
	return &transport{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger.With("component", "transport"),
	}
}

// postForm sends a form-encoded POST, as the token endpoints expect.
func (t *transport) postForm(ctx context.Context, url string, form url.Values) (*rawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return t.do(req)
}

// get sends an authenticated GET with the given bearer token.
func (t *transport) get(ctx context.Context, url, bearer string) (*rawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	return t.do(req)
}

func (t *transport) do(req *http.Request) (*rawResponse, error) {
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrRequestFailed, err)
	}

	t.logger.Debug("request complete",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
	)

	return &rawResponse{status: resp.StatusCode, body: body}, nil
}

// responseClass is the coarse outcome of an API response, shared by every
// endpoint caller.
type responseClass int

const (
	classSuccess responseClass = iota
	classClientError
	classAuthError
	classServerError
)

// classify maps an HTTP status to a response class. Statuses outside the
// enumerated ranges (e.g. 202) count as server failures rather than silent
// success.
func classify(status int) responseClass {
	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		return classSuccess
	case status >= 500:
		return classServerError
	case status == http.StatusBadRequest:
		return classClientError
	case status >= 401 && status < 500:
		return classAuthError
	default:
		return classServerError
	}
}
