package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient is the client used by DoGet. Per-call deadlines come from the
// request context, so the client timeout is only a backstop.
var HTTPClient = &http.Client{Timeout: 60 * time.Second}

// HTTPError is returned by DoGet for non-2xx responses.
type HTTPError struct {
	URL        string
	StatusCode int
	Body       string // first bytes of the response body
}

func (e *HTTPError) Error() string {
	u := redactURL(e.URL)
	if e.Body == "" {
		return fmt.Sprintf("GET %s: HTTP %d", u, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: HTTP %d: %s", u, e.StatusCode, e.Body)
}

// redactURL hides API keys passed as query parameters.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("apikey") {
		q.Set("apikey", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an HTTPError.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

const errorBodyLimit = 512

// DoGet performs a GET request with the given headers. On a 2xx response the
// caller owns the returned body and must close it. Any other status is
// returned as an *HTTPError together with the status code.
func DoGet(ctx context.Context, rawURL string, headers map[string]string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := HTTPClient.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = redactURL(ue.URL)
		}
		return nil, 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, resp.StatusCode, &HTTPError{URL: rawURL, StatusCode: resp.StatusCode, Body: string(snippet)}
	}
	return resp.Body, resp.StatusCode, nil
}

// GetJSON performs DoGet with a per-call timeout and decodes the JSON body into dest.
func GetJSON(ctx context.Context, rawURL string, headers map[string]string, timeout time.Duration, dest any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	body, _, err := DoGet(ctx, rawURL, headers)
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse JSON from %s: %w", redactURL(rawURL), err)
	}
	return nil
}
