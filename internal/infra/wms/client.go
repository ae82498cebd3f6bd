package wms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	appErrors "sosgibs/internal/errors"
)

const maxErrorBody = 512

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client issues GetMap requests. Errors are tagged Transient for network
// failures and Permanent for rejected requests.
type Client struct {
	HTTP      *http.Client
	UserAgent string
}

func (c Client) Fetch(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.Permanent, "build request", requestURL, err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.Transient, "get", requestURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, appErrors.Wrap(appErrors.Permanent, "get", requestURL, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.Transient, "read body", requestURL, err)
	}
	return body, nil
}
