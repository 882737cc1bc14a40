// Package netx holds small HTTP helpers shared by the server and flowctl.
package netx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody caps how much of a failed response body is quoted in errors.
const maxErrorBody = 4 << 10

// StatusError is returned when the remote side answers with a non-2xx code.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed: %s; body: %s", e.Status, e.Body)
}

// PostJSON marshals payload, POSTs it to url with the given extra headers and
// returns the raw response body. Non-2xx answers produce a *StatusError.
func PostJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return PostRaw(ctx, client, url, "application/json", headers, body)
}

// PostRaw sends body as-is with the given content type.
func PostRaw(ctx context.Context, client *http.Client, url, contentType string, headers map[string]string, body []byte) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(b)}
	}

	return io.ReadAll(resp.Body)
}
