package dashsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

type resultEnvelope[T any] struct {
	Result T `json:"result"`
}

// url builds a complete URL by appending the path to the base URL.
func (c *SDKClient) url(path string) string {
	return c.BaseURL + path
}

// doPublic sends an anonymous request. It never carries a bearer token and
// never triggers a refresh.
func (c *SDKClient) doPublic(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	return c.do(ctx, c.public, method, path, body, contentType)
}

// doAuth sends a request through the refreshing transport.
func (c *SDKClient) doAuth(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	return c.do(ctx, c.authed, method, path, body, contentType)
}

func (c *SDKClient) do(
	ctx context.Context,
	hc *http.Client,
	method, path string,
	body io.Reader,
	contentType string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := hc.Do(req)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			return nil, &APIError{
				StatusCode: http.StatusUnauthorized,
				Kind:       KindSessionExpired,
				Message:    ErrSessionExpired.Error(),
				Err:        err,
			}
		}
		return nil, &APIError{
			Kind:    KindTransport,
			Message: "failed to send request",
			Err:     err,
		}
	}

	return resp, nil
}

// jsonBody encodes v for a request body. The returned reader lets
// http.NewRequest set GetBody, which the retry after a refresh relies on.
func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return bytes.NewReader(b), nil
}

// decodeJSON decodes a 2xx response into target. A nil target discards the
// body. Any other status becomes an *APIError.
func decodeJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseErrorResponse(resp, bodyBytes)
	}

	if target == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
