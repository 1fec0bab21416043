package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// httpResult carries the parsed status alongside the raw body so callers
// that need to distinguish "429, retry" from "other failure, give up"
// (the OpenAI provider) don't have to re-derive it from an error string.
type httpResult struct {
	StatusCode int
	Body       []byte
}

// doRequest executes an HTTP request, marshalling body as JSON if
// non-nil, and returns the raw response without interpreting its status
// code — callers decide what counts as success.
func doRequest(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body any) (*httpResult, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("doRequest marshal: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("doRequest new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req) // #nosec G704 -- URL is the user-configured embedding provider endpoint
	if err != nil {
		return nil, fmt.Errorf("doRequest: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("doRequest read body: %w", err)
	}
	return &httpResult{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// doJSON executes a request and decodes a 2xx response body into out.
func doJSON(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body, out any) error {
	res, err := doRequest(ctx, client, method, url, headers, body)
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet := res.Body
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return fmt.Errorf("doJSON: HTTP %d: %s", res.StatusCode, bytes.TrimSpace(snippet))
	}
	if out != nil {
		if err := json.Unmarshal(res.Body, out); err != nil {
			return fmt.Errorf("doJSON decode: %w", err)
		}
	}
	return nil
}
