package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-ports/querysense/internal/qerrors"
)

const (
	defaultOpenAIBase        = "https://api.openai.com/v1"
	defaultMaxRetries        = 3
	defaultBaseBackoffSeconds = 5
)

// OpenAI calls the OpenAI (or an OpenAI-compatible) embeddings endpoint,
// retrying on HTTP 429 with capped exponential backoff. The wait before
// the k-th provider call (1-indexed; k=1 is the initial attempt, never
// delayed) is base_backoff^(k-1) seconds for k>1.
type OpenAI struct {
	Model              string
	APIKey             string
	BaseURL            string
	MaxRetries         uint
	BaseBackoffSeconds uint
	client             *http.Client

	// sleep is overridable in tests so the retry loop's delays can be
	// asserted without actually waiting.
	sleep func(time.Duration)
}

// NewOpenAI returns an OpenAI provider. baseURL defaults to the public
// OpenAI endpoint; maxRetries/baseBackoffSeconds default to 3 and 5 when
// zero (matching the `sync --time-backoff` CLI default).
func NewOpenAI(model, apiKey, baseURL string, maxRetries, baseBackoffSeconds uint) *OpenAI {
	if baseURL == "" {
		baseURL = defaultOpenAIBase
	}
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	if baseBackoffSeconds == 0 {
		baseBackoffSeconds = defaultBaseBackoffSeconds
	}
	return &OpenAI{
		Model:              model,
		APIKey:             apiKey,
		BaseURL:            strings.TrimRight(baseURL, "/"),
		MaxRetries:         maxRetries,
		BaseBackoffSeconds: baseBackoffSeconds,
		client:             &http.Client{Timeout: 60 * time.Second},
		sleep:              time.Sleep,
	}
}

// Embed embeds a single text string.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	results, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: openai embed: empty response", qerrors.ErrTransport)
	}
	return results[0], nil
}

// EmbedBatch embeds multiple texts in a single logical request, retrying
// the whole request on 429 up to MaxRetries+1 total calls. Responses are
// sorted by the provider's `index` field before being returned, so the
// result order always matches texts regardless of what order the
// provider happened to return embeddings in.
func (o *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := map[string]any{
		"model": o.Model,
		"input": texts,
	}
	headers := map[string]string{"Authorization": "Bearer " + o.APIKey}

	maxCalls := o.MaxRetries + 1
	var lastErr error
	for call := uint(1); call <= maxCalls; call++ {
		if call > 1 {
			delay := time.Duration(math.Pow(float64(o.BaseBackoffSeconds), float64(call-1))) * time.Second
			o.sleep(delay)
		}

		res, err := doRequest(ctx, o.client, http.MethodPost, o.BaseURL+"/embeddings", headers, reqBody)
		if err != nil {
			return nil, fmt.Errorf("%w: openai embed: %v", qerrors.ErrTransport, err)
		}

		switch {
		case res.StatusCode >= 200 && res.StatusCode < 300:
			return decodeEmbeddings(res.Body)

		case res.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w: openai embed: rate limited (call %d/%d)", qerrors.ErrRateLimited, call, maxCalls)
			continue

		default:
			snippet := res.Body
			if len(snippet) > 256 {
				snippet = snippet[:256]
			}
			return nil, fmt.Errorf("%w: openai embed: HTTP %d: %s", qerrors.ErrTransport, res.StatusCode, snippet)
		}
	}
	return nil, fmt.Errorf("%w: %v", qerrors.ErrMaxRetries, lastErr)
}

func decodeEmbeddings(body []byte) ([][]float32, error) {
	var resp struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: openai embed: decoding response: %v", qerrors.ErrTransport, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: openai embed: empty data in response", qerrors.ErrTransport)
	}

	sort.Slice(resp.Data, func(i, j int) bool {
		return resp.Data[i].Index < resp.Data[j].Index
	})

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}
