// HTTP client for the ScaleDown compression service.
//
// The service accepts {context, prompt, model, rate} and returns
// {results: {compressed_prompt, original_prompt_tokens,
// compressed_prompt_tokens}, latency_ms, model_used}. Failures map onto the
// errdefs taxonomy so callers can branch without knowing HTTP.
package compressor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/scaledown-ai/scaledown-go/config"
	"github.com/scaledown-ai/scaledown-go/errdefs"
	"github.com/scaledown-ai/scaledown-go/step"
)

const (
	// DefaultTimeout for compression API calls.
	DefaultTimeout = 60 * time.Second

	// maxResponseSize prevents OOM on unexpectedly large API responses (10MB).
	maxResponseSize = 10 * 1024 * 1024

	// maxErrorBodyLen limits error body in error messages to avoid log bloat.
	maxErrorBodyLen = 500
)

// Client calls the ScaleDown compression service.
type Client struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	http     *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithEndpoint overrides the service URL (defaults to config.APIURL()).
func WithEndpoint(url string) ClientOption {
	return func(c *Client) { c.endpoint = url }
}

// WithHTTPClient overrides the HTTP client (testing, connection pooling).
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithClientTimeout overrides the per-call timeout.
func WithClientTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// NewClient creates a compression service client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: config.APIURL(),
		apiKey:   apiKey,
		timeout:  DefaultTimeout,
		http:     &http.Client{}, // timeout via context, not client
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompressParams are the inputs of one compression call.
type CompressParams struct {
	Context   string  // Content to compress
	Prompt    string  // Instruction guiding compression
	Model     string  // Target model id
	Rate      float64 // Requested compression rate, 0 = service default
	MaxTokens int     // Token budget, 0 = unbounded
}

// compressRequest is the wire format of a compression call. Optional fields
// are patched in with sjson so the service never sees zero-valued knobs.
type compressRequest struct {
	Context string `json:"context"`
	Prompt  string `json:"prompt"`
	Model   string `json:"model"`
}

// Compress performs one compression call.
func (c *Client) Compress(ctx context.Context, params CompressParams) (*step.CompressedContent, error) {
	body, err := json.Marshal(&compressRequest{
		Context: params.Context,
		Prompt:  params.Prompt,
		Model:   params.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal compression request: %w", err)
	}
	if params.Rate > 0 {
		if body, err = sjson.SetBytes(body, "rate", params.Rate); err != nil {
			return nil, fmt.Errorf("set rate: %w", err)
		}
	}
	if params.MaxTokens > 0 {
		if body, err = sjson.SetBytes(body, "max_tokens", params.MaxTokens); err != nil {
			return nil, fmt.Errorf("set max_tokens: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/compress", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create compression request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errdefs.Dependencyf("compression request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errdefs.Dependencyf("read compression response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody := string(respBody)
		if len(errBody) > maxErrorBodyLen {
			errBody = errBody[:maxErrorBodyLen] + "... (truncated)"
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, errdefs.Authenticationf("compression service rejected credentials (status %d): %s", resp.StatusCode, errBody)
		case http.StatusBadRequest:
			return nil, errdefs.Validationf("compression service rejected request: %s", errBody)
		default:
			return nil, errdefs.Dependencyf("compression service returned status %d: %s", resp.StatusCode, errBody)
		}
	}

	return parseCompressResponse(respBody)
}

// parseCompressResponse extracts the result fields. gjson keeps us tolerant
// of extra fields the service may add.
func parseCompressResponse(body []byte) (*step.CompressedContent, error) {
	compressed := gjson.GetBytes(body, "results.compressed_prompt")
	if !compressed.Exists() {
		return nil, errdefs.Dependencyf("malformed compression response: missing results.compressed_prompt")
	}

	return &step.CompressedContent{
		Content: compressed.String(),
		Tokens: [2]int{
			int(gjson.GetBytes(body, "results.original_prompt_tokens").Int()),
			int(gjson.GetBytes(body, "results.compressed_prompt_tokens").Int()),
		},
		LatencyMS: gjson.GetBytes(body, "latency_ms").Float(),
		ModelUsed: gjson.GetBytes(body, "model_used").String(),
	}, nil
}
