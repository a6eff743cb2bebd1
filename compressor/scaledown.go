// Package compressor implements the ScaleDown compression step: a remote
// service call that rewrites content to use fewer tokens while preserving
// the instruction's intent.
//
// DESIGN: The step holds the credential and policy (model, rate, cache);
// the Client owns the wire protocol. Missing credentials surface as
// errdefs.ErrAuthentication at call time; the pipeline engine neither
// retries nor substitutes a default.
package compressor

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/scaledown-ai/scaledown-go/config"
	"github.com/scaledown-ai/scaledown-go/errdefs"
	"github.com/scaledown-ai/scaledown-go/step"
)

// ScaleDown compresses prompts via the hosted ScaleDown service.
type ScaleDown struct {
	apiKey     string
	model      string
	rate       float64
	timeout    time.Duration
	endpoint   string
	httpClient *Client
	cache      *responseCache
}

// Option configures a ScaleDown compressor.
type Option func(*ScaleDown)

// WithModel sets the target model id sent to the service.
func WithModel(model string) Option {
	return func(s *ScaleDown) { s.model = model }
}

// WithRate requests a compression rate in (0, 1].
func WithRate(rate float64) Option {
	return func(s *ScaleDown) { s.rate = rate }
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *ScaleDown) { s.timeout = d }
}

// WithServiceEndpoint overrides the service URL.
func WithServiceEndpoint(url string) Option {
	return func(s *ScaleDown) { s.endpoint = url }
}

// WithCacheTTL enables the in-memory response cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *ScaleDown) {
		if ttl > 0 {
			s.cache = newResponseCache(ttl)
		}
	}
}

// WithClient injects a pre-built service client (testing).
func WithClient(c *Client) Option {
	return func(s *ScaleDown) { s.httpClient = c }
}

// New creates a ScaleDown compressor. An empty apiKey falls back to the
// process-wide key from config; if that is also empty, Compress fails with
// an errdefs.ErrAuthentication.
func New(apiKey string, opts ...Option) *ScaleDown {
	s := &ScaleDown{
		apiKey:  apiKey,
		model:   step.DefaultTargetModel,
		timeout: DefaultTimeout,
	}
	if s.apiKey == "" {
		s.apiKey = config.APIKey()
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.httpClient == nil {
		clientOpts := []ClientOption{WithClientTimeout(s.timeout)}
		if s.endpoint != "" {
			clientOpts = append(clientOpts, WithEndpoint(s.endpoint))
		}
		s.httpClient = NewClient(s.apiKey, clientOpts...)
	}
	return s
}

// Component names this handler in audit trails.
func (s *ScaleDown) Component() string { return "scaledown_compressor" }

// Compress sends content to the service and returns the compressed result.
// LatencyMS is the wall-clock time of this invocation as measured here, not
// the server-side figure.
func (s *ScaleDown) Compress(ctx context.Context, content string, req step.Request) (*step.CompressedContent, error) {
	if s.apiKey == "" {
		return nil, errdefs.Authenticationf("no API key: pass one to compressor.New or call config.SetAPIKey")
	}

	start := time.Now()
	key := cacheKey(content, req.Instruction, s.model, s.rate, req.Budget)
	if s.cache != nil {
		if out, ok := s.cache.get(key); ok {
			out.LatencyMS = elapsedMS(start)
			return out, nil
		}
	}

	out, err := s.httpClient.Compress(ctx, CompressParams{
		Context:   content,
		Prompt:    req.Instruction,
		Model:     s.model,
		Rate:      s.rate,
		MaxTokens: req.Budget,
	})
	if err != nil {
		return nil, err
	}
	out.LatencyMS = elapsedMS(start)

	if s.cache != nil {
		s.cache.put(key, out)
	}
	return out, nil
}

// CompressBatch compresses items in parallel. results[i] corresponds to
// contents[i]; the first failing item aborts the batch.
func (s *ScaleDown) CompressBatch(ctx context.Context, contents []string, req step.Request) ([]*step.CompressedContent, error) {
	results := make([]*step.CompressedContent, len(contents))
	g, ctx := errgroup.WithContext(ctx)
	for i, content := range contents {
		g.Go(func() error {
			out, err := s.Compress(ctx, content, req)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Close releases the response cache janitor, if any.
func (s *ScaleDown) Close() error {
	if s.cache != nil {
		s.cache.close()
	}
	return nil
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
