// Package optimizer implements context optimizers: retrieval-backed steps
// that keep only the subset of a larger input relevant to a query.
//
// DESIGN: Haste delegates selection to a Retriever collaborator (the
// built-in KeywordRetriever, or anything else that satisfies the interface).
// Semantic embeds extracted units into an in-process vector index and
// queries it. Both report OptimizerMetrics priced by the tokenizer, and both
// can degrade to the unmodified source tagged with a fallback retrieval mode
// instead of failing. That is a per-step policy, never an engine-level retry.
package optimizer

import (
	"context"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/scaledown-ai/scaledown-go/step"
	"github.com/scaledown-ai/scaledown-go/tokenizer"
)

// Retrieval is what a Retriever hands back: the assembled content plus the
// units it was built from and a diagnostic mode tag.
type Retrieval struct {
	Content string
	Units   []string // headers of the retrieved units, in rank order
	Mode    string   // retrieval strategy tag, e.g. "keyword"
}

// Retriever is the retrieval collaborator behind the Haste optimizer.
type Retriever interface {
	// Retrieve selects the units of content most relevant to query. budget
	// is a token budget hint, 0 = unbounded.
	Retrieve(ctx context.Context, content, query string, budget int) (*Retrieval, error)
}

// options are shared across optimizer constructors.
type options struct {
	targetModel string
	countTokens step.TokenCounter
	topK        int
	fallback    bool
	embed       chromem.EmbeddingFunc
}

func defaultOptions() options {
	return options{
		targetModel: step.DefaultTargetModel,
		countTokens: tokenizer.Count,
		topK:        DefaultTopK,
	}
}

// Option configures an optimizer.
type Option func(*options)

// WithTargetModel sets the model whose tokenizer prices content.
func WithTargetModel(model string) Option {
	return func(o *options) { o.targetModel = model }
}

// WithTokenCounter overrides the token counter.
func WithTokenCounter(fn step.TokenCounter) Option {
	return func(o *options) { o.countTokens = fn }
}

// WithTopK sets how many units to retrieve.
func WithTopK(k int) Option {
	return func(o *options) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithFallback makes retrieval failures degrade to the unmodified source,
// tagged retrieval_mode=fallback_<reason>, instead of failing the run.
func WithFallback(enabled bool) Option {
	return func(o *options) { o.fallback = enabled }
}

// WithEmbeddingFunc sets the embedding backend for the Semantic optimizer.
func WithEmbeddingFunc(fn chromem.EmbeddingFunc) Option {
	return func(o *options) { o.embed = fn }
}

// fallbackContent passes the source through unchanged, tagged so the audit
// trail shows retrieval degraded rather than succeeded.
func fallbackContent(content string, tokens int, start time.Time, reason string) *step.OptimizedContent {
	return &step.OptimizedContent{
		Content: content,
		Metrics: step.OptimizerMetrics{
			OriginalTokens:   tokens,
			OptimizedTokens:  tokens,
			ChunksRetrieved:  0,
			CompressionRatio: 1.0,
			LatencyMS:        elapsedMS(start),
			RetrievalMode:    "fallback_" + reason,
			ASTFidelity:      1.0,
		},
	}
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
