package optimizer

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/scaledown-ai/scaledown-go/errdefs"
	"github.com/scaledown-ai/scaledown-go/step"
)

// Haste is a retrieval-backed optimizer: given code or prose and a query it
// keeps only the units its Retriever considers relevant. The name follows
// the hybrid AST-guided selection approach this step descends from.
type Haste struct {
	retriever Retriever
	opts      options
}

// NewHaste creates a Haste optimizer around the given retriever.
func NewHaste(r Retriever, opts ...Option) (*Haste, error) {
	if r == nil {
		return nil, errdefs.Configurationf("haste optimizer needs a retriever")
	}
	h := &Haste{retriever: r, opts: defaultOptions()}
	for _, opt := range opts {
		opt(&h.opts)
	}
	return h, nil
}

// Component names this handler in audit trails.
func (h *Haste) Component() string { return "haste_optimizer" }

// Optimize retrieves the units of the source relevant to the query.
//
// The source is req.FilePath when set, the in-band content otherwise. A
// query is required. Retrieval failures either degrade to the unmodified
// source (WithFallback) or abort the step.
func (h *Haste) Optimize(ctx context.Context, content string, req step.Request) (*step.OptimizedContent, error) {
	start := time.Now()

	if req.Query == "" {
		return nil, errdefs.Validationf("query is required for haste optimization")
	}

	source := content
	if req.FilePath != "" {
		data, err := os.ReadFile(req.FilePath)
		if err != nil {
			return nil, errdefs.Validationf("read source file %q: %v", req.FilePath, err)
		}
		source = string(data)
	}
	if strings.TrimSpace(source) == "" {
		return nil, errdefs.Validationf("content or file_path with source is required for haste optimization")
	}

	originalTokens, err := h.opts.countTokens(source, h.opts.targetModel)
	if err != nil {
		return nil, err
	}

	ret, err := h.retriever.Retrieve(ctx, source, req.Query, req.Budget)
	if err != nil {
		if h.opts.fallback {
			return fallbackContent(source, originalTokens, start, "retrieval_failed"), nil
		}
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	optimizedTokens, err := h.opts.countTokens(ret.Content, h.opts.targetModel)
	if err != nil {
		return nil, err
	}

	return &step.OptimizedContent{
		Content: ret.Content,
		Metrics: step.OptimizerMetrics{
			OriginalTokens:   originalTokens,
			OptimizedTokens:  optimizedTokens,
			ChunksRetrieved:  len(ret.Units),
			CompressionRatio: step.Ratio(originalTokens, optimizedTokens),
			LatencyMS:        elapsedMS(start),
			RetrievalMode:    ret.Mode,
			ASTFidelity:      1.0,
		},
	}, nil
}
