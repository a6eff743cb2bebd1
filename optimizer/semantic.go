package optimizer

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/scaledown-ai/scaledown-go/errdefs"
	"github.com/scaledown-ai/scaledown-go/step"
)

// Semantic retrieves the units of a source most similar to the query using
// an in-process vector index.
//
// The embedding backend is resolved at construction and fails fast with an
// errdefs.ErrDependency when absent. Run-time embedding failures degrade to
// the unmodified source instead of aborting the run.
type Semantic struct {
	opts options
}

// NewSemantic creates a Semantic optimizer. Without WithEmbeddingFunc it
// uses OpenAI embeddings and requires OPENAI_API_KEY.
func NewSemantic(opts ...Option) (*Semantic, error) {
	s := &Semantic{opts: defaultOptions()}
	s.opts.topK = 3
	for _, opt := range opts {
		opt(&s.opts)
	}
	if s.opts.embed == nil {
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, errdefs.Dependencyf(
				"semantic optimizer needs an embedding backend: use WithEmbeddingFunc or set OPENAI_API_KEY")
		}
		s.opts.embed = chromem.NewEmbeddingFuncOpenAI(key, chromem.EmbeddingModelOpenAI3Small)
	}
	return s, nil
}

// Component names this handler in audit trails.
func (s *Semantic) Component() string { return "semantic_optimizer" }

// Optimize embeds the source units and returns the topK most similar to the
// query. An empty query searches for the main logic of the source.
func (s *Semantic) Optimize(ctx context.Context, content string, req step.Request) (*step.OptimizedContent, error) {
	start := time.Now()

	source := content
	if req.FilePath != "" {
		data, err := os.ReadFile(req.FilePath)
		if err != nil {
			return nil, errdefs.Validationf("read source file %q: %v", req.FilePath, err)
		}
		source = string(data)
	}
	if strings.TrimSpace(source) == "" {
		return nil, errdefs.Validationf("content or file_path with source is required for semantic optimization")
	}

	originalTokens, err := s.opts.countTokens(source, s.opts.targetModel)
	if err != nil {
		return nil, err
	}

	units := splitUnits(source)
	if len(units) == 0 {
		return fallbackContent(source, originalTokens, start, "no_units"), nil
	}

	db := chromem.NewDB()
	col, err := db.CreateCollection("context", nil, s.opts.embed)
	if err != nil {
		return fallbackContent(source, originalTokens, start, "index_init_failed"), nil
	}

	docs := make([]chromem.Document, len(units))
	for i, u := range units {
		docs[i] = chromem.Document{
			ID:       strconv.Itoa(i),
			Content:  u.body,
			Metadata: map[string]string{"header": u.header},
		}
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		// Embedding backend unreachable or rejected the input: degrade.
		return fallbackContent(source, originalTokens, start, "embedding_failed"), nil
	}

	query := req.Query
	if query == "" {
		query = "main logic"
	}
	k := s.opts.topK
	if k > len(units) {
		k = len(units)
	}
	results, err := col.Query(ctx, query, k, nil, nil)
	if err != nil {
		return fallbackContent(source, originalTokens, start, "query_failed"), nil
	}

	parts := make([]string, len(results))
	headers := make([]string, len(results))
	for i, res := range results {
		parts[i] = res.Content
		headers[i] = res.Metadata["header"]
	}
	selected := strings.Join(parts, "\n\n")

	optimizedTokens, err := s.opts.countTokens(selected, s.opts.targetModel)
	if err != nil {
		return nil, err
	}

	return &step.OptimizedContent{
		Content: selected,
		Metrics: step.OptimizerMetrics{
			OriginalTokens:   originalTokens,
			OptimizedTokens:  optimizedTokens,
			ChunksRetrieved:  len(results),
			CompressionRatio: step.Ratio(originalTokens, optimizedTokens),
			LatencyMS:        elapsedMS(start),
			RetrievalMode:    "semantic_search",
			ASTFidelity:      1.0,
		},
	}, nil
}
