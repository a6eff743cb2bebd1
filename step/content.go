package step

// OptimizerMetrics captures one optimizer invocation.
type OptimizerMetrics struct {
	OriginalTokens   int     `json:"original_tokens"`
	OptimizedTokens  int     `json:"optimized_tokens"`
	ChunksRetrieved  int     `json:"chunks_retrieved"`
	CompressionRatio float64 `json:"compression_ratio"`
	LatencyMS        float64 `json:"latency_ms"`
	RetrievalMode    string  `json:"retrieval_mode"`
	ASTFidelity      float64 `json:"ast_fidelity"`
}

// Ratio derives original/optimized with a floor of one optimized token.
func Ratio(originalTokens, optimizedTokens int) float64 {
	if optimizedTokens < 1 {
		optimizedTokens = 1
	}
	return float64(originalTokens) / float64(optimizedTokens)
}

// OptimizedContent is the output of an Optimizer step.
type OptimizedContent struct {
	Content string           `json:"content"`
	Metrics OptimizerMetrics `json:"metrics"`
}

// CompressedContent is the output of a Compressor step.
type CompressedContent struct {
	Content string `json:"content"`

	// Tokens holds [original, compressed] counts as reported by the
	// compression backend.
	Tokens [2]int `json:"tokens"`

	// LatencyMS is wall-clock time for the step's invocation, measured by
	// the step itself.
	LatencyMS float64 `json:"latency_ms"`

	ModelUsed string `json:"model_used,omitempty"`
}

// OriginalTokens returns the token count before compression.
func (c *CompressedContent) OriginalTokens() int { return c.Tokens[0] }

// CompressedTokens returns the token count after compression.
func (c *CompressedContent) CompressedTokens() int { return c.Tokens[1] }

// SavingsPercent returns the relative token reduction. 0 when the backend
// reported no original tokens.
func (c *CompressedContent) SavingsPercent() float64 {
	if c.Tokens[0] <= 0 {
		return 0
	}
	return 100 * (1 - float64(c.Tokens[1])/float64(c.Tokens[0]))
}
