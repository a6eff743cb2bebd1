// Package step defines the capability contract a pipeline step satisfies.
//
// DESIGN: Two capabilities exist: Optimizer (select relevant sub-content
// for a query) and Compressor (rewrite content to use fewer tokens). Anything
// else runs as a generic CustomFunc. The pipeline engine dispatches on a
// closed step kind, not on runtime type inspection, so the set of
// capabilities is visible at compile time.
package step

import "context"

// DefaultTargetModel prices content when a step is not told otherwise.
const DefaultTargetModel = "gpt-4o"

// Request carries the side-channel parameters forwarded unchanged to every
// step in a run. A step ignores the fields it does not need.
type Request struct {
	// Query guides optimizers. Also the compressor instruction fallback.
	Query string

	// Instruction guides compressors. The engine resolves it to Query when
	// empty before a compressor step runs.
	Instruction string

	// Budget is the target token budget a step should aim for. 0 = unbounded.
	Budget int

	// FilePath points file-oriented optimizers at on-disk source. When set,
	// the file content replaces the in-band content as the retrieval source.
	FilePath string

	// Extra carries step-specific tags. Unrecognized keys are ignored.
	Extra map[string]string
}

// TokenCounter prices text for a target model. tokenizer.Count satisfies it;
// tests inject cheaper fakes.
type TokenCounter func(text, model string) (int, error)

// Optimizer selects a relevant subset of larger content for a query, trading
// completeness for token budget.
type Optimizer interface {
	Optimize(ctx context.Context, content string, req Request) (*OptimizedContent, error)
}

// Compressor rewrites content to reduce token count while preserving the
// instruction's intent.
type Compressor interface {
	Compress(ctx context.Context, content string, req Request) (*CompressedContent, error)
}

// CustomFunc is a generic content transform usable as a pipeline step.
type CustomFunc func(ctx context.Context, content string) (string, error)
