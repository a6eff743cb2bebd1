// Package pipeline chains optimizer and compressor steps into a single
// context-reduction run with a per-step audit trail.
//
// DESIGN: The engine is a thin, fail-fast orchestration loop. It owns no
// retries and no graceful degradation; fallback policy lives inside the
// concrete steps. Steps run sequentially; the output of step i is the input
// of step i+1. Structural rules (non-empty, optimizers before compressors)
// are checked once, at construction.
//
// FLOW:
//  1. Build steps with Optimize() / Compress() / Custom()
//  2. New() validates ordering
//  3. Run() dispatches each step by capability, threading content through
//  4. The Result carries the final payload plus one StepMetadata per step
package pipeline

import (
	"github.com/rs/zerolog"

	"github.com/scaledown-ai/scaledown-go/errdefs"
	"github.com/scaledown-ai/scaledown-go/step"
	"github.com/scaledown-ai/scaledown-go/tokenizer"
)

// Pipeline holds an ordered sequence of named steps.
type Pipeline struct {
	steps       []Step
	targetModel string
	countTokens step.TokenCounter
	log         zerolog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTargetModel sets the model whose tokenizer prices custom-step content.
func WithTargetModel(model string) Option {
	return func(p *Pipeline) { p.targetModel = model }
}

// WithTokenCounter overrides the token counter used for custom steps.
func WithTokenCounter(fn step.TokenCounter) Option {
	return func(p *Pipeline) { p.countTokens = fn }
}

// WithLogger attaches a logger for per-step diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// New builds a pipeline from ordered steps.
//
// Construction fails with an errdefs.ErrConfiguration when steps is empty or
// when an optimizer-capable step appears after a compressor-capable step.
// Custom steps do not affect the ordering check. The sequence is stored
// verbatim: no deduplication, no reordering.
func New(steps []Step, opts ...Option) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, errdefs.Configurationf("pipeline must have at least one step")
	}

	seenCompressor := false
	for _, s := range steps {
		switch s.kind {
		case KindCompressor:
			seenCompressor = true
		case KindOptimizer:
			if seenCompressor {
				return nil, errdefs.Configurationf(
					"optimizer %q cannot come after a compressor: pipeline order must be optimizers -> compressors", s.name)
			}
		case KindCustom:
			// Order-neutral.
		default:
			return nil, errdefs.Configurationf("step %q has no handler: use Optimize, Compress or Custom", s.name)
		}
	}

	p := &Pipeline{
		steps:       append([]Step(nil), steps...),
		targetModel: step.DefaultTargetModel,
		countTokens: tokenizer.Count,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Step returns the first step registered under name, or an
// errdefs.ErrNotFound when no step has that name.
func (p *Pipeline) Step(name string) (Step, error) {
	for _, s := range p.steps {
		if s.name == name {
			return s, nil
		}
	}
	return Step{}, errdefs.NotFoundf("step %q", name)
}

// Len returns the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

// Names returns the step names in pipeline order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.name
	}
	return names
}
