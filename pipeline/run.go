package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/scaledown-ai/scaledown-go/step"
)

// Run executes every step in order, threading the output of step i into
// step i+1 while forwarding the request parameters unchanged to all steps.
//
// A step failure aborts the run: the error carries the failing step's name
// and the underlying errdefs class, and no Result is returned. Accumulated
// in-process history is discarded with the failure.
func (p *Pipeline) Run(ctx context.Context, content string, req step.Request) (*Result, error) {
	runID := uuid.New().String()
	original := content
	current := content
	history := make([]StepMetadata, 0, len(p.steps))

	for _, s := range p.steps {
		meta := StepMetadata{
			StepName: s.name,
			Details:  Details{Component: s.component()},
		}

		switch s.kind {
		case KindOptimizer:
			out, err := s.optimizer.Optimize(ctx, current, req)
			if err != nil {
				return nil, fmt.Errorf("step %q: %w", s.name, err)
			}
			current = out.Content
			meta.InputTokens = out.Metrics.OriginalTokens
			meta.OutputTokens = out.Metrics.OptimizedTokens
			meta.LatencyMS = out.Metrics.LatencyMS
			meta.Details.Type = TypeOptimization

		case KindCompressor:
			creq := req
			if creq.Instruction == "" {
				creq.Instruction = req.Query
			}
			out, err := s.compressor.Compress(ctx, current, creq)
			if err != nil {
				return nil, fmt.Errorf("step %q: %w", s.name, err)
			}
			current = out.Content
			meta.InputTokens = out.Tokens[0]
			meta.OutputTokens = out.Tokens[1]
			meta.LatencyMS = out.LatencyMS
			meta.Details.Type = TypeCompression

		case KindCustom:
			in := current
			out, err := s.custom(ctx, in)
			if err != nil {
				return nil, fmt.Errorf("step %q: %w", s.name, err)
			}
			inTokens, err := p.countTokens(in, p.targetModel)
			if err != nil {
				return nil, fmt.Errorf("step %q: %w", s.name, err)
			}
			outTokens, err := p.countTokens(out, p.targetModel)
			if err != nil {
				return nil, fmt.Errorf("step %q: %w", s.name, err)
			}
			current = out
			meta.InputTokens = inTokens
			meta.OutputTokens = outTokens
			meta.Details.Type = TypeCustom
		}

		history = append(history, meta)
		p.log.Debug().
			Str("run_id", runID).
			Str("step", s.name).
			Str("type", meta.Details.Type).
			Int("input_tokens", meta.InputTokens).
			Int("output_tokens", meta.OutputTokens).
			Float64("latency_ms", meta.LatencyMS).
			Msg("step complete")
	}

	p.log.Info().
		Str("run_id", runID).
		Int("steps", len(history)).
		Float64("latency_ms", (&Result{History: history}).TotalLatencyMS()).
		Msg("pipeline run complete")

	return &Result{
		RunID:           runID,
		FinalContent:    current,
		OriginalContent: original,
		History:         history,
	}, nil
}

// RunBatch runs each content item through the full pipeline independently
// and in parallel. No state is shared across items; results are
// position-aligned with the inputs. The first failing item aborts the batch.
func (p *Pipeline) RunBatch(ctx context.Context, contents []string, req step.Request) ([]*Result, error) {
	results := make([]*Result, len(contents))
	g, ctx := errgroup.WithContext(ctx)
	for i, content := range contents {
		g.Go(func() error {
			r, err := p.Run(ctx, content, req)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
