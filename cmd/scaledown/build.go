package main

import (
	"github.com/rs/zerolog"

	"github.com/scaledown-ai/scaledown-go/compressor"
	"github.com/scaledown-ai/scaledown-go/config"
	"github.com/scaledown-ai/scaledown-go/optimizer"
	"github.com/scaledown-ai/scaledown-go/pipeline"
)

// buildPipeline assembles the pipeline described by the config. The returned
// closer releases step-held resources (compression cache janitor).
func buildPipeline(cfg *config.File, logger zerolog.Logger) (*pipeline.Pipeline, func(), error) {
	var steps []pipeline.Step
	closer := func() {}

	switch cfg.Optimizer.Strategy {
	case config.StrategyKeyword:
		h, err := optimizer.NewHaste(
			optimizer.NewKeywordRetriever(cfg.Optimizer.TopK),
			optimizer.WithTargetModel(cfg.TargetModel),
			optimizer.WithFallback(cfg.Optimizer.Fallback),
		)
		if err != nil {
			return nil, nil, err
		}
		steps = append(steps, pipeline.Optimize("keyword", h))

	case config.StrategySemantic:
		s, err := optimizer.NewSemantic(
			optimizer.WithTargetModel(cfg.TargetModel),
			optimizer.WithTopK(cfg.Optimizer.TopK),
		)
		if err != nil {
			return nil, nil, err
		}
		steps = append(steps, pipeline.Optimize("semantic", s))

	case config.StrategyOff, "":
		// No optimizer step.
	}

	if cfg.Compressor.Enabled {
		opts := []compressor.Option{
			compressor.WithModel(cfg.Compressor.Model),
			compressor.WithTimeout(cfg.Compressor.Timeout),
		}
		if cfg.Compressor.Rate > 0 {
			opts = append(opts, compressor.WithRate(cfg.Compressor.Rate))
		}
		if cfg.Compressor.CacheTTL > 0 {
			opts = append(opts, compressor.WithCacheTTL(cfg.Compressor.CacheTTL))
		}
		sd := compressor.New("", opts...)
		closer = func() { _ = sd.Close() }
		steps = append(steps, pipeline.Compress("scaledown", sd))
	}

	p, err := pipeline.New(steps,
		pipeline.WithTargetModel(cfg.TargetModel),
		pipeline.WithLogger(logger),
	)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return p, closer, nil
}
