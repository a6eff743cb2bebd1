package pipeline_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaledown-ai/scaledown-go/errdefs"
	"github.com/scaledown-ai/scaledown-go/pipeline"
	"github.com/scaledown-ai/scaledown-go/step"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

// mockOptimizer returns fixed content and metrics, recording what it saw.
type mockOptimizer struct {
	content  string
	metrics  step.OptimizerMetrics
	err      error
	lastSeen string
	lastReq  step.Request
	calls    int
}

func (m *mockOptimizer) Optimize(_ context.Context, content string, req step.Request) (*step.OptimizedContent, error) {
	m.calls++
	m.lastSeen = content
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &step.OptimizedContent{Content: m.content, Metrics: m.metrics}, nil
}

func (m *mockOptimizer) Component() string { return "mock_optimizer" }

// mockCompressor returns fixed content and token counts, recording what it saw.
type mockCompressor struct {
	content  string
	tokens   [2]int
	latency  float64
	err      error
	lastSeen string
	lastReq  step.Request
	calls    int
}

func (m *mockCompressor) Compress(_ context.Context, content string, req step.Request) (*step.CompressedContent, error) {
	m.calls++
	m.lastSeen = content
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &step.CompressedContent{Content: m.content, Tokens: m.tokens, LatencyMS: m.latency}, nil
}

// countWords is a cheap deterministic token counter for tests.
func countWords(text, _ string) (int, error) {
	return len(strings.Fields(text)), nil
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

func TestNew_EmptyPipeline(t *testing.T) {
	_, err := pipeline.New(nil)
	require.Error(t, err)
	assert.True(t, errdefs.IsConfiguration(err))

	_, err = pipeline.New([]pipeline.Step{})
	require.Error(t, err)
	assert.True(t, errdefs.IsConfiguration(err))
}

func TestNew_OptimizerAfterCompressorRejected(t *testing.T) {
	opt := &mockOptimizer{}
	comp := &mockCompressor{}

	_, err := pipeline.New([]pipeline.Step{
		pipeline.Compress("comp", comp),
		pipeline.Optimize("opt", opt),
	})
	require.Error(t, err)
	assert.True(t, errdefs.IsConfiguration(err))
	assert.Contains(t, err.Error(), `"opt"`)

	// The identical sequence with compressors moved to the end constructs.
	_, err = pipeline.New([]pipeline.Step{
		pipeline.Optimize("opt", opt),
		pipeline.Compress("comp", comp),
	})
	require.NoError(t, err)
}

func TestNew_CustomStepsAreOrderNeutral(t *testing.T) {
	echo := func(_ context.Context, content string) (string, error) { return content, nil }

	_, err := pipeline.New([]pipeline.Step{
		pipeline.Compress("comp", &mockCompressor{}),
		pipeline.Custom("tail", echo),
	})
	require.NoError(t, err)

	_, err = pipeline.New([]pipeline.Step{
		pipeline.Custom("head", echo),
		pipeline.Optimize("opt", &mockOptimizer{}),
		pipeline.Custom("mid", echo),
		pipeline.Compress("comp", &mockCompressor{}),
	})
	require.NoError(t, err)
}

func TestNew_ZeroStepRejected(t *testing.T) {
	_, err := pipeline.New([]pipeline.Step{{}})
	require.Error(t, err)
	assert.True(t, errdefs.IsConfiguration(err))
}

func TestStep_LookupByName(t *testing.T) {
	first := &mockOptimizer{content: "first"}
	second := &mockOptimizer{content: "second"}

	p, err := pipeline.New([]pipeline.Step{
		pipeline.Optimize("dup", first),
		pipeline.Optimize("dup", second),
		pipeline.Compress("comp", &mockCompressor{}),
	})
	require.NoError(t, err)

	got, err := p.Step("dup")
	require.NoError(t, err)
	assert.Same(t, first, got.Optimizer(), "lookup returns the first match")

	_, err = p.Step("missing")
	require.Error(t, err)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestPipeline_NamesAndLen(t *testing.T) {
	p, err := pipeline.New([]pipeline.Step{
		pipeline.Optimize("a", &mockOptimizer{}),
		pipeline.Compress("b", &mockCompressor{}),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, []string{"a", "b"}, p.Names())
}
