package audit_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaledown-ai/scaledown-go/audit"
	"github.com/scaledown-ai/scaledown-go/errdefs"
	"github.com/scaledown-ai/scaledown-go/pipeline"
)

func sampleResult(runID string) *pipeline.Result {
	return &pipeline.Result{
		RunID:        runID,
		FinalContent: "f()",
		History: []pipeline.StepMetadata{
			{
				StepName:     "keyword",
				InputTokens:  20,
				OutputTokens: 10,
				LatencyMS:    3.5,
				Details:      pipeline.Details{Type: pipeline.TypeOptimization, Component: "haste_optimizer"},
			},
			{
				StepName:     "scaledown",
				InputTokens:  10,
				OutputTokens: 5,
				LatencyMS:    120.25,
				Details:      pipeline.Details{Type: pipeline.TypeCompression, Component: "scaledown_compressor"},
			},
		},
	}
}

func openRecorder(t *testing.T) *audit.Recorder {
	t.Helper()
	rec, err := audit.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })
	return rec
}

func TestRecordAndHistory(t *testing.T) {
	rec := openRecorder(t)
	ctx := context.Background()

	require.NoError(t, rec.Record(ctx, sampleResult("run-1")))

	history, err := rec.History(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "keyword", history[0].StepName)
	assert.Equal(t, 20, history[0].InputTokens)
	assert.Equal(t, pipeline.TypeCompression, history[1].Details.Type)
	assert.Equal(t, "scaledown_compressor", history[1].Details.Component)
	assert.InDelta(t, 120.25, history[1].LatencyMS, 1e-9)
}

func TestRecent(t *testing.T) {
	rec := openRecorder(t)
	ctx := context.Background()

	for _, id := range []string{"run-a", "run-b", "run-c"} {
		require.NoError(t, rec.Record(ctx, sampleResult(id)))
	}

	runs, err := rec.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, r := range runs {
		assert.Equal(t, 2, r.Steps)
		assert.Equal(t, 20, r.InputTokens)
		assert.Equal(t, 5, r.OutputTokens)
		assert.False(t, r.CreatedAt.IsZero())
	}

	all, err := rec.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestHistory_UnknownRun(t *testing.T) {
	rec := openRecorder(t)
	_, err := rec.History(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errdefs.IsNotFound(err))
	assert.Contains(t, err.Error(), "missing")
}

func TestRecord_DuplicateRunIDRejected(t *testing.T) {
	rec := openRecorder(t)
	ctx := context.Background()

	require.NoError(t, rec.Record(ctx, sampleResult("run-1")))
	assert.Error(t, rec.Record(ctx, sampleResult("run-1")))
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	rec, err := audit.Open(path)
	require.NoError(t, err)
	defer rec.Close()

	require.NoError(t, rec.Record(context.Background(), sampleResult("run-1")))
}
