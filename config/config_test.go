package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaledown-ai/scaledown-go/config"
	"github.com/scaledown-ai/scaledown-go/errdefs"
)

func TestAPIKeyRoundTrip(t *testing.T) {
	prev := config.APIKey()
	defer config.SetAPIKey(prev)

	config.SetAPIKey("sk-test")
	assert.Equal(t, "sk-test", config.APIKey())

	config.SetAPIKey("")
	assert.Empty(t, config.APIKey())
}

func TestAPIURL(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "")
	assert.Equal(t, config.DefaultAPIURL, config.APIURL())

	t.Setenv(config.EnvAPIURL, "http://localhost:9999")
	assert.Equal(t, "http://localhost:9999", config.APIURL())
}

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, config.Default().Validate())
}

func TestLoadFromBytes(t *testing.T) {
	t.Setenv("TEST_SD_LEVEL", "debug")

	cfg, err := config.LoadFromBytes([]byte(`
target_model: claude-sonnet-4
logging:
  level: ${TEST_SD_LEVEL:-info}
  format: json
optimizer:
  strategy: semantic
  top_k: 3
compressor:
  enabled: true
  model: gpt-4o
  rate: 0.7
  timeout: 30s
  cache_ttl: 2m
`))
	require.NoError(t, err)

	assert.Equal(t, "claude-sonnet-4", cfg.TargetModel)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, config.StrategySemantic, cfg.Optimizer.Strategy)
	assert.Equal(t, 3, cfg.Optimizer.TopK)
	assert.Equal(t, 0.7, cfg.Compressor.Rate)
	assert.Equal(t, 30*time.Second, cfg.Compressor.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.Compressor.CacheTTL)
}

func TestLoadFromBytes_EnvDefaultApplies(t *testing.T) {
	t.Setenv("TEST_SD_UNSET", "")

	cfg, err := config.LoadFromBytes([]byte(`
logging:
  level: ${TEST_SD_UNSET:-warn}
`))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadFromBytes_UnknownKeyRejected(t *testing.T) {
	_, err := config.LoadFromBytes([]byte(`
target_model: gpt-4o
optimzer:
  strategy: keyword
`))
	require.Error(t, err)
	assert.True(t, errdefs.IsConfiguration(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.File)
	}{
		{"unknown strategy", func(f *config.File) { f.Optimizer.Strategy = "magic" }},
		{"negative top_k", func(f *config.File) { f.Optimizer.TopK = -1 }},
		{"rate above one", func(f *config.File) { f.Compressor.Rate = 1.5 }},
		{"negative rate", func(f *config.File) { f.Compressor.Rate = -0.1 }},
		{"enabled compressor without model", func(f *config.File) { f.Compressor.Model = "" }},
		{"audit without path", func(f *config.File) { f.Audit.Enabled = true; f.Audit.Path = "" }},
		{"empty target model", func(f *config.File) { f.TargetModel = "" }},
		{"unknown log format", func(f *config.File) { f.Logging.Format = "xml" }},
		{"no steps at all", func(f *config.File) {
			f.Optimizer.Strategy = config.StrategyOff
			f.Compressor.Enabled = false
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errdefs.IsConfiguration(err))
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/scaledown.yaml")
	require.Error(t, err)
	assert.True(t, errdefs.IsConfiguration(err))

	_, err = config.Load("")
	require.Error(t, err)
	assert.True(t, errdefs.IsConfiguration(err))
}
