// YAML pipeline configuration for the CLI.
//
// Supports ${VAR:-default} env var expansion. Unknown keys are a
// construction-time error, not silently ignored.
package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scaledown-ai/scaledown-go/errdefs"
)

// Optimizer strategies selectable in the config file.
const (
	StrategyOff      = "off"      // No optimizer step
	StrategyKeyword  = "keyword"  // Local keyword-relevance retrieval
	StrategySemantic = "semantic" // Embedded vector search
)

// File is the root CLI configuration.
type File struct {
	TargetModel string           `yaml:"target_model"` // Model whose tokenizer prices content
	Logging     LoggingConfig    `yaml:"logging"`
	Optimizer   OptimizerConfig  `yaml:"optimizer"`
	Compressor  CompressorConfig `yaml:"compressor"`
	Audit       AuditConfig      `yaml:"audit"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | console
	Output string `yaml:"output"` // stdout | stderr | file path
}

// OptimizerConfig configures the optimizer step, if any.
type OptimizerConfig struct {
	Strategy string `yaml:"strategy"` // off | keyword | semantic
	TopK     int    `yaml:"top_k"`    // Units to retrieve (default 6)
	Fallback bool   `yaml:"fallback"` // Pass source through when retrieval fails
}

// CompressorConfig configures the ScaleDown compression step.
type CompressorConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Model    string        `yaml:"model"`     // Target model id sent to the service
	Rate     float64       `yaml:"rate"`      // Requested compression rate (0 = service default)
	Timeout  time.Duration `yaml:"timeout"`   // Per-call timeout
	CacheTTL time.Duration `yaml:"cache_ttl"` // Response cache TTL (0 = cache off)
}

// AuditConfig controls the local run-history database.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // SQLite file path
}

// Default returns a configuration that runs keyword optimization followed by
// API compression, logging to stderr.
func Default() *File {
	return &File{
		TargetModel: "gpt-4o",
		Logging:     LoggingConfig{Level: "info", Format: "console", Output: "stderr"},
		Optimizer:   OptimizerConfig{Strategy: StrategyKeyword, TopK: 6, Fallback: true},
		Compressor:  CompressorConfig{Enabled: true, Model: "gpt-4o", Timeout: 60 * time.Second},
	}
}

// envExpansion matches ${VAR} and ${VAR:-default}.
var envExpansion = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvWithDefaults expands environment variables, supporting both
// ${VAR} and ${VAR:-default} syntax.
func expandEnvWithDefaults(s string) string {
	return envExpansion.ReplaceAllStringFunc(s, func(match string) string {
		parts := envExpansion.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) > 2 {
			return parts[2]
		}
		return ""
	})
}

// Load reads a pipeline configuration from a YAML file.
func Load(path string) (*File, error) {
	if path == "" {
		return nil, errdefs.Configurationf("config file path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errdefs.Configurationf("read config file %q: %v", path, err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses a pipeline configuration from raw YAML bytes,
// expanding ${VAR:-default} references and validating the result. Unknown
// keys are rejected.
func LoadFromBytes(data []byte) (*File, error) {
	expanded := expandEnvWithDefaults(string(data))

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, errdefs.Configurationf("parse config file: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration eagerly so failures never surface
// mid-run.
func (f *File) Validate() error {
	if f.TargetModel == "" {
		return errdefs.Configurationf("target_model is required")
	}

	switch f.Optimizer.Strategy {
	case StrategyOff, StrategyKeyword, StrategySemantic, "":
	default:
		return errdefs.Configurationf(
			"optimizer: unknown strategy %q, must be %q, %q or %q",
			f.Optimizer.Strategy, StrategyOff, StrategyKeyword, StrategySemantic)
	}
	if f.Optimizer.TopK < 0 {
		return errdefs.Configurationf("optimizer: top_k must not be negative")
	}

	if f.Compressor.Enabled {
		if f.Compressor.Model == "" {
			return errdefs.Configurationf("compressor: model is required when enabled")
		}
		if f.Compressor.Rate < 0 || f.Compressor.Rate > 1 {
			return errdefs.Configurationf("compressor: rate %v out of range [0, 1]", f.Compressor.Rate)
		}
	}

	if f.Audit.Enabled && f.Audit.Path == "" {
		return errdefs.Configurationf("audit: path is required when enabled")
	}

	if (f.Optimizer.Strategy == StrategyOff || f.Optimizer.Strategy == "") && !f.Compressor.Enabled {
		return errdefs.Configurationf("pipeline needs at least one step: enable an optimizer or the compressor")
	}

	switch f.Logging.Format {
	case "", "json", "console":
	default:
		return errdefs.Configurationf("logging: unknown format %q", f.Logging.Format)
	}

	return nil
}

// String renders the effective configuration for logs.
func (f *File) String() string {
	return fmt.Sprintf("target_model=%s optimizer=%s compressor=%t audit=%t",
		f.TargetModel, f.Optimizer.Strategy, f.Compressor.Enabled, f.Audit.Enabled)
}
