// Package main is the scaledown CLI: it assembles a context-reduction
// pipeline from a YAML config and runs content through it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/scaledown-ai/scaledown-go/audit"
	"github.com/scaledown-ai/scaledown-go/config"
	"github.com/scaledown-ai/scaledown-go/logging"
	"github.com/scaledown-ai/scaledown-go/pipeline"
	"github.com/scaledown-ai/scaledown-go/step"
)

const version = "0.2.0"

func main() {
	loadEnvFiles()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "run":
			runCommand(os.Args[2:])
			return
		case "history":
			historyCommand(os.Args[2:])
			return
		case "version", "-v", "--version":
			fmt.Printf("scaledown %s\n", version)
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	// Default: run.
	runCommand(os.Args[1:])
}

// loadEnvFiles loads .env from standard locations.
func loadEnvFiles() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		_ = godotenv.Load()
		return
	}

	configEnv := filepath.Join(homeDir, ".config", "scaledown", ".env")
	if _, err := os.Stat(configEnv); err == nil {
		_ = godotenv.Load(configEnv)
	}

	// Local .env can override.
	_ = godotenv.Load()
}

func runCommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "pipeline config file (YAML); defaults apply when omitted")
	input := fs.String("input", "-", "content source: file path, or - for stdin")
	query := fs.String("query", "", "query guiding optimizer steps")
	instruction := fs.String("instruction", "", "instruction guiding compressor steps")
	budget := fs.Int("budget", 0, "target token budget (0 = unbounded)")
	file := fs.String("file", "", "source file for file-oriented optimizers")
	asJSON := fs.Bool("json", false, "emit the full result as JSON")
	_ = fs.Parse(args)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fatal(err)
		}
		cfg = loaded
	}

	logger := logging.Global(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	ensureAPIKey(cfg, logger)

	content, err := readContent(*input)
	if err != nil {
		fatal(err)
	}

	p, closeSteps, err := buildPipeline(cfg, logger)
	if err != nil {
		fatal(err)
	}
	defer closeSteps()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := p.Run(ctx, content, step.Request{
		Query:       *query,
		Instruction: *instruction,
		Budget:      *budget,
		FilePath:    *file,
	})
	if err != nil {
		fatal(err)
	}

	if cfg.Audit.Enabled {
		if rec, err := audit.Open(cfg.Audit.Path); err != nil {
			logger.Warn().Err(err).Msg("audit recording unavailable")
		} else {
			if err := rec.Record(ctx, result); err != nil {
				logger.Warn().Err(err).Msg("audit record failed")
			}
			rec.Close()
		}
	}

	if *asJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fatal(err)
		}
		fmt.Println(string(out))
		return
	}

	fmt.Println(result.FinalContent)
	printHistory(os.Stderr, result)
}

// ensureAPIKey prompts for a key on a TTY when the compressor needs one and
// none is configured.
func ensureAPIKey(cfg *config.File, logger zerolog.Logger) {
	if !cfg.Compressor.Enabled || config.APIKey() != "" {
		return
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		logger.Warn().Msgf("no API key configured; set %s or the compressor step will fail", config.EnvAPIKey)
		return
	}
	fmt.Fprint(os.Stderr, "ScaleDown API key: ")
	key, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return
	}
	config.SetAPIKey(strings.TrimSpace(string(key)))
}

func readContent(input string) (string, error) {
	if input == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return "", fmt.Errorf("read input %q: %w", input, err)
	}
	return string(data), nil
}

func printHistory(w io.Writer, result *pipeline.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "STEP\tTYPE\tIN\tOUT\tLATENCY\n")
	for _, m := range result.History {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.1fms\n",
			m.StepName, m.Details.Type, m.InputTokens, m.OutputTokens, m.LatencyMS)
	}
	fmt.Fprintf(tw, "total\t%d steps\t%d\t%d\t%.1fms\n",
		len(result.History), result.InputTokens(), result.OutputTokens(), result.TotalLatencyMS())
	tw.Flush()
}

func historyCommand(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", "", "pipeline config file (YAML)")
	limit := fs.Int("n", 20, "number of runs to list")
	runID := fs.String("run", "", "show the step history of one run")
	_ = fs.Parse(args)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fatal(err)
		}
		cfg = loaded
	}
	if !cfg.Audit.Enabled || cfg.Audit.Path == "" {
		fatal(fmt.Errorf("audit is not enabled in the configuration"))
	}

	rec, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		fatal(err)
	}
	defer rec.Close()

	ctx := context.Background()

	if *runID != "" {
		history, err := rec.History(ctx, *runID)
		if err != nil {
			fatal(err)
		}
		printHistory(os.Stdout, &pipeline.Result{RunID: *runID, History: history})
		return
	}

	runs, err := rec.Recent(ctx, *limit)
	if err != nil {
		fatal(err)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "RUN\tWHEN\tSTEPS\tIN\tOUT\tLATENCY\n")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%.1fms\n",
			r.RunID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Steps, r.InputTokens, r.OutputTokens, r.LatencyMS)
	}
	tw.Flush()
}

func printHelp() {
	fmt.Print(`scaledown - context-reduction pipeline for LLM prompts

Usage:
  scaledown [run] [flags]    run content through the configured pipeline
  scaledown history [flags]  list recorded runs (requires audit enabled)
  scaledown version          print version
  scaledown help             this help

Run flags:
  -config path     pipeline config file (YAML)
  -input path      content source (default: stdin)
  -query text      query guiding optimizer steps
  -instruction t   instruction guiding compressor steps
  -budget n        target token budget
  -file path       source file for file-oriented optimizers
  -json            emit the full result as JSON

Environment:
  SCALEDOWN_API_KEY  compression service credential
  SCALEDOWN_API_URL  compression service URL override
`)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "scaledown: %v\n", err)
	os.Exit(1)
}
