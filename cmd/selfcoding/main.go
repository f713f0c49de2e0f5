// Command selfcoding runs self-improvement cycles for one or more coding
// tasks and prints the consolidated learning report as JSON.
//
// Usage:
//
//	selfcoding [-config config.yaml] [-report] "task description" ...
//
// The API key is taken from the configuration file or, when absent, from the
// ANTHROPIC_API_KEY environment variable.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nihalnihalani/SelfCoding/pkg/config"
	"github.com/nihalnihalani/SelfCoding/pkg/engine"
	"github.com/nihalnihalani/SelfCoding/pkg/llm"
	"github.com/nihalnihalani/SelfCoding/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	reportOnly := flag.Bool("report", false, "print the learning report after the cycles instead of per-cycle results")
	flag.Parse()

	tasks := flag.Args()
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "usage: selfcoding [-config config.yaml] [-report] \"task description\" ...")
		os.Exit(2)
	}

	if err := run(*configPath, *reportOnly, tasks); err != nil {
		fmt.Fprintf(os.Stderr, "selfcoding: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, reportOnly bool, tasks []string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	closeLogs, err := setupLogging(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLogs()
	logger := logging.GetLogger()

	apiKey := cfg.LLM.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	anthropic, err := llm.NewAnthropicClient(apiKey, cfg.LLM.ModelID,
		llm.WithTimeout(cfg.LLM.Timeout),
		llm.WithMaxTokens(cfg.LLM.MaxTokens),
	)
	if err != nil {
		return err
	}

	var client llm.CapabilityClient = anthropic
	if cfg.LLM.CacheEnabled {
		cached, err := llm.NewCachedClient(anthropic, cfg.LLM.CacheMaxCost)
		if err != nil {
			return err
		}
		defer cached.Close()
		client = cached
	}

	eng, err := engine.New(cfg, client)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")

	for _, task := range tasks {
		result, err := eng.RunCycle(ctx, task, nil)
		if err != nil {
			return err
		}
		if result.Err != "" {
			logger.Warn(ctx, "cycle for %q did not complete cleanly: %s", task, result.Err)
		}
		if !reportOnly {
			if err := out.Encode(result); err != nil {
				return err
			}
		}
		if ctx.Err() != nil {
			logger.Info(ctx, "interrupted, stopping after %q", task)
			break
		}
	}

	if reportOnly {
		return out.Encode(eng.Report())
	}
	return nil
}

// setupLogging installs the global logger from configuration: console always,
// plus a JSON file sink when one is configured. The returned func flushes and
// closes the outputs.
func setupLogging(cfg config.LoggingConfig) (func(), error) {
	outputs := []logging.Output{logging.NewConsoleOutput(true)}
	if cfg.File != "" {
		fileOutput, err := logging.NewFileOutput(cfg.File)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, fileOutput)
	}

	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: logging.ParseSeverity(cfg.Level),
		Outputs:  outputs,
	}))

	return func() {
		for _, output := range outputs {
			output.Sync()
			output.Close()
		}
	}, nil
}
