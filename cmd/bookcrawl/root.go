package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/aluiziolira/go-crawl-books/config"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookcrawl [start-url]",
		Short: "Crawl a book catalogue serially and in parallel and compare",
		Long: `bookcrawl follows every category link reachable from the start page,
aggregates price and rating statistics for each listed book, and runs the
crawl twice: once serially and once with one task per page. The report
shows both timings and whether the two runs agreed.

Configuration is read from defaults, then the YAML config file, then
BOOKCRAWL_* environment variables, then flags.

Examples:
  bookcrawl
  bookcrawl https://books.toscrape.com/index.html -o out/results.json -f json
  bookcrawl --metrics-addr :9090 -v`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRootCmd,
	}

	defaults := config.DefaultConfig()
	flags := cmd.Flags()
	flags.String("config", "", "Path to a YAML config file (default "+config.DefaultConfigPath()+")")
	flags.String("start-url", defaults.StartURL, "Page to start crawling from")
	flags.Duration("timeout", defaults.Timeout, "Per-request timeout")
	flags.Int("max-retries", defaults.MaxRetries, "Retry attempts per URL after the first request")
	flags.Int("max-in-flight", defaults.MaxInFlight, "Cap on concurrent requests, 0 for unbounded")
	flags.StringP("output", "o", defaults.OutputFile, "Report file path")
	flags.StringP("format", "f", defaults.OutputFormat, "Report file format: text, json, markdown or csv")
	flags.String("user-agent", defaults.UserAgent, "User-Agent header sent with requests")
	flags.String("metrics-addr", defaults.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	flags.BoolP("verbose", "v", false, "Enable verbose logging")

	return cmd
}

func runRootCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	h := &harness{
		cfg:    cfg,
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
	}
	return h.run(cmd.Context())
}

// resolveConfig layers explicitly set flags over config.Load.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	flags := cmd.Flags()
	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("start-url") {
		cfg.StartURL, _ = flags.GetString("start-url")
	}
	if len(args) == 1 {
		cfg.StartURL = args[0]
	}
	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("max-retries") {
		cfg.MaxRetries, _ = flags.GetInt("max-retries")
	}
	if flags.Changed("max-in-flight") {
		cfg.MaxInFlight, _ = flags.GetInt("max-in-flight")
	}
	if flags.Changed("output") {
		cfg.OutputFile, _ = flags.GetString("output")
	}
	if flags.Changed("format") {
		format, _ := flags.GetString("format")
		cfg.OutputFormat = strings.ToLower(format)
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent, _ = flags.GetString("user-agent")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
	if flags.Changed("verbose") {
		cfg.Verbose, _ = flags.GetBool("verbose")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger logs to stderr; stdout carries the report.
func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
