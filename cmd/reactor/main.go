package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/internal/config"
	"github.com/vango-dev/reactor/internal/errors"
	"github.com/vango-dev/reactor/pkg/reactive"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries the state shared by every command: the loaded configuration
// and a logger whose level can change while the process runs.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	level  *slog.LevelVar
	logger *slog.Logger

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		level:  new(slog.LevelVar),
		stdout: stdout,
		stderr: stderr,
	}

	rootCmd := &cobra.Command{
		Use:   "reactor",
		Short: "Fine-grained reactive dependency tracking",
		Long: `Reactor tracks which reactive values each effect reads and re-runs
exactly the effects whose inputs changed.

  • demo   replays the engine's behaviours as readable transcripts
  • serve  exposes a reactive object over HTTP with a live change feed`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to reactor.yaml (default ./reactor.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(
		demoCmd(a),
		serveCmd(a),
		configCmd(a),
		versionCmd(a),
	)
	return rootCmd
}

// load reads the configuration and builds the logger.
func (a *app) load() error {
	var err error
	switch {
	case a.configPath != "":
		a.cfg, err = config.LoadFile(a.configPath)
	case config.Exists("."):
		a.cfg, err = config.Load(".")
	default:
		a.cfg = config.New()
	}
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
		if err := a.cfg.Validate(); err != nil {
			return err
		}
	}

	a.level.Set(a.cfg.SlogLevel())
	a.logger = newLogger(a.stderr, a.cfg.Log.Format, a.level)
	return nil
}

// engineOptions translates the engine section of the config.
func (a *app) engineOptions(observers ...reactive.Observer) []reactive.Option {
	opts := []reactive.Option{
		reactive.WithLogger(a.logger),
		reactive.WithMaxDepth(a.cfg.Engine.MaxDepth),
		reactive.WithRunBudget(a.cfg.Engine.MaxRunsPerTick),
	}
	if a.cfg.Engine.OwnerCheck {
		opts = append(opts, reactive.WithOwnerCheck())
	}
	for _, obs := range observers {
		opts = append(opts, reactive.WithObserver(obs))
	}
	return opts
}

func newLogger(w io.Writer, format string, level slog.Leveler) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// printf writes a line to the command's output.
func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}
