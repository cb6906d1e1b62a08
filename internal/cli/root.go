// Package cli implements the searchserver command: it loads a corpus from a
// JSON lines file, PostgreSQL or Kafka into an in-memory server and runs
// queries, matches and maintenance against it.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/metrics"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	cfgFile   string
	logLevel  string
	logFormat string

	cfg         *config.Config
	metrics     *metrics.Metrics
	stopMetrics func(context.Context) error

	// backend, when set, replaces the configured result cache backend.
	backend cache.Backend
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "searchserver",
		Short: "Embedded TF-IDF search over a document corpus",
		Long: `searchserver indexes documents with a rating and a status and answers
ranked keyword queries. Words prefixed with '-' exclude documents.

Example usage:
  searchserver query --file corpus.jsonl "fluffy cat -collar"
  searchserver match --file corpus.jsonl --id 2 "fluffy cat"
  searchserver dedupe --postgres
  searchserver publish corpus.jsonl`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "YAML config file (defaults and SS_* variables apply without one)")
	flags.StringVar(&a.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "override logging.format (text, json, auto)")

	root.AddCommand(
		newQueryCmd(a),
		newMatchCmd(a),
		newDedupeCmd(a),
		newIngestCmd(a),
		newPublishCmd(a),
		newDoctorCmd(a),
		newLoadtestCmd(a),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func (a *app) setup() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	a.cfg = cfg
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	registry := prometheus.NewRegistry()
	a.metrics = metrics.New(registry)
	if cfg.Metrics.Enabled {
		a.stopMetrics = metrics.StartServer(cfg.Metrics.Port, registry)
	}
	slog.Debug("configuration loaded", "config", a.cfgFile, "cache", cfg.Cache.Backend)
	return nil
}

func (a *app) teardown() error {
	if a.stopMetrics == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.stopMetrics(ctx)
}
