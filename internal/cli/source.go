package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/searchserver"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/tracing"
)

// sources selects where the corpus comes from. They are loaded in the order
// file, postgres, kafka.
type sources struct {
	file     string
	postgres bool
	kafkaFor time.Duration
}

func (s *sources) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&s.file, "file", "f", "", "JSON lines corpus file")
	flags.BoolVar(&s.postgres, "postgres", false, "load documents from the configured PostgreSQL table")
	flags.DurationVar(&s.kafkaFor, "kafka-for", 0, "consume document events from Kafka for this long")
}

// newServer builds an empty server from the configuration.
func (a *app) newServer() (*searchserver.Server, error) {
	return searchserver.NewFromText(a.cfg.Index.StopWords,
		searchserver.WithBuckets(a.cfg.Index.Buckets),
		searchserver.WithWorkers(a.cfg.Index.Workers),
		searchserver.WithLogger(logger.WithComponent("searchserver")),
		searchserver.WithMetrics(a.metrics),
	)
}

// load builds a server and fills it from src.
func (a *app) load(ctx context.Context, src sources) (*searchserver.Server, error) {
	s, err := a.newServer()
	if err != nil {
		return nil, err
	}
	log := logger.WithComponent("cli")
	if src.file == "" && !src.postgres && src.kafkaFor <= 0 {
		log.Warn("no corpus source given, the index is empty")
	}
	if src.file != "" {
		if err := a.loadFile(s, src.file); err != nil {
			return nil, err
		}
	}
	if src.postgres {
		if err := a.loadPostgres(ctx, s); err != nil {
			return nil, err
		}
	}
	if src.kafkaFor > 0 {
		if err := a.loadKafka(ctx, s, src.kafkaFor); err != nil {
			return nil, err
		}
	}
	log.Info("corpus loaded", "documents", s.DocumentCount())
	return s, nil
}

func (a *app) loadFile(s *searchserver.Server, path string) error {
	span := tracing.Start("load corpus file", "path", path)
	defer span.End()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()
	docs, err := corpus.ReadJSONL(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	report := corpus.Load(s, docs, logger.WithComponent("corpus"), progress(len(docs), "Indexing "+path))
	span.SetAttr("added", report.Added)
	span.SetAttr("rejected", len(report.Failures))
	return nil
}

func (a *app) loadPostgres(ctx context.Context, s *searchserver.Server) error {
	span := tracing.Start("load corpus table", "table", a.cfg.Postgres.Table)
	defer span.End()

	var client *postgres.Client
	err := resilience.Retry(ctx, "postgres connect", resilience.RetryConfig{}, func(ctx context.Context) error {
		c, err := postgres.New(ctx, a.cfg.Postgres)
		if err != nil {
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return err
	}
	defer client.Close()

	var docs []corpus.Document
	err = client.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		docs, err = corpus.LoadPostgres(ctx, tx, client.Table())
		return err
	})
	if err != nil {
		return err
	}
	report := corpus.Load(s, docs, logger.WithComponent("corpus"), progress(len(docs), "Indexing "+client.Table()))
	span.SetAttr("added", report.Added)
	span.SetAttr("rejected", len(report.Failures))
	return nil
}

// loadKafka applies document events until d has passed. The consumer is the
// only goroutine touching s while it runs.
func (a *app) loadKafka(ctx context.Context, s *searchserver.Server, d time.Duration) error {
	span := tracing.Start("consume document events", "topic", a.cfg.Kafka.DocumentTopic)
	defer span.End()

	kctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	c := kafka.NewConsumer(a.cfg.Kafka, a.cfg.Kafka.DocumentTopic, consumer.HandleMessage(s))
	if err := c.Start(kctx); err != nil {
		return fmt.Errorf("consuming %s: %w", a.cfg.Kafka.DocumentTopic, err)
	}
	span.SetAttr("documents", s.DocumentCount())
	return ctx.Err()
}

// progress returns a per-document tick that drives a progress bar on
// stderr, or nil when stderr is not a terminal.
func progress(total int, description string) func() {
	fd := os.Stderr.Fd()
	if total == 0 || !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) {
		return nil
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
	return func() {
		_ = bar.Add(1)
	}
}
