package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/batch"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/paginate"
	pkgredis "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/searchserver"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/tracing"
)

type queryFlags struct {
	src      sources
	policy   string
	status   string
	pageSize int
	joined   bool
	flush    bool
	asJSON   bool
}

func newQueryCmd(a *app) *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "query [flags] QUERY...",
		Short: "Print the top documents for each query, page by page",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), f, args)
		},
	}
	f.src.register(cmd)
	flags := cmd.Flags()
	flags.StringVar(&f.policy, "policy", "", "sequential or parallel (default search.policy)")
	flags.StringVar(&f.status, "status", "actual", "only return documents with this status")
	flags.IntVar(&f.pageSize, "page-size", 0, "results per page (default search.pageSize)")
	flags.BoolVar(&f.joined, "joined", false, "run all queries as one parallel batch over actual documents and print the concatenated results")
	flags.BoolVar(&f.flush, "flush-cache", false, "drop every entry of the configured result cache before querying")
	flags.BoolVar(&f.asJSON, "json", false, "print pages as JSON")
	return cmd
}

func (a *app) runQuery(ctx context.Context, out, errOut io.Writer, f queryFlags, queries []string) error {
	if f.policy == "" {
		f.policy = a.cfg.Search.Policy
	}
	if f.pageSize == 0 {
		f.pageSize = a.cfg.Search.PageSize
	}
	policy, err := searchserver.ParsePolicy(f.policy)
	if err != nil {
		return err
	}
	status, err := searchserver.ParseStatus(f.status)
	if err != nil {
		return err
	}
	s, err := a.load(ctx, f.src)
	if err != nil {
		return err
	}

	var qc *cache.QueryCache
	if f.joined || f.flush {
		var closeCache func()
		qc, closeCache = a.newCache(ctx)
		defer closeCache()
	}
	if f.flush && qc != nil {
		if err := qc.Invalidate(ctx); err != nil {
			return err
		}
	}

	if f.joined {
		runner := batch.New(s,
			batch.WithWorkers(a.cfg.Index.Workers),
			batch.WithCache(qc),
			batch.WithLogger(logger.WithComponent("batch-runner")),
		)
		span := tracing.Start("process queries joined", "queries", len(queries))
		docs, err := runner.ProcessQueriesJoined(ctx, queries)
		span.End()
		if err != nil {
			return err
		}
		return printPages(out, docs, f.pageSize, f.asJSON)
	}

	window := analytics.NewWindow(s,
		analytics.WithSize(a.cfg.Analytics.WindowSize),
		analytics.WithLogger(logger.WithComponent("analytics")),
		analytics.WithMetrics(a.metrics),
	)
	failed := 0
	for _, q := range queries {
		span := tracing.Start("find top documents", "query", q, "policy", policy.String())
		docs, err := window.AddFindRequest(q, searchserver.WithPolicy(policy), searchserver.WithStatus(status))
		span.End()
		if err != nil {
			failed++
			fmt.Fprintf(errOut, "Error in query %q: %v\n", q, err)
			continue
		}
		if !f.asJSON {
			fmt.Fprintf(out, "Results for query %q:\n", q)
		}
		if err := printPages(out, docs, f.pageSize, f.asJSON); err != nil {
			return err
		}
	}
	if !f.asJSON {
		fmt.Fprintf(out, "Total empty results: %d\n", window.NoResultRequests())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d queries failed", failed, len(queries))
	}
	return nil
}

// newCache builds the configured result cache. An unreachable Redis disables
// caching rather than failing the command.
func (a *app) newCache(ctx context.Context) (*cache.QueryCache, func()) {
	log := logger.WithComponent("cli")
	opts := []cache.Option{
		cache.WithLogger(logger.WithComponent("query-cache")),
		cache.WithMetrics(a.metrics),
	}
	if a.backend != nil {
		return cache.New(a.backend, opts...), func() {}
	}
	switch a.cfg.Cache.Backend {
	case "lru":
		backend, err := cache.NewLRUBackend(a.cfg.Cache.Size)
		if err != nil {
			log.Warn("lru cache unavailable, search caching disabled", "error", err)
			return nil, func() {}
		}
		return cache.New(backend, opts...), func() {}
	case "redis":
		var client *pkgredis.Client
		err := resilience.Retry(ctx, "redis connect", resilience.RetryConfig{}, func(ctx context.Context) error {
			c, err := pkgredis.NewClient(ctx, a.cfg.Redis)
			if err != nil {
				return err
			}
			client = c
			return nil
		})
		if err != nil {
			log.Warn("redis unavailable, search caching disabled", "error", err)
			return nil, func() {}
		}
		log.Info("search cache enabled", "addr", a.cfg.Redis.Addr, "ttl", a.cfg.Cache.TTL)
		return cache.New(cache.NewRedisBackend(client, a.cfg.Cache.TTL), opts...), func() { _ = client.Close() }
	default:
		return nil, func() {}
	}
}

func printPages(out io.Writer, docs []searchserver.Document, pageSize int, asJSON bool) error {
	p, err := paginate.New(docs, pageSize)
	if err != nil {
		return err
	}
	if asJSON {
		pages := slices.Collect(p.Pages())
		if pages == nil {
			pages = [][]searchserver.Document{}
		}
		return json.NewEncoder(out).Encode(pages)
	}
	for page := range p.Pages() {
		for _, d := range page {
			fmt.Fprintln(out, formatDocument(d))
		}
		fmt.Fprintln(out, "Page break")
	}
	return nil
}

func formatDocument(d searchserver.Document) string {
	return fmt.Sprintf("{ document_id = %d, relevance = %g, rating = %d }", d.ID, d.Relevance, d.Rating)
}
