package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/loadtest"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/searchserver"
)

func newLoadtestCmd(a *app) *cobra.Command {
	var (
		src         sources
		policy      string
		concurrency int
		duration    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "loadtest [flags] QUERY...",
		Short: "Run queries from concurrent workers and report latency percentiles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if policy == "" {
				policy = a.cfg.Search.Policy
			}
			p, err := searchserver.ParsePolicy(policy)
			if err != nil {
				return err
			}
			s, err := a.load(cmd.Context(), src)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Documents:   %d\n", s.DocumentCount())
			fmt.Fprintf(out, "Concurrency: %d\n", concurrency)
			fmt.Fprintf(out, "Duration:    %s\n", duration)
			fmt.Fprintf(out, "Queries:     %d unique\n", len(args))
			fmt.Fprintln(out)

			start := time.Now()
			stats := loadtest.Run(cmd.Context(), s, loadtest.Config{
				Concurrency: concurrency,
				Duration:    duration,
				Queries:     args,
				Policy:      p,
			})
			report := stats.Report(time.Since(start))
			report.Print(out)
			if report.Total == 0 {
				return fmt.Errorf("no queries completed")
			}
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&policy, "policy", "", "sequential or parallel (default search.policy)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 10, "number of concurrent workers")
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "test duration")
	return cmd
}
