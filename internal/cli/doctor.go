package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/redis"
)

func newDoctorCmd(a *app) *cobra.Command {
	var (
		timeout time.Duration
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check connectivity to Redis, PostgreSQL and Kafka",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			checker := health.NewChecker(timeout)
			checker.RegisterPing("redis", func(ctx context.Context) error {
				c, err := pkgredis.NewClient(ctx, a.cfg.Redis)
				if err != nil {
					return err
				}
				defer c.Close()
				return c.Ping(ctx)
			})
			checker.RegisterPing("postgres", func(ctx context.Context) error {
				c, err := postgres.New(ctx, a.cfg.Postgres)
				if err != nil {
					return err
				}
				defer c.Close()
				return c.Ping(ctx)
			})
			checker.RegisterPing("kafka", func(ctx context.Context) error {
				return kafka.Ping(ctx, a.cfg.Kafka)
			})

			report := checker.Run(cmd.Context())
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				for _, name := range report.Names() {
					c := report.Components[name]
					fmt.Fprintf(out, "%-10s %-9s %8s %s\n", name, c.Status, c.Latency, c.Message)
				}
			}
			if report.Status == health.StatusDown {
				return fmt.Errorf("one or more dependencies are down")
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "per-dependency check timeout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
