package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/tracing"
)

func newPublishCmd(a *app) *cobra.Command {
	var remove []int
	cmd := &cobra.Command{
		Use:   "publish [FILE]",
		Short: "Publish add events for a JSON lines corpus, and remove events, to Kafka",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var events []kafka.Event
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening corpus: %w", err)
				}
				docs, err := corpus.ReadJSONL(f)
				f.Close()
				if err != nil {
					return fmt.Errorf("reading %s: %w", args[0], err)
				}
				for _, doc := range docs {
					events = append(events, consumer.AddEvent(doc))
				}
			}
			for _, id := range remove {
				events = append(events, consumer.RemoveEvent(id))
			}
			if len(events) == 0 {
				return fmt.Errorf("nothing to publish: give a corpus file or --remove ids")
			}

			topic := a.cfg.Kafka.DocumentTopic
			span := tracing.Start("publish document events", "topic", topic, "events", len(events))
			defer span.End()
			producer := kafka.NewProducer(a.cfg.Kafka, topic)
			defer producer.Close()
			if err := producer.PublishBatch(cmd.Context(), events); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %d events to %s\n", len(events), topic)
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&remove, "remove", nil, "document ids to publish remove events for")
	return cmd
}
