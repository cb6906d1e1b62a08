package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/dedup"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/logger"
)

func newDedupeCmd(a *app) *cobra.Command {
	var src sources
	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Report and remove documents that repeat an earlier document's words",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.load(cmd.Context(), src)
			if err != nil {
				return err
			}
			removed := dedup.RemoveDuplicates(s, dedup.WithLogger(logger.WithComponent("dedup")))
			out := cmd.OutOrStdout()
			for _, id := range removed {
				fmt.Fprintf(out, "Found duplicate document id %d\n", id)
			}
			fmt.Fprintf(out, "%d duplicates removed, %d documents remain\n", len(removed), s.DocumentCount())
			return nil
		},
	}
	src.register(cmd)
	return cmd
}
