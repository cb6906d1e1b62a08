package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/searchserver"
)

func newIngestCmd(a *app) *cobra.Command {
	var src sources
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load the given sources and summarise what was indexed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.load(cmd.Context(), src)
			if err != nil {
				return err
			}
			counts := make(map[searchserver.Status]int)
			for id := range s.IDs() {
				data, _ := s.Document(id)
				counts[data.Status]++
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "documents: %d\n", s.DocumentCount())
			for _, status := range []searchserver.Status{
				searchserver.StatusActual,
				searchserver.StatusIrrelevant,
				searchserver.StatusBanned,
				searchserver.StatusRemoved,
			} {
				fmt.Fprintf(out, "  %s: %d\n", status, counts[status])
			}
			fmt.Fprintf(out, "stop words: %s\n", strings.Join(s.StopWords(), " "))
			fmt.Fprintf(out, "generation: %d\n", s.Generation())
			return nil
		},
	}
	src.register(cmd)
	return cmd
}
