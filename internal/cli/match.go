package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/searchserver"
)

func newMatchCmd(a *app) *cobra.Command {
	var (
		src    sources
		policy string
		ids    []int
	)
	cmd := &cobra.Command{
		Use:   "match [flags] QUERY",
		Short: "Show which query words each document contains",
		Args:  cobra.ExactArgs(1),
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
			if len(ids) == 0 {
				ids = s.DocumentIDs()
			}
			out := cmd.OutOrStdout()
			for _, id := range ids {
				res, err := s.MatchDocumentWith(p, args[0], id)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "{ document_id = %d, status = %s, words = %v }\n", id, res.Status, res.Words)
			}
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&policy, "policy", "", "sequential or parallel (default search.policy)")
	cmd.Flags().IntSliceVar(&ids, "id", nil, "documents to match (default all)")
	return cmd
}
