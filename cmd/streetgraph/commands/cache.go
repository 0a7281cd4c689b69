package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
)

func (c *CLI) newCacheCmd() *cobra.Command {
	var filterJSON string

	cmd := &cobra.Command{
		Use:   "cache [keys...]",
		Short: "Cache image nodes and their navigation edges",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return nil
			}

			if filterJSON != "" {
				var raw []any
				if err := json.Unmarshal([]byte(filterJSON), &raw); err != nil {
					return zerr.Wrap(err, "failed to parse filter expression")
				}
				if err := c.app.SetFilter(raw); err != nil {
					return err
				}
			}

			for _, key := range args {
				node, err := c.app.CacheNode(cmd.Context(), key)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s cached\n", node.Key())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filterJSON, "filter", "", "Spatial edge filter as a JSON expression")
	return cmd
}
