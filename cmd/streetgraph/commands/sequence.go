package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (c *CLI) newSequenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sequence [key]",
		Short: "Cache a sequence and print its ordered image keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := c.app.CacheSequence(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", seq.Key, strings.Join(seq.Keys, " "))
			return nil
		},
	}
}
