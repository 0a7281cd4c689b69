package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
)

func (c *CLI) newFilterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "filter [expression]",
		Short: "Compile and apply a spatial edge filter expression",
		Long: "Compile a JSON filter expression such as " +
			`'["==","camera.pano",true]' and apply it as the active spatial ` +
			"edge filter. An empty expression clears the filter.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []any
			if len(args) == 1 && args[0] != "" {
				if err := json.Unmarshal([]byte(args[0]), &raw); err != nil {
					return zerr.Wrap(err, "failed to parse filter expression")
				}
			}
			if err := c.app.SetFilter(raw); err != nil {
				return err
			}
			if raw == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "filter cleared")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "filter applied")
			return nil
		},
	}
}
