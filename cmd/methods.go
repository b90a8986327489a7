package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/redox-os/ion-sub003/core/expand"
)

// methodsCmd lists the string and array methods
var methodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "Show the methods available in $method(...) and @method(...) expansions.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, m := range expand.Methods() {
			var forms string
			switch {
			case m.String && m.Array:
				forms = "$ @"
			case m.String:
				forms = "$"
			default:
				forms = "  @"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Name, forms, m.Description)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(methodsCmd)
}
