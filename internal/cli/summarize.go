package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scorchdb/scorch/internal/stixpat"
	"github.com/scorchdb/scorch/internal/ui"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <pattern>",
	Short: "List the types and properties a pattern mentions",
	Long: `Parses a STIX pattern and prints each SCO type it compares
against, with the properties referenced for that type. Useful for
deciding which types to extract before running the pattern.

Examples:
  scorch summarize "[ipv4-addr:value = '9.9.9.9' OR url:value LIKE '%evil%']"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := stixpat.Summarize(args[0])
		if err != nil {
			return storeError(err)
		}

		if isJSONOutput() {
			outputSuccess(summary, &Meta{Count: len(summary)})
			return nil
		}

		types := make([]string, 0, len(summary))
		for t := range summary {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Printf("%s  %s\n", ui.ViewName(t), strings.Join(summary[t], ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}
