package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scorchdb/scorch/internal/ui"
)

var (
	extractAs    string
	extractQuery string
)

// ViewResult is the JSON payload for commands that register a view.
type ViewResult struct {
	View string `json:"view"`
	Type string `json:"type"`
	Rows int    `json:"rows"`
}

var extractCmd = &cobra.Command{
	Use:   "extract <type> <pattern>",
	Short: "Create a view of objects matching a STIX pattern",
	Long: `Compiles a STIX pattern and registers a view over the matching
rows of the given type. An empty pattern selects every row of the type.
Re-extracting an existing view replaces its membership.

Examples:
  scorch extract ipv4-addr "[ipv4-addr:value ISSUBSET '10.0.0.0/8']" --as internal
  scorch extract url "" --as all_urls`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		scoType, pattern := args[0], args[1]
		as := extractAs
		if as == "" {
			as = scoType
		}
		name, err := viewName(as)
		if err != nil {
			return storeError(err)
		}

		s, err := openStore()
		if err != nil {
			return storeError(err)
		}
		defer s.Close()

		if err := s.Extract(name, scoType, extractQuery, pattern); err != nil {
			return storeError(err)
		}
		count, err := s.Count(name)
		if err != nil {
			return storeError(err)
		}

		if isJSONOutput() {
			outputSuccess(ViewResult{View: name, Type: scoType, Rows: count}, &Meta{Count: count})
			return nil
		}
		fmt.Println(ui.Successf("Extracted %s (%s)", ui.ViewName(name), scoType))
		fmt.Println(ui.RowCount(count))
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractAs, "as", "", "View name (default: the type name)")
	extractCmd.Flags().StringVar(&extractQuery, "query-id", "", "Restrict matching to one load's objects")
	rootCmd.AddCommand(extractCmd)
}
