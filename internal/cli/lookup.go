package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/scorchdb/scorch/internal/ui"
)

var (
	lookupPaths  []string
	lookupLimit  int
	lookupOffset int
	lookupCount  bool
)

// LookupResult is the JSON payload for the lookup command.
type LookupResult struct {
	View    string           `json:"view"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <view>",
	Short: "Show the contents of a view",
	Long: `Prints the rows of a view as a table. Reference columns are
dereferenced automatically, so a network-traffic view shows
src_ref.value rather than an opaque id. Aggregate views project their
own columns.

Examples:
  scorch lookup conns
  scorch lookup conns --paths src_ref.value,dst_ref.value --limit 10
  scorch lookup conns --count`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		view := args[0]
		start := time.Now()

		s, err := openStore()
		if err != nil {
			return storeError(err)
		}
		defer s.Close()

		if lookupCount {
			count, err := s.Count(view)
			if err != nil {
				return storeError(err)
			}
			if isJSONOutput() {
				outputSuccess(map[string]int{"count": count}, &Meta{Count: count})
				return nil
			}
			fmt.Println(count)
			return nil
		}

		result, err := s.Lookup(view, lookupPaths, lookupLimit, lookupOffset)
		if err != nil {
			return storeError(err)
		}
		elapsed := time.Since(start).Milliseconds()

		if isJSONOutput() {
			outputSuccess(LookupResult{
				View:    view,
				Columns: result.Columns,
				Rows:    result.Rows,
			}, &Meta{Count: len(result.Rows), QueryTimeMs: elapsed})
			return nil
		}

		display := ui.NewDisplayContext()
		table := ui.NewResultsTable(display, result.Columns)
		for _, row := range result.Rows {
			table.AddRow(row)
		}
		fmt.Println(table.Render())
		fmt.Println(ui.RowCount(len(result.Rows)))
		return nil
	},
}

func init() {
	lookupCmd.Flags().StringSliceVarP(&lookupPaths, "paths", "p", nil, "Columns or reference paths to project")
	lookupCmd.Flags().IntVar(&lookupLimit, "limit", 100, "Maximum rows to return (0 for all)")
	lookupCmd.Flags().IntVar(&lookupOffset, "offset", 0, "Rows to skip")
	lookupCmd.Flags().BoolVar(&lookupCount, "count", false, "Print the row count instead of rows")
	rootCmd.AddCommand(lookupCmd)
}
