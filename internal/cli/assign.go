package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scorchdb/scorch/internal/ui"
)

var (
	sortAs    string
	sortDesc  bool
	sortLimit int
	groupAs   string
)

var sortCmd = &cobra.Command{
	Use:   "sort <view> <path>",
	Short: "Create a sorted rendition of a view",
	Long: `Registers a new view holding the source view's rows ordered by
one column. The path's terminal property names the column.

Examples:
  scorch sort conns dst_port --desc --as busiest
  scorch sort urls value`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return assignView(args[0], "sort", args[1], sortAs, !sortDesc, sortLimit)
	},
}

var groupCmd = &cobra.Command{
	Use:   "group <view> <path>",
	Short: "Create an aggregated rendition of a view",
	Long: `Registers a new view grouping the source view's rows by one
column, with automatic aggregates (unique counts for references,
min/max for timestamps, sums for packet and byte counters) over the
remaining columns.

Examples:
  scorch group conns src_ref --as by_source`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return assignView(args[0], "group", args[1], groupAs, true, 0)
	},
}

func assignView(on, op, by, as string, ascending bool, limit int) error {
	if as == "" {
		as = on
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

	if err := s.Assign(name, on, op, by, ascending, limit); err != nil {
		return storeError(err)
	}
	count, err := s.Count(name)
	if err != nil {
		return storeError(err)
	}

	scoType, err := s.TableType(name)
	if err != nil {
		return storeError(err)
	}

	if isJSONOutput() {
		outputSuccess(ViewResult{View: name, Type: scoType, Rows: count}, &Meta{Count: count})
		return nil
	}
	fmt.Println(ui.Successf("Assigned %s", ui.ViewName(name)))
	fmt.Println(ui.RowCount(count))
	return nil
}

func init() {
	sortCmd.Flags().StringVar(&sortAs, "as", "", "View name (default: replace the source view)")
	sortCmd.Flags().BoolVar(&sortDesc, "desc", false, "Sort descending")
	sortCmd.Flags().IntVar(&sortLimit, "limit", 0, "Keep only the first N rows")
	groupCmd.Flags().StringVar(&groupAs, "as", "", "View name (default: replace the source view)")
	rootCmd.AddCommand(sortCmd)
	rootCmd.AddCommand(groupCmd)
}
