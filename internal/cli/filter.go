package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scorchdb/scorch/internal/ui"
)

var filterAs string

var filterCmd = &cobra.Command{
	Use:   "filter <view> <pattern>",
	Short: "Create a view filtering an existing view with a pattern",
	Long: `Compiles a STIX pattern against the source view's type and
registers a new view over the rows that match.

Examples:
  scorch filter conns "[network-traffic:dst_port = 443]" --as https
  scorch filter internal "[ipv4-addr:value ISSUBSET '10.1.0.0/16']" --as branch`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputView, pattern := args[0], args[1]
		if filterAs == "" {
			return handleErrorMsg(ErrMissingArgument, "--as <view> is required", "")
		}
		name, err := viewName(filterAs)
		if err != nil {
			return storeError(err)
		}

		s, err := openStore()
		if err != nil {
			return storeError(err)
		}
		defer s.Close()

		scoType, err := s.TableType(inputView)
		if err != nil {
			return storeError(err)
		}
		if err := s.Filter(name, scoType, inputView, pattern); err != nil {
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
		fmt.Println(ui.Successf("Filtered %s into %s", inputView, ui.ViewName(name)))
		fmt.Println(ui.RowCount(count))
		return nil
	},
}

func init() {
	filterCmd.Flags().StringVar(&filterAs, "as", "", "View name for the filtered rows")
	rootCmd.AddCommand(filterCmd)
}
