package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scorchdb/scorch/internal/ui"
)

// ValuesResult is the JSON payload for the values command. Dtype and
// Ftype describe the column so scripts can pick numeric handling.
type ValuesResult struct {
	Path   string `json:"path"`
	Dtype  string `json:"dtype"`
	Ftype  string `json:"ftype"`
	Values []any  `json:"values"`
}

var valuesCmd = &cobra.Command{
	Use:   "values <path> <view>",
	Short: "Print one column's values from a view",
	Long: `Prints the values of a single object path from a view, one per
line. The path is either a bare column name or a type-qualified path
whose terminal property names the column.

Examples:
  scorch values ipv4-addr:value internal
  scorch values dst_port conns`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, view := args[0], args[1]

		s, err := openStore()
		if err != nil {
			return storeError(err)
		}
		defer s.Close()

		values, err := s.Values(path, view)
		if err != nil {
			return storeError(err)
		}

		if isJSONOutput() {
			meta := getDictionary().PathMetadata(path)
			outputSuccess(ValuesResult{
				Path:   path,
				Dtype:  meta.Dtype,
				Ftype:  meta.Ftype,
				Values: values,
			}, &Meta{Count: len(values)})
			return nil
		}
		for _, v := range values {
			fmt.Println(ui.FormatCell(v))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(valuesCmd)
}
