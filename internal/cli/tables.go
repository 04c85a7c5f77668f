package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scorchdb/scorch/internal/ui"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the store's object tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listNames(func() ([]string, error) {
			s, err := openStore()
			if err != nil {
				return nil, err
			}
			defer s.Close()
			return s.Tables()
		})
	},
}

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "List registered views",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listNames(func() ([]string, error) {
			s, err := openStore()
			if err != nil {
				return nil, err
			}
			defer s.Close()
			return s.Views()
		})
	},
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the SCO types present in the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listNames(func() ([]string, error) {
			s, err := openStore()
			if err != nil {
				return nil, err
			}
			defer s.Close()
			return s.Types()
		})
	},
}

func listNames(fetch func() ([]string, error)) error {
	names, err := fetch()
	if err != nil {
		return storeError(err)
	}
	if isJSONOutput() {
		outputSuccess(names, &Meta{Count: len(names)})
		return nil
	}
	for _, name := range names {
		fmt.Println(ui.ViewName(name))
	}
	if len(names) == 0 {
		fmt.Println(ui.Hint("(none)"))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(viewsCmd)
	rootCmd.AddCommand(typesCmd)
}
