package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scorchdb/scorch/internal/ui"
)

var removeCmd = &cobra.Command{
	Use:     "remove <view>",
	Aliases: []string{"rm"},
	Short:   "Drop a view",
	Long: `Drops a view and its membership. The underlying object tables
are untouched, so the rows remain reachable through other views.

Examples:
  scorch remove internal`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		view := args[0]

		s, err := openStore()
		if err != nil {
			return storeError(err)
		}
		defer s.Close()

		if err := s.RemoveView(view); err != nil {
			return storeError(err)
		}

		if isJSONOutput() {
			outputSuccess(map[string]string{"removed": view}, nil)
			return nil
		}
		fmt.Println(ui.Successf("Removed %s", ui.ViewName(view)))
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a view",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldName := args[0]
		newName, err := viewName(args[1])
		if err != nil {
			return storeError(err)
		}

		s, err := openStore()
		if err != nil {
			return storeError(err)
		}
		defer s.Close()

		if err := s.RenameView(oldName, newName); err != nil {
			return storeError(err)
		}

		if isJSONOutput() {
			outputSuccess(map[string]string{"old": oldName, "new": newName}, nil)
			return nil
		}
		fmt.Println(ui.Successf("Renamed %s to %s", oldName, ui.ViewName(newName)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(renameCmd)
}
