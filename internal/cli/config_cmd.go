package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scorchdb/scorch/internal/config"
	"github.com/scorchdb/scorch/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the global configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file if none exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.CreateDefault()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		if isJSONOutput() {
			outputSuccess(map[string]string{"path": path}, nil)
			return nil
		}
		fmt.Println(ui.Successf("Config at %s", path))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data := map[string]any{
			"database": resolvedDBPath,
			"ref_map":  cfg.RefMap,
			"audit": map[string]any{
				"enabled": cfg.Audit.Enabled,
				"path":    cfg.AuditPath(resolvedDBPath),
			},
			"ui": map[string]any{
				"accent": cfg.UI.Accent,
			},
		}
		if isJSONOutput() {
			outputSuccess(data, nil)
			return nil
		}
		fmt.Printf("%s %s\n", ui.Muted.Render("database:"), resolvedDBPath)
		fmt.Printf("%s %s\n", ui.Muted.Render("ref_map: "), cfg.RefMap)
		fmt.Printf("%s %t (%s)\n", ui.Muted.Render("audit:   "), cfg.Audit.Enabled, cfg.AuditPath(resolvedDBPath))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
