package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/scorchdb/scorch/internal/config"
	"github.com/scorchdb/scorch/internal/sco"
	"github.com/scorchdb/scorch/internal/ui"
)

// defaultDatabase is used when neither --db nor the config names a path.
const defaultDatabase = "scorch.db"

var (
	// Global flags
	dbPathFlag string
	configPath string
	refMapFlag string

	// Resolved values
	resolvedDBPath string
	cfg            *config.Config
	dict           *sco.Dictionary
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "scorch",
	Short: "Scorch - columnar STIX observation store",
	Long: `Scorch stores flattened STIX observations in SQLite and turns STIX
patterns into SQL. Load observed data, extract named views with patterns,
then filter, sort, and dereference them from the command line.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Commands that never touch config or the store.
		switch cmd.Name() {
		case "completion", "help", "version":
			return nil
		}
		if cmd.Parent() != nil && cmd.Parent().Name() == "completion" {
			return nil
		}

		var err error
		if configPath != "" {
			cfg, err = config.LoadFrom(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg == nil {
			cfg = &config.Config{}
		}
		ui.SetAccent(cfg.UI.Accent)

		resolvedDBPath = dbPathFlag
		if resolvedDBPath == "" {
			resolvedDBPath = cfg.DatabasePath(defaultDatabase)
		}

		refMapPath := refMapFlag
		if refMapPath == "" {
			refMapPath = cfg.RefMap
		}
		refMap, err := config.LoadRefMap(refMapPath)
		if err != nil {
			return fmt.Errorf("failed to load ref map: %w", err)
		}
		dict = sco.NewDictionary(refMap)

		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "Path to the SQLite database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&refMapFlag, "ref-map", "", "Path to a YAML reference-map file (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
	rootCmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		// The config file spells it ref_map; accept that on the flag too.
		if name == "ref_map" {
			name = "ref-map"
		}
		return pflag.NormalizedName(name)
	})
}

// getDictionary returns the reference dictionary built from config.
func getDictionary() *sco.Dictionary {
	return dict
}
