package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scorchdb/scorch/internal/stixpat"
)

var compileType string

// CompileResult is the JSON payload for the compile command.
type CompileResult struct {
	Pattern string `json:"pattern"`
	Type    string `json:"type"`
	Where   string `json:"where"`
}

var compileCmd = &cobra.Command{
	Use:   "compile <pattern>",
	Short: "Compile a STIX pattern to a SQL WHERE clause",
	Long: `Compiles a STIX pattern into the WHERE clause that would select
matching rows of the target type's table. Comparisons against other
types are dropped; a pattern with nothing left for the target type
compiles to an empty clause.

Examples:
  scorch compile "[ipv4-addr:value = '9.9.9.9']"
  scorch compile --type url "[url:value LIKE '%example%']"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := args[0]
		scoType := compileType
		if scoType == "" {
			summary, err := stixpat.Summarize(pattern)
			if err != nil {
				return storeError(err)
			}
			if len(summary) != 1 {
				return handleErrorMsg(ErrMissingArgument,
					fmt.Sprintf("pattern mentions %d types", len(summary)),
					"Pick the target type with --type")
			}
			for t := range summary {
				scoType = t
			}
		}

		where, err := stixpat.NewCompiler(getDictionary()).Compile(pattern, scoType)
		if err != nil {
			return storeError(err)
		}

		if isJSONOutput() {
			outputSuccess(CompileResult{Pattern: pattern, Type: scoType, Where: where}, nil)
			return nil
		}
		fmt.Println(where)
		return nil
	},
}

func init() {
	compileCmd.Flags().StringVarP(&compileType, "type", "t", "", "Target SCO type (default: the pattern's only type)")
	rootCmd.AddCommand(compileCmd)
}
