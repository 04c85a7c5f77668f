package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scorchdb/scorch/internal/deref"
	"github.com/scorchdb/scorch/internal/query"
	"github.com/scorchdb/scorch/internal/stixpat"
)

var (
	sqlType  string
	sqlPaths []string
)

// SQLResult is the JSON payload for the sql command.
type SQLResult struct {
	Pattern string `json:"pattern"`
	Type    string `json:"type"`
	SQL     string `json:"sql"`
}

var sqlCmd = &cobra.Command{
	Use:   "sql <pattern>",
	Short: "Compile a STIX pattern to a full SELECT statement",
	Long: `Compiles a STIX pattern into a complete SELECT over the target
type's table, with LEFT OUTER joins that follow its reference columns
into the referenced tables. The store's schema decides which joins and
projections appear, so the database must already hold the type.

Examples:
  scorch sql "[network-traffic:dst_port = 443]"
  scorch sql --paths src_ref.value,dst_ref.value "[network-traffic:dst_port = 443]"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := args[0]
		scoType := sqlType
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

		s, err := openStore()
		if err != nil {
			return storeError(err)
		}
		defer s.Close()

		schema, err := s.SchemaContext()
		if err != nil {
			return storeError(err)
		}

		q, err := query.From(scoType)
		if err != nil {
			return storeError(err)
		}
		if schema.HasTable(scoType) {
			planner := deref.NewPlanner(schema, getDictionary())
			joins, proj, err := planner.AutoDeref(scoType, sqlPaths)
			if err != nil {
				return storeError(err)
			}
			for _, join := range joins {
				if err := q.Append(join); err != nil {
					return storeError(err)
				}
			}
			if proj != nil {
				if err := q.Append(proj); err != nil {
					return storeError(err)
				}
			}
		}

		text, _, err := q.Render(query.Question)
		if err != nil {
			return storeError(err)
		}
		if where != "" {
			text += " WHERE " + where
		}

		if isJSONOutput() {
			outputSuccess(SQLResult{Pattern: pattern, Type: scoType, SQL: text}, nil)
			return nil
		}
		fmt.Println(text)
		return nil
	},
}

func init() {
	sqlCmd.Flags().StringVarP(&sqlType, "type", "t", "", "Target SCO type (default: the pattern's only type)")
	sqlCmd.Flags().StringSliceVar(&sqlPaths, "paths", nil, "Reference paths to dereference (default: every ref column)")
	rootCmd.AddCommand(sqlCmd)
}
