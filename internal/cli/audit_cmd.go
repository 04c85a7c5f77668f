package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/scorchdb/scorch/internal/audit"
	"github.com/scorchdb/scorch/internal/ui"
)

var auditSince time.Duration

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the statement audit log",
	Long: `Prints the SQL statements recorded in the audit log, oldest first.
Requires audit.enabled = true in the config file.

Examples:
  scorch audit
  scorch audit --since 1h`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Audit.Enabled {
			return handleErrorMsg(ErrConfigInvalid, "audit logging is not enabled",
				"Set audit.enabled = true in the config file")
		}
		path := cfg.AuditPath(resolvedDBPath)
		if path == "" {
			return handleErrorMsg(ErrConfigInvalid, "no audit log path for an in-memory database",
				"Set audit.path in the config file")
		}

		logger := audit.New(path, true)
		var (
			entries []audit.Entry
			err     error
		)
		if auditSince > 0 {
			entries, err = logger.ReadSince(time.Now().UTC().Add(-auditSince))
		} else {
			entries, err = logger.Read()
		}
		if err != nil {
			return handleError(ErrFileReadError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(entries, &Meta{Count: len(entries)})
			return nil
		}
		for _, e := range entries {
			line := fmt.Sprintf("%s  %-5s  %s",
				e.Timestamp.Format(time.RFC3339), e.Operation, e.Statement)
			if e.Error != "" {
				line += "  " + ui.Error("("+e.Error+")")
			}
			fmt.Println(line)
		}
		if len(entries) == 0 {
			fmt.Println(ui.Hint("(no entries)"))
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().DurationVar(&auditSince, "since", 0, "Only show entries newer than this age (e.g. 30m, 24h)")
	rootCmd.AddCommand(auditCmd)
}
