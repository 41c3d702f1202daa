package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/studyvault-backend/internal/app"
	"github.com/heartmarshall/studyvault-backend/internal/config"
	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

var errAuditFailed = errors.New("audit failed")

func newAuditCmd() *cobra.Command {
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "audit <flashcard|decoder|practice> <file>",
		Short: "Audit a payload file offline and print the report",
		Long: `Audit runs the content validator on a local JSON file without touching
the store. The command exits non-zero when the report contains a Blocker.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ct := domain.ContentType(args[0])
			if !ct.IsValid() {
				return fmt.Errorf("unknown content type %q", args[0])
			}
			raw, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}

			auditor, err := app.NewAuditor(config.AuditConfig{RulesPath: rulesPath})
			if err != nil {
				return err
			}
			report, err := auditor.Audit(ct, raw)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.OverallPass {
				return fmt.Errorf("%w: %d blocker(s)", errAuditFailed, report.CountBySeverity(domain.SeverityBlocker))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", "", "extra heuristic rule pack (YAML)")
	return cmd
}
