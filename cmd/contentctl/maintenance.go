package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/studyvault-backend/internal/app"
	"github.com/heartmarshall/studyvault-backend/internal/service/moderation"
	"github.com/heartmarshall/studyvault-backend/internal/storage"
)

func newFsckCmd() *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "fsck",
		Short: "Check catalogs against stored datasets",
		Long: `Fsck reports catalog entries without a dataset body (dangling), dataset
bodies without a catalog entry (orphans) and unreadable documents. With
--repair, orphans are re-indexed and dangling entries dropped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, rt *runtime) error {
				report, err := rt.store.Fsck(ctx, repair)
				if err != nil {
					return err
				}
				rt.logger.Info("fsck finished",
					slog.Int("documents", report.Documents),
					slog.Int("dangling", report.Count(storage.FindingDangling)),
					slog.Int("orphans", report.Count(storage.FindingOrphan)),
					slog.Int("corrupt", report.Count(storage.FindingCorrupt)),
					slog.Bool("repair", repair),
				)
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "re-index orphans and drop dangling entries")
	return cmd
}

func newRecoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Replay interrupted dataset writes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, rt *runtime) error {
				n, err := rt.store.Recover(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "replayed %d intent(s)\n", n)
				return err
			})
		},
	}
}

func newDuplicatesCmd() *cobra.Command {
	var onlySame bool

	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Report datasets that several tenants hold under one file name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, rt *runtime) error {
				groups, err := rt.store.Duplicates(ctx)
				if err != nil {
					return err
				}
				if onlySame {
					groups = filterSameContent(groups)
				}
				return printJSON(cmd.OutOrStdout(), groups)
			})
		},
	}
	cmd.Flags().BoolVar(&onlySame, "same-content", false, "only groups whose copies are identical")
	return cmd
}

func filterSameContent(groups []storage.DuplicateGroup) []storage.DuplicateGroup {
	out := groups[:0]
	for _, g := range groups {
		if g.SameContent {
			out = append(out, g)
		}
	}
	return out
}

func newBulkPromoteCmd() *cobra.Command {
	var (
		school        string
		subject       string
		createSubject bool
	)

	cmd := &cobra.Command{
		Use:   "bulk-promote <tenant:file>...",
		Short: "Publish personal datasets to a shared subject",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := parseSources(args)
			if err != nil {
				return err
			}

			return withStore(cmd, func(ctx context.Context, rt *runtime) error {
				auditor, err := app.NewAuditor(rt.cfg.Audit)
				if err != nil {
					return err
				}
				svc := moderation.NewService(rt.logger, rt.store, auditor, nil)
				result, err := svc.BulkPromote(ctx, moderation.BulkPromoteInput{
					SchoolID:               school,
					SubjectID:              subject,
					CreateSubjectIfMissing: createSubject,
					Sources:                sources,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().StringVar(&school, "school", "", "school ID")
	cmd.Flags().StringVar(&subject, "subject", "", "shared subject ID or label")
	cmd.Flags().BoolVar(&createSubject, "create-subject", false, "register the subject if the school lacks it")
	_ = cmd.MarkFlagRequired("school")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

// parseSources turns "alice:flashcard_econ_deck.json" arguments into
// promotion sources.
func parseSources(args []string) ([]moderation.PromoteSource, error) {
	out := make([]moderation.PromoteSource, 0, len(args))
	for _, a := range args {
		tenant, file, ok := strings.Cut(a, ":")
		if !ok || strings.TrimSpace(tenant) == "" || strings.TrimSpace(file) == "" {
			return nil, fmt.Errorf("source %q: want tenant:file", a)
		}
		out = append(out, moderation.PromoteSource{
			TenantID: strings.TrimSpace(tenant),
			FileName: strings.TrimSpace(file),
		})
	}
	return out, nil
}
