package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/studyvault-backend/internal/app"
	"github.com/heartmarshall/studyvault-backend/internal/config"
	"github.com/heartmarshall/studyvault-backend/internal/domain"
	"github.com/heartmarshall/studyvault-backend/internal/storage"
	"github.com/heartmarshall/studyvault-backend/pkg/ctxutil"
)

// operatorID is the tenant ID the CLI acts as.
const operatorID = "contentctl"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "contentctl",
		Short:         "Operate the study content store",
		SilenceUsage: true,
	}

	root.AddCommand(
		newAuditCmd(),
		newWorkspaceCmd(),
		newSchoolCmd(),
		newFsckCmd(),
		newRecoverCmd(),
		newDuplicatesCmd(),
		newBulkPromoteCmd(),
		newTokenCmd(),
	)
	return root
}

// runtime is what store-backed commands operate on.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *storage.Store
}

// withStore loads the configuration, opens the store and runs fn with an
// admin context.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg.Log)

	ctx := adminContext(cmd.Context())
	store, closeStore, err := app.OpenStore(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer closeStore()

	return fn(ctx, &runtime{cfg: cfg, logger: logger, store: store})
}

func adminContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = ctxutil.WithTenantID(ctx, operatorID)
	return ctxutil.WithRole(ctx, domain.RoleAdmin.String())
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
