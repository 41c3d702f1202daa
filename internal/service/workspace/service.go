package workspace

import (
	"context"
	"log/slog"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
	"github.com/heartmarshall/studyvault-backend/internal/storage"
	"github.com/heartmarshall/studyvault-backend/pkg/ctxutil"
)

type workspaceStore interface {
	CreateWorkspace(ctx context.Context, id, displayName string) (domain.Workspace, error)
	ListWorkspaces(ctx context.Context) ([]domain.Workspace, error)
	UpdateWorkspace(ctx context.Context, id string, fn func(ws *domain.Workspace) error) (domain.Workspace, error)
	GetWorkspaceContext(ctx context.Context, tenantID string) (domain.WorkspaceContext, error)
	ListCatalog(ctx context.Context, tenantID string, ct domain.ContentType) ([]domain.CatalogEntry, error)
	GetDataset(ctx context.Context, tenantID, fileName string) (storage.Dataset, error)
	CreateSchool(ctx context.Context, school domain.School) (domain.School, error)
	GetSchool(ctx context.Context, id string) (domain.School, error)
}

// Service implements workspace reads and the administrative operations
// that create workspaces and schools.
type Service struct {
	store workspaceStore
	log   *slog.Logger
}

// NewService creates a new Workspace service.
func NewService(logger *slog.Logger, store workspaceStore) *Service {
	return &Service{
		store: store,
		log:   logger.With("service", "workspace"),
	}
}

func tenantFromCtx(ctx context.Context) (string, error) {
	id, ok := ctxutil.TenantIDFromCtx(ctx)
	if !ok {
		return "", domain.ErrUnauthorized
	}
	return id, nil
}

func requireAdmin(ctx context.Context) error {
	if !ctxutil.IsAdminCtx(ctx) {
		return domain.ErrForbidden
	}
	return nil
}
