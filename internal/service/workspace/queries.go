package workspace

import (
	"context"
	"fmt"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
	"github.com/heartmarshall/studyvault-backend/internal/storage"
)

// GetWorkspaceContext returns the caller's workspace, school and
// accessible subjects.
func (s *Service) GetWorkspaceContext(ctx context.Context) (domain.WorkspaceContext, error) {
	tenantID, err := tenantFromCtx(ctx)
	if err != nil {
		return domain.WorkspaceContext{}, err
	}
	wc, err := s.store.GetWorkspaceContext(ctx, tenantID)
	if err != nil {
		return domain.WorkspaceContext{}, fmt.Errorf("get workspace context: %w", err)
	}
	return wc, nil
}

// ListCatalog returns the caller's personal catalog for ct, without shared
// entries.
func (s *Service) ListCatalog(ctx context.Context, ct domain.ContentType) ([]domain.CatalogEntry, error) {
	tenantID, err := tenantFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !ct.IsValid() {
		return nil, domain.NewValidationError("content_type", "must be one of flashcard, decoder, practice")
	}
	entries, err := s.store.ListCatalog(ctx, tenantID, ct)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	return entries, nil
}

// GetDataset returns a dataset body visible to the caller, personal scope
// first.
func (s *Service) GetDataset(ctx context.Context, fileName string) (storage.Dataset, error) {
	tenantID, err := tenantFromCtx(ctx)
	if err != nil {
		return storage.Dataset{}, err
	}
	if !domain.IsSafeFileName(fileName) {
		return storage.Dataset{}, domain.NewValidationError("file_name", "must be a plain .json file name")
	}
	ds, err := s.store.GetDataset(ctx, tenantID, fileName)
	if err != nil {
		return storage.Dataset{}, fmt.Errorf("get dataset: %w", err)
	}
	return ds, nil
}
