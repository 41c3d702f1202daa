package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
	"github.com/heartmarshall/studyvault-backend/pkg/ctxutil"
)

// maxConcurrentReads bounds parallel shared-index reads per merge.
const maxConcurrentReads = 8

type catalogStore interface {
	GetWorkspaceContext(ctx context.Context, tenantID string) (domain.WorkspaceContext, error)
	ListCatalog(ctx context.Context, tenantID string, ct domain.ContentType) ([]domain.CatalogEntry, error)
	ListSharedCatalog(ctx context.Context, schoolID, subjectID string, ct domain.ContentType) ([]domain.CatalogEntry, error)
}

// Service composes the effective catalog a tenant sees.
type Service struct {
	store catalogStore
	log   *slog.Logger
}

// NewService creates a new Catalog service.
func NewService(logger *slog.Logger, store catalogStore) *Service {
	return &Service{
		store: store,
		log:   logger.With("service", "catalog"),
	}
}

// GetMergedCatalog returns the caller's catalog for ct with every shared
// subject the workspace can access overlaid by its personal entries.
// A personal entry always replaces a shared entry with the same file name.
func (s *Service) GetMergedCatalog(ctx context.Context, ct domain.ContentType) ([]domain.CatalogEntry, error) {
	tenantID, ok := ctxutil.TenantIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if !ct.IsValid() {
		return nil, domain.NewValidationError("content_type", "must be one of flashcard, decoder, practice")
	}

	wc, err := s.store.GetWorkspaceContext(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("get workspace context: %w", err)
	}

	shared := make([][]domain.CatalogEntry, len(wc.AccessibleSubjects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)
	for i, sub := range wc.AccessibleSubjects {
		g.Go(func() error {
			entries, err := s.store.ListSharedCatalog(gctx, wc.SchoolID(), sub.ID, ct)
			if err != nil {
				return fmt.Errorf("list shared catalog %s: %w", sub.ID, err)
			}
			shared[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	personal, err := s.store.ListCatalog(ctx, tenantID, ct)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	var m merger
	for _, entries := range shared {
		m.put(entries, domain.ScopeShared)
	}
	m.put(personal, domain.ScopeUser)

	s.log.DebugContext(ctx, "catalog merged",
		slog.String("tenant_id", tenantID),
		slog.String("content_type", ct.String()),
		slog.Int("subjects", len(wc.AccessibleSubjects)),
		slog.Int("entries", len(m.entries)),
	)
	return m.result(), nil
}

// merger is an insertion-ordered map from file name to entry. Replacing a
// key keeps its original position.
type merger struct {
	index   map[string]int
	entries []domain.CatalogEntry
}

func (m *merger) put(entries []domain.CatalogEntry, scope domain.Scope) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	for _, e := range entries {
		e.Scope = scope
		if i, ok := m.index[e.File]; ok {
			m.entries[i] = e
			continue
		}
		m.index[e.File] = len(m.entries)
		m.entries = append(m.entries, e)
	}
}

func (m *merger) result() []domain.CatalogEntry {
	if m.entries == nil {
		return []domain.CatalogEntry{}
	}
	return m.entries
}
