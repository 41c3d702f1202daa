package moderation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
	"github.com/heartmarshall/studyvault-backend/internal/storage"
	"github.com/heartmarshall/studyvault-backend/pkg/ctxutil"
)

// PromoteFailure explains why one source was not published.
type PromoteFailure struct {
	TenantID string `json:"tenantId"`
	FileName string `json:"fileName"`
	Reason   string `json:"reason"`
}

// BulkPromoteResult lists what a bulk promotion published and skipped.
type BulkPromoteResult struct {
	Published []domain.CatalogEntry `json:"published"`
	Failed    []PromoteFailure      `json:"failed"`
}

// BulkPromote publishes personal datasets to one shared subject. Sources
// sharing a file name must carry identical content; the first copy of each
// file name is published and later identical copies are skipped. Admin
// only.
func (s *Service) BulkPromote(ctx context.Context, input BulkPromoteInput) (BulkPromoteResult, error) {
	if !ctxutil.IsAdminCtx(ctx) {
		return BulkPromoteResult{}, domain.ErrForbidden
	}
	if err := input.Validate(); err != nil {
		return BulkPromoteResult{}, err
	}

	sub, err := s.resolveSubject(ctx, input.SchoolID, input.SubjectID, input.CreateSubjectIfMissing)
	if err != nil {
		return BulkPromoteResult{}, err
	}

	result := BulkPromoteResult{Published: []domain.CatalogEntry{}, Failed: []PromoteFailure{}}
	hashes := make(map[string]string)
	fail := func(src PromoteSource, reason string) {
		result.Failed = append(result.Failed, PromoteFailure{TenantID: src.TenantID, FileName: src.FileName, Reason: reason})
	}

	for _, src := range input.Sources {
		ct, ok := domain.ContentTypeOfFile(src.FileName)
		if !ok {
			fail(src, "unknown content type")
			continue
		}
		body, err := s.store.GetPersonalDataset(ctx, src.TenantID, src.FileName)
		if err != nil {
			fail(src, err.Error())
			continue
		}
		hash, err := storage.CanonicalHash(body)
		if err != nil {
			fail(src, "parse error")
			continue
		}
		if prev, seen := hashes[src.FileName]; seen {
			if prev != hash {
				fail(src, "content differs from first copy")
			}
			continue
		}
		hashes[src.FileName] = hash

		entry, err := s.store.PublishShared(ctx, input.SchoolID, sub.ID, ct, src.FileName, body, s.displayName(ctx, src, ct))
		if err != nil {
			return result, fmt.Errorf("publish %s: %w", src.FileName, err)
		}
		result.Published = append(result.Published, entry)
	}

	s.log.InfoContext(ctx, "bulk promote finished",
		slog.String("school_id", input.SchoolID),
		slog.String("subject_id", sub.ID),
		slog.Int("published", len(result.Published)),
		slog.Int("failed", len(result.Failed)),
	)
	return result, nil
}

// displayName returns the catalog name of a personal dataset, falling back
// to the file name.
func (s *Service) displayName(ctx context.Context, src PromoteSource, ct domain.ContentType) string {
	entries, err := s.store.ListCatalog(ctx, src.TenantID, ct)
	if err != nil {
		return src.FileName
	}
	for _, e := range entries {
		if e.File == src.FileName && e.Name != "" {
			return e.Name
		}
	}
	return src.FileName
}
