package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

// maxSharedLookups bounds concurrent shared-scope reads per request.
const maxSharedLookups = 8

// Dataset is a dataset body with the scope it was found in.
type Dataset struct {
	FileName  string          `json:"fileName"`
	Scope     domain.Scope    `json:"scope"`
	SubjectID string          `json:"subjectId,omitempty"`
	Body      json.RawMessage `json:"body"`
}

// datasetTarget is where a dataset body and its index entry live.
type datasetTarget struct {
	bodyKey  string
	indexKey string
	record   *domain.InboxRecord
}

// UpsertDataset writes a personal dataset body and inserts or replaces its
// catalog entry. The workspace must exist and be active.
func (s *Store) UpsertDataset(ctx context.Context, tenantID string, ct domain.ContentType, fileName string, body []byte, displayName, subject string) (_ domain.CatalogEntry, err error) {
	ctx, done := s.begin(ctx, "upsert_dataset")
	defer done(&err)
	return s.upsertPersonal(ctx, tenantID, ct, fileName, body, displayName, subject, nil)
}

// SubmitDataset upserts a personal dataset like UpsertDataset and appends
// rec to the inbox under the same write intent. When the sequence is cut
// short after the body was written, Recover adds both the catalog entry and
// the record.
func (s *Store) SubmitDataset(ctx context.Context, ct domain.ContentType, body []byte, rec domain.InboxRecord) (_ domain.CatalogEntry, err error) {
	ctx, done := s.begin(ctx, "submit_dataset")
	defer done(&err)

	if rec.ID == "" {
		return domain.CatalogEntry{}, fmt.Errorf("%w: inbox record id is required", domain.ErrInvalidInput)
	}
	return s.upsertPersonal(ctx, rec.TenantID, ct, rec.FileName, body, rec.DisplayName, rec.SubjectID, &rec)
}

func (s *Store) upsertPersonal(ctx context.Context, tenantID string, ct domain.ContentType, fileName string, body []byte, displayName, subject string, rec *domain.InboxRecord) (domain.CatalogEntry, error) {
	if err := checkDataset(ct, fileName, body); err != nil {
		return domain.CatalogEntry{}, err
	}
	ws, err := s.getWorkspace(ctx, tenantID)
	if err != nil {
		return domain.CatalogEntry{}, err
	}
	if !ws.IsActive() {
		return domain.CatalogEntry{}, fmt.Errorf("workspace %s is inactive: %w", tenantID, domain.ErrNotFound)
	}

	entry, err := s.putDataset(ctx, datasetTarget{
		bodyKey:  tenantDatasetKey(tenantID, fileName),
		indexKey: tenantIndexKey(tenantID, ct),
		record:   rec,
	}, fileName, body, displayName, subject)
	if err != nil {
		return domain.CatalogEntry{}, err
	}

	s.log.InfoContext(ctx, "dataset upserted",
		slog.String("tenant_id", tenantID),
		slog.String("file_name", fileName),
		slog.String("content_type", ct.String()),
	)
	return entry, nil
}

// PublishShared writes a dataset into a school subject and upserts the
// shared catalog entry. The subject must be registered in the school.
func (s *Store) PublishShared(ctx context.Context, schoolID, subjectID string, ct domain.ContentType, fileName string, body []byte, displayName string) (_ domain.CatalogEntry, err error) {
	ctx, done := s.begin(ctx, "publish_shared")
	defer done(&err)

	if err := checkDataset(ct, fileName, body); err != nil {
		return domain.CatalogEntry{}, err
	}
	school, err := s.getSchool(ctx, schoolID)
	if err != nil {
		return domain.CatalogEntry{}, err
	}
	if _, ok := school.Subject(subjectID); !ok {
		return domain.CatalogEntry{}, fmt.Errorf("subject %s in school %s: %w", subjectID, schoolID, domain.ErrNotFound)
	}

	entry, err := s.putDataset(ctx, datasetTarget{
		bodyKey:  sharedDatasetKey(schoolID, subjectID, fileName),
		indexKey: sharedIndexKey(schoolID, subjectID, ct),
	}, fileName, body, displayName, subjectID)
	if err != nil {
		return domain.CatalogEntry{}, err
	}

	s.log.InfoContext(ctx, "dataset published to shared",
		slog.String("school_id", schoolID),
		slog.String("subject_id", subjectID),
		slog.String("file_name", fileName),
		slog.String("content_type", ct.String()),
	)
	return entry, nil
}

func checkDataset(ct domain.ContentType, fileName string, body []byte) error {
	if !ct.IsValid() {
		return fmt.Errorf("%w: unknown content type %q", domain.ErrInvalidInput, ct)
	}
	if !validDatasetName(fileName) {
		return fmt.Errorf("%w: invalid dataset file name %q", domain.ErrInvalidInput, fileName)
	}
	if !json.Valid(body) {
		return fmt.Errorf("%w: dataset body is not valid JSON", domain.ErrInvalidInput)
	}
	return nil
}

// putDataset records an intent, writes the body, upserts the index entry,
// appends the inbox record if any and clears the intent. An interrupted
// sequence is finished by Recover.
func (s *Store) putDataset(ctx context.Context, t datasetTarget, fileName string, body []byte, name, subject string) (domain.CatalogEntry, error) {
	in := intent{
		ID:        s.newID(),
		BodyKey:   t.bodyKey,
		IndexKey:  t.indexKey,
		FileName:  fileName,
		Name:      name,
		Subject:   subject,
		Record:    t.record,
		CreatedAt: s.timestamp(),
	}
	if err := s.recordIntent(ctx, in); err != nil {
		return domain.CatalogEntry{}, err
	}

	if err := s.writeAtomic(ctx, t.bodyKey, body); err != nil {
		s.clearIntent(ctx, in)
		return domain.CatalogEntry{}, err
	}

	entry, err := s.upsertIndexEntry(ctx, t.indexKey, fileName, name, subject)
	if err != nil {
		return domain.CatalogEntry{}, err
	}
	if t.record != nil {
		if err := s.ensureInboxRecord(ctx, *t.record); err != nil {
			return domain.CatalogEntry{}, err
		}
	}
	s.clearIntent(ctx, in)
	return entry, nil
}

// upsertIndexEntry inserts or replaces the entry for fileName, keeping the
// original ID and createdAt on replace.
func (s *Store) upsertIndexEntry(ctx context.Context, indexKey, fileName, name, subject string) (domain.CatalogEntry, error) {
	var result domain.CatalogEntry
	err := mutateJSON(ctx, s, indexKey, func(index *[]domain.CatalogEntry, _ bool) (bool, error) {
		now := s.timestamp()
		i := slices.IndexFunc(*index, func(e domain.CatalogEntry) bool { return e.File == fileName })
		if i >= 0 {
			e := (*index)[i]
			e.Name = name
			e.Subject = subject
			e.UpdatedAt = now
			(*index)[i] = e
			result = e
			return true, nil
		}
		result = domain.CatalogEntry{
			ID:        "ds_" + s.newID(),
			Name:      name,
			File:      fileName,
			Subject:   subject,
			CreatedAt: now,
			UpdatedAt: now,
		}
		*index = append(*index, result)
		return true, nil
	})
	return result, err
}

// dropIndexEntry removes the entry for fileName if present.
func (s *Store) dropIndexEntry(ctx context.Context, indexKey, fileName string) error {
	return mutateJSON(ctx, s, indexKey, func(index *[]domain.CatalogEntry, exists bool) (bool, error) {
		n := len(*index)
		*index = slices.DeleteFunc(*index, func(e domain.CatalogEntry) bool { return e.File == fileName })
		return exists && len(*index) != n, nil
	})
}

// GetDataset looks up fileName in the tenant's personal scope first, then
// in every shared subject the tenant can access.
func (s *Store) GetDataset(ctx context.Context, tenantID, fileName string) (_ Dataset, err error) {
	ctx, done := s.begin(ctx, "get_dataset")
	defer done(&err)

	if !validDatasetName(fileName) {
		return Dataset{}, fmt.Errorf("%w: invalid dataset file name %q", domain.ErrInvalidInput, fileName)
	}
	wc, err := s.workspaceContext(ctx, tenantID)
	if err != nil {
		return Dataset{}, err
	}

	doc, err := s.backend.Read(ctx, tenantDatasetKey(tenantID, fileName))
	switch {
	case err == nil:
		return Dataset{FileName: fileName, Scope: domain.ScopeUser, Body: doc.Data}, nil
	case !errors.Is(err, ErrNoDocument):
		return Dataset{}, s.backendErr("read", tenantDatasetKey(tenantID, fileName), err)
	}

	subjects := wc.AccessibleSubjects
	bodies := make([][]byte, len(subjects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxSharedLookups)
	for i, sub := range subjects {
		key := sharedDatasetKey(wc.SchoolID(), sub.ID, fileName)
		g.Go(func() error {
			doc, err := s.backend.Read(gctx, key)
			if errors.Is(err, ErrNoDocument) {
				return nil
			}
			if err != nil {
				return s.backendErr("read", key, err)
			}
			bodies[i] = doc.Data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dataset{}, err
	}

	for i, body := range bodies {
		if body != nil {
			return Dataset{FileName: fileName, Scope: domain.ScopeShared, SubjectID: subjects[i].ID, Body: body}, nil
		}
	}
	return Dataset{}, fmt.Errorf("dataset %s for %s: %w", fileName, tenantID, domain.ErrNotFound)
}

// GetPersonalDataset returns a dataset body from the tenant's own scope.
func (s *Store) GetPersonalDataset(ctx context.Context, tenantID, fileName string) (_ []byte, err error) {
	ctx, done := s.begin(ctx, "get_personal_dataset")
	defer done(&err)

	if !domain.IsSlug(tenantID) || !validDatasetName(fileName) {
		return nil, fmt.Errorf("%w: invalid dataset reference %s/%s", domain.ErrInvalidInput, tenantID, fileName)
	}
	doc, err := s.backend.Read(ctx, tenantDatasetKey(tenantID, fileName))
	if err != nil {
		return nil, s.backendErr("read", tenantDatasetKey(tenantID, fileName), err)
	}
	return doc.Data, nil
}

// ListCatalog returns the tenant's personal catalog for ct, unmerged.
func (s *Store) ListCatalog(ctx context.Context, tenantID string, ct domain.ContentType) (_ []domain.CatalogEntry, err error) {
	ctx, done := s.begin(ctx, "list_catalog")
	defer done(&err)

	if !ct.IsValid() {
		return nil, fmt.Errorf("%w: unknown content type %q", domain.ErrInvalidInput, ct)
	}
	if _, err := s.getWorkspace(ctx, tenantID); err != nil {
		return nil, err
	}
	return readJSONOr(ctx, s, tenantIndexKey(tenantID, ct), []domain.CatalogEntry{})
}

// ListSharedCatalog returns a shared subject's catalog for ct. A subject
// without published content has an empty catalog.
func (s *Store) ListSharedCatalog(ctx context.Context, schoolID, subjectID string, ct domain.ContentType) (_ []domain.CatalogEntry, err error) {
	ctx, done := s.begin(ctx, "list_shared_catalog")
	defer done(&err)

	if !ct.IsValid() {
		return nil, fmt.Errorf("%w: unknown content type %q", domain.ErrInvalidInput, ct)
	}
	if !domain.IsSlug(schoolID) || !domain.IsSubjectID(subjectID) {
		return nil, fmt.Errorf("%w: invalid shared scope %s/%s", domain.ErrInvalidInput, schoolID, subjectID)
	}
	return readJSONOr(ctx, s, sharedIndexKey(schoolID, subjectID, ct), []domain.CatalogEntry{})
}
