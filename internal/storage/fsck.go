package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

// FindingKind classifies a consistency problem.
type FindingKind string

const (
	FindingDangling          FindingKind = "dangling"
	FindingOrphan            FindingKind = "orphan"
	FindingCorrupt           FindingKind = "corrupt"
	FindingUnlistedWorkspace FindingKind = "unlisted_workspace"
)

// Finding is one problem found by Fsck.
type Finding struct {
	Kind        FindingKind        `json:"kind"`
	Key         string             `json:"key"`
	ContentType domain.ContentType `json:"contentType,omitempty"`
	Repaired    bool               `json:"repaired"`
}

// FsckReport summarizes a consistency scan.
type FsckReport struct {
	Documents      int       `json:"documents"`
	PendingIntents int       `json:"pendingIntents"`
	Findings       []Finding `json:"findings"`
}

// Count returns the number of findings of kind.
func (r FsckReport) Count(kind FindingKind) int {
	n := 0
	for _, f := range r.Findings {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

// scopeDir is a directory holding catalog indexes and dataset bodies.
type scopeDir struct {
	path      string
	subjectID string
	files     map[string]bool
}

// Fsck scans every personal and shared scope for catalog entries without a
// body (dangling), bodies without a catalog entry (orphans), undecodable
// documents and workspaces missing from the global list. With repair set,
// orphans of a known content type are indexed, dangling entries dropped and
// unlisted workspaces added to the list.
func (s *Store) Fsck(ctx context.Context, repair bool) (_ FsckReport, err error) {
	ctx, done := s.begin(ctx, "fsck")
	defer done(&err)

	keys, err := s.backend.List(ctx, "")
	if err != nil {
		return FsckReport{}, s.backendErr("list", "", err)
	}

	report := FsckReport{Findings: []Finding{}}
	dirs := make(map[string]*scopeDir)
	corrupt := make(map[string]bool)
	var metas []string

	for _, key := range keys {
		if strings.HasPrefix(key, journalPrefix) {
			report.PendingIntents++
			continue
		}
		report.Documents++

		doc, err := s.backend.Read(ctx, key)
		if errors.Is(err, ErrNoDocument) {
			continue
		}
		if err != nil {
			return report, s.backendErr("read", key, err)
		}
		if !json.Valid(doc.Data) {
			corrupt[key] = true
			report.Findings = append(report.Findings, Finding{Kind: FindingCorrupt, Key: key})
			continue
		}

		dir, name, subjectID, ok := splitScopeKey(key)
		if !ok {
			continue
		}
		if name == metaFile {
			metas = append(metas, key)
		}
		d := dirs[dir]
		if d == nil {
			d = &scopeDir{path: dir, subjectID: subjectID, files: make(map[string]bool)}
			dirs[dir] = d
		}
		d.files[name] = true
	}

	paths := make([]string, 0, len(dirs))
	for p := range dirs {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		found, err := s.checkScope(ctx, dirs[p], corrupt, repair)
		if err != nil {
			return report, err
		}
		report.Findings = append(report.Findings, found...)
	}

	found, err := s.checkWorkspaceList(ctx, metas, corrupt, repair)
	if err != nil {
		return report, err
	}
	report.Findings = append(report.Findings, found...)

	s.log.InfoContext(ctx, "fsck finished",
		slog.Int("documents", report.Documents),
		slog.Int("findings", len(report.Findings)),
		slog.Bool("repair", repair),
	)
	return report, nil
}

// splitScopeKey maps a key to its scope directory. Only tenant keys
// (<tenant>/<name>) and shared subject keys (shared/<school>/<subject>/<name>)
// belong to a scope.
func splitScopeKey(key string) (dir, name, subjectID string, ok bool) {
	parts := strings.Split(key, "/")
	switch {
	case len(parts) == 2 && parts[0] != "shared" && parts[0] != "inbox" && parts[0] != "journal":
		return parts[0], parts[1], "", true
	case len(parts) == 4 && parts[0] == "shared":
		return strings.Join(parts[:3], "/"), parts[3], parts[2], true
	}
	return "", "", "", false
}

func (s *Store) checkScope(ctx context.Context, d *scopeDir, corrupt map[string]bool, repair bool) ([]Finding, error) {
	var out []Finding
	indexed := make(map[string]bool)

	for _, ct := range domain.ContentTypes {
		indexKey := d.path + "/" + ct.IndexFileName()
		if !d.files[ct.IndexFileName()] || corrupt[indexKey] {
			continue
		}
		entries, err := readJSON[[]domain.CatalogEntry](ctx, s, indexKey)
		if err != nil {
			if errors.Is(err, ErrCorruptDocument) {
				out = append(out, Finding{Kind: FindingCorrupt, Key: indexKey, ContentType: ct})
				continue
			}
			return nil, err
		}
		for _, e := range entries {
			indexed[e.File] = true
			if d.files[e.File] {
				continue
			}
			f := Finding{Kind: FindingDangling, Key: d.path + "/" + e.File, ContentType: ct}
			if repair {
				if err := s.dropIndexEntry(ctx, indexKey, e.File); err != nil {
					return nil, err
				}
				f.Repaired = true
			}
			out = append(out, f)
		}
	}

	names := make([]string, 0, len(d.files))
	for name := range d.files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		key := d.path + "/" + name
		if isSystemFile(name) || indexed[name] || corrupt[key] || !strings.HasSuffix(name, ".json") {
			continue
		}
		f := Finding{Kind: FindingOrphan, Key: key}
		ct, known := contentTypeOfFile(name)
		if known {
			f.ContentType = ct
		}
		if repair && known {
			indexKey := d.path + "/" + ct.IndexFileName()
			title := strings.TrimSuffix(name, ".json")
			if _, err := s.upsertIndexEntry(ctx, indexKey, name, title, d.subjectID); err != nil {
				return nil, err
			}
			f.Repaired = true
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *Store) checkWorkspaceList(ctx context.Context, metas []string, corrupt map[string]bool, repair bool) ([]Finding, error) {
	if corrupt[workspacesKey] {
		return nil, nil
	}
	list, err := readJSONOr(ctx, s, workspacesKey, []domain.Workspace{})
	if err != nil {
		return nil, err
	}
	listed := make(map[string]bool, len(list))
	for _, w := range list {
		listed[w.ID] = true
	}

	var out []Finding
	for _, key := range metas {
		ws, err := readJSON[domain.Workspace](ctx, s, key)
		if err != nil {
			return nil, err
		}
		if listed[ws.ID] {
			continue
		}
		f := Finding{Kind: FindingUnlistedWorkspace, Key: key}
		if repair {
			if err := s.putWorkspaceListEntry(ctx, ws); err != nil {
				return nil, err
			}
			f.Repaired = true
		}
		out = append(out, f)
	}
	return out, nil
}

// DuplicateGroup is a dataset file name present in several workspaces.
type DuplicateGroup struct {
	ContentType domain.ContentType `json:"contentType"`
	FileName    string             `json:"fileName"`
	SubjectHint string             `json:"subjectHint"`
	Tenants     []string           `json:"tenants"`
	SameContent bool               `json:"sameContent"`
	Hash        string             `json:"hash,omitempty"`
	Errors      map[string]string  `json:"errors,omitempty"`
}

// Duplicates groups personal datasets of active workspaces by content type
// and file name, comparing bodies by a hash of their key-sorted JSON.
func (s *Store) Duplicates(ctx context.Context) (_ []DuplicateGroup, err error) {
	ctx, done := s.begin(ctx, "duplicates")
	defer done(&err)

	workspaces, err := readJSONOr(ctx, s, workspacesKey, []domain.Workspace{})
	if err != nil {
		return nil, err
	}

	type copyInfo struct {
		tenant  string
		subject string
		hash    string
		err     string
	}

	var groups []DuplicateGroup
	for _, ct := range domain.ContentTypes {
		byFile := make(map[string][]copyInfo)
		for _, ws := range workspaces {
			if !ws.IsActive() {
				continue
			}
			entries, err := readJSONOr(ctx, s, tenantIndexKey(ws.ID, ct), []domain.CatalogEntry{})
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				c := copyInfo{tenant: ws.ID, subject: e.Subject}
				doc, err := s.backend.Read(ctx, tenantDatasetKey(ws.ID, e.File))
				switch {
				case errors.Is(err, ErrNoDocument):
					c.err = "not_found"
				case err != nil:
					return nil, s.backendErr("read", tenantDatasetKey(ws.ID, e.File), err)
				default:
					h, herr := CanonicalHash(doc.Data)
					if herr != nil {
						c.err = "parse_error"
					}
					c.hash = h
				}
				byFile[e.File] = append(byFile[e.File], c)
			}
		}

		files := make([]string, 0, len(byFile))
		for f, copies := range byFile {
			if len(copies) > 1 {
				files = append(files, f)
			}
		}
		sort.Strings(files)

		for _, f := range files {
			copies := byFile[f]
			g := DuplicateGroup{ContentType: ct, FileName: f, SubjectHint: copies[0].subject, SameContent: true}
			for _, c := range copies {
				g.Tenants = append(g.Tenants, c.tenant)
				if c.err != "" {
					if g.Errors == nil {
						g.Errors = make(map[string]string)
					}
					g.Errors[c.tenant] = c.err
					g.SameContent = false
					continue
				}
				if c.hash != copies[0].hash {
					g.SameContent = false
				}
			}
			if g.SameContent {
				g.Hash = copies[0].hash
			}
			groups = append(groups, g)
		}
	}
	return groups, nil
}

// CanonicalHash returns the SHA-256 of data re-encoded with sorted object
// keys, so formatting and key order do not affect it.
func CanonicalHash(data []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	canonical, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
