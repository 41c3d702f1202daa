package domain

import (
	"slices"
	"strings"
	"time"
)

// Workspace is a tenant: an isolated personal content area.
type Workspace struct {
	ID                string          `json:"id"`
	DisplayName       string          `json:"displayName"`
	Status            WorkspaceStatus `json:"status"`
	SchoolID          string          `json:"schoolId,omitempty"`
	EnabledSubjectIDs []string        `json:"enabledSubjects,omitempty"`
	DataVersion       string          `json:"dataVersion"`
	IsSystem          bool            `json:"isSystem"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// IsActive reports whether the workspace accepts reads and writes.
func (w Workspace) IsActive() bool {
	return w.Status == WorkspaceStatusActive
}

// HasSubject reports whether subjectID is enabled for the workspace.
func (w Workspace) HasSubject(subjectID string) bool {
	return slices.Contains(w.EnabledSubjectIDs, subjectID)
}

// Subject is a school-level subject. ID is the stable join key, Label is
// the display name.
type Subject struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

// School is an organization that owns shared catalogs per subject.
type School struct {
	ID       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	Subjects []Subject `json:"subjects"`
}

// Subject returns the registered subject with the given ID.
func (s School) Subject(id string) (Subject, bool) {
	for _, sub := range s.Subjects {
		if sub.ID == id {
			return sub, true
		}
	}
	return Subject{}, false
}

// ResolveSubject maps a free-text or localized label to a registered
// subject, matching ID or label case-insensitively.
func (s School) ResolveSubject(label string) (Subject, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Subject{}, false
	}
	for _, sub := range s.Subjects {
		if strings.EqualFold(sub.ID, label) || strings.EqualFold(sub.Label, label) {
			return sub, true
		}
	}
	canonical := NormalizeSubjectLabel(label)
	for _, sub := range s.Subjects {
		if strings.EqualFold(NormalizeSubjectLabel(sub.Label), canonical) {
			return sub, true
		}
	}
	return Subject{}, false
}

// WorkspaceContext is a workspace together with its school and the
// subjects it may read shared content from.
type WorkspaceContext struct {
	Workspace          Workspace `json:"workspace"`
	School             *School   `json:"school,omitempty"`
	AccessibleSubjects []Subject `json:"accessibleSubjects"`
}

// NewWorkspaceContext computes the accessible subjects as the intersection
// of the workspace's enabled subjects and the school's registry, in
// registry order.
func NewWorkspaceContext(ws Workspace, school *School) WorkspaceContext {
	wc := WorkspaceContext{Workspace: ws, School: school, AccessibleSubjects: []Subject{}}
	if school == nil {
		return wc
	}
	for _, sub := range school.Subjects {
		if ws.HasSubject(sub.ID) {
			wc.AccessibleSubjects = append(wc.AccessibleSubjects, sub)
		}
	}
	return wc
}

// SchoolID returns the school ID or an empty string.
func (c WorkspaceContext) SchoolID() string {
	if c.School == nil {
		return ""
	}
	return c.School.ID
}
