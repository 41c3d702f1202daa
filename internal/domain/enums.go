package domain

import "strings"

// ContentType is the kind of study material a dataset holds.
type ContentType string

const (
	ContentTypeFlashcard ContentType = "flashcard"
	ContentTypeDecoder   ContentType = "decoder"
	ContentTypePractice  ContentType = "practice"
)

// ContentTypes lists every supported content type in index order.
var ContentTypes = []ContentType{ContentTypeFlashcard, ContentTypeDecoder, ContentTypePractice}

func (c ContentType) String() string { return string(c) }

func (c ContentType) IsValid() bool {
	switch c {
	case ContentTypeFlashcard, ContentTypeDecoder, ContentTypePractice:
		return true
	}
	return false
}

// IndexFileName is the name of the per-scope catalog index for this type.
func (c ContentType) IndexFileName() string {
	return string(c) + "_topics.json"
}

// ContentTypeOfFile infers the content type from a derived dataset file
// name such as "flashcard_econ_week1.json".
func ContentTypeOfFile(name string) (ContentType, bool) {
	for _, ct := range ContentTypes {
		if strings.HasPrefix(name, string(ct)+"_") {
			return ct, true
		}
	}
	return "", false
}

// Scope tells where a dataset lives.
type Scope string

const (
	ScopeUser   Scope = "user"
	ScopeShared Scope = "shared"
)

func (s Scope) String() string { return string(s) }

func (s Scope) IsValid() bool {
	return s == ScopeUser || s == ScopeShared
}

// WorkspaceStatus is the lifecycle state of a workspace.
type WorkspaceStatus string

const (
	WorkspaceStatusActive   WorkspaceStatus = "active"
	WorkspaceStatusInactive WorkspaceStatus = "inactive"
)

func (s WorkspaceStatus) String() string { return string(s) }

// InboxStatus is the moderation state of an inbox record.
type InboxStatus string

const (
	InboxStatusPending       InboxStatus = "pending"
	InboxStatusMovedToUser   InboxStatus = "moved_to_user"
	InboxStatusMovedToShared InboxStatus = "moved_to_shared"
	InboxStatusRejected      InboxStatus = "rejected"
)

func (s InboxStatus) String() string { return string(s) }

func (s InboxStatus) IsValid() bool {
	switch s {
	case InboxStatusPending, InboxStatusMovedToUser, InboxStatusMovedToShared, InboxStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s InboxStatus) IsTerminal() bool {
	return s == InboxStatusMovedToUser || s == InboxStatusMovedToShared || s == InboxStatusRejected
}

// Severity ranks an audit issue. Only Blocker prevents publication.
type Severity string

const (
	SeverityBlocker Severity = "Blocker"
	SeverityMajor   Severity = "Major"
	SeverityMinor   Severity = "Minor"
)

func (s Severity) String() string { return string(s) }

func (s Severity) IsValid() bool {
	switch s {
	case SeverityBlocker, SeverityMajor, SeverityMinor:
		return true
	}
	return false
}

// Role is the caller's authority level.
type Role string

const (
	RoleTenant    Role = "tenant"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool {
	switch r {
	case RoleTenant, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// CanModerate reports whether the role may act on records it does not own.
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}
