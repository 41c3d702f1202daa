package domain

import "time"

// InboxRecord is the moderation ticket for a submitted dataset.
type InboxRecord struct {
	ID          string      `json:"id"`
	FileName    string      `json:"fileName"`
	DisplayName string      `json:"displayName"`
	ContentType ContentType `json:"contentType"`
	SubjectID   string      `json:"subjectId"`
	TenantID    string      `json:"tenantId"`
	SchoolID    string      `json:"schoolId,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	Status      InboxStatus `json:"status"`
	MovedAt     *time.Time  `json:"movedAt,omitempty"`
	MovedTarget string      `json:"movedTarget,omitempty"`
	RejectedAt  *time.Time  `json:"rejectedAt,omitempty"`
	RejectedBy  string      `json:"rejectedBy,omitempty"`
	AssignedBy  string      `json:"assignedBy,omitempty"`
	AssignedAt  *time.Time  `json:"assignedAt,omitempty"`
}

// IsPending reports whether the record still awaits a decision.
func (r InboxRecord) IsPending() bool {
	return r.Status == InboxStatusPending
}
