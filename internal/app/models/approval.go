package models

import "time"

// ApprovalType is the kind of request submitted for admin review
type ApprovalType string

const (
	ApprovalTypeRoleChange      ApprovalType = "role_change"
	ApprovalTypeContentApproval ApprovalType = "content_approval"
)

// IsValid reports whether t is a known approval type.
func (t ApprovalType) IsValid() bool {
	return t == ApprovalTypeRoleChange || t == ApprovalTypeContentApproval
}

// ApprovalStatus is the workflow state of a request.
// pending is the only non-terminal state.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s ApprovalStatus) IsTerminal() bool {
	return s == ApprovalApproved || s == ApprovalRejected
}

// ApprovalRequest is a user request awaiting an admin decision
type ApprovalRequest struct {
	ID          string         `json:"id" db:"id"`
	UserID      string         `json:"userId" db:"user_id"`
	Type        ApprovalType   `json:"type" db:"type"`
	Data        JSONMap        `json:"data" db:"data"`
	Status      ApprovalStatus `json:"status" db:"status"`
	ProcessedBy *string        `json:"processedBy,omitempty" db:"processed_by"`
	ProcessedAt *time.Time     `json:"processedAt,omitempty" db:"processed_at"`
	Reason      *string        `json:"reason,omitempty" db:"reason"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time      `json:"updatedAt" db:"updated_at"`
}

// ApprovalDecision is the outcome an admin records on a pending request.
type ApprovalDecision struct {
	Status      ApprovalStatus
	ProcessedBy string
	Reason      *string
}
