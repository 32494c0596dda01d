package models

import "time"

// SubmissionStatus moves pending -> approved or pending -> rejected, once.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Submission is a worker's proof for a task, waiting on admin review.
type Submission struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	TaskID     uint             `gorm:"index;not null" json:"task_id"`
	WorkerID   int64            `gorm:"index;not null" json:"worker_id"`
	Proof      string           `gorm:"type:text;not null" json:"proof"`
	ProofKind  ProofKind        `gorm:"type:varchar(16);not null" json:"proof_kind"`
	Status     SubmissionStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	ReviewedBy *int64           `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time       `json:"reviewed_at,omitempty"`

	Timestamps
}
