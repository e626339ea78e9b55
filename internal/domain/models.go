package domain

import (
	"time"

	"gorm.io/datatypes"
)

// DraftEntry is one key/value pair of an in-progress application. Rows are
// namespaced by wizard session so every applicant has an isolated set of the
// fixed draft keys (form data, current step, language).
//
// Fields:
//   - Namespace: wizard session id.
//   - Key: one of the fixed draft keys.
//   - Value: serialized value (JSON for the record, decimal text for the step).
//   - UpdatedAt: last write time, used for housekeeping.
type DraftEntry struct {
	Namespace string    `gorm:"type:varchar(64);primaryKey"`
	Key       string    `gorm:"type:varchar(64);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null;index"`
}

// TableName returns the database table name for DraftEntry.
func (DraftEntry) TableName() string { return "draft_entries" }

// Submission is a completed application as received by the submission
// backend. The payload keeps the sanitized record exactly as sent.
//
// Fields:
//   - ID: application identifier (APP-<digits>-<alphanumeric>).
//   - UserID: caller identity that submitted; listings are scoped by it.
//   - SessionID: wizard session that produced the submission (may be empty).
//   - Payload: sanitized ApplicationRecord as JSON.
//   - SubmittedAt: backend timestamp returned to the applicant.
type Submission struct {
	ID          string         `json:"applicationId" gorm:"type:varchar(40);primaryKey"`
	UserID      string         `json:"-"             gorm:"type:varchar(128);not null;default:'';index:idx_submissions_owner,priority:1"`
	SessionID   string         `json:"sessionId"     gorm:"type:varchar(64);index:idx_submissions_owner,priority:2"`
	Payload     datatypes.JSON `json:"payload"       gorm:"not null"`
	SubmittedAt time.Time      `json:"submittedAt"   gorm:"not null;index"`
}

// TableName returns the database table name for Submission.
func (Submission) TableName() string { return "submissions" }
