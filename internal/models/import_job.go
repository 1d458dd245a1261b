package models

import "time"

// ImportStatus tracks the lifecycle of an import job.
type ImportStatus string

const (
	ImportStatusQueued     ImportStatus = "QUEUED"
	ImportStatusProcessing ImportStatus = "PROCESSING"
	ImportStatusFinished   ImportStatus = "FINISHED"
	ImportStatusFailed     ImportStatus = "FAILED"
)

// ImportJob records one submitted document and what was extracted from it.
type ImportJob struct {
	ID           string       `db:"id" json:"id"`
	Source       string       `db:"source" json:"source"`
	Fingerprint  string       `db:"fingerprint" json:"fingerprint"`
	Status       ImportStatus `db:"status" json:"status"`
	PageCount    int          `db:"page_count" json:"page_count"`
	SubjectCount int          `db:"subject_count" json:"subject_count"`
	StudentCount int          `db:"student_count" json:"student_count"`
	MarkCount    int          `db:"mark_count" json:"mark_count"`
	SkewedBlocks int          `db:"skewed_blocks" json:"skewed_blocks"`
	ErrorMessage *string      `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time   `db:"finished_at" json:"finished_at,omitempty"`
	Pages        []string     `db:"-" json:"-"`
}
