package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ipu-result-api/internal/models"
)

// SaveSummary counts what one Save call wrote.
type SaveSummary struct {
	Subjects       int
	Students       int
	Results        int
	Marks          int
	SkippedResults int
}

// RecordRepository writes everything extracted from one document in a single transaction.
type RecordRepository struct {
	db       *sqlx.DB
	subjects *SubjectRepository
	students *StudentRepository
	results  *ResultRepository
}

// NewRecordRepository constructs a RecordRepository.
func NewRecordRepository(db *sqlx.DB, subjects *SubjectRepository, students *StudentRepository, results *ResultRepository) *RecordRepository {
	return &RecordRepository{db: db, subjects: subjects, students: students, results: results}
}

// Save stores subjects and students with their results. Results already on
// record for a roll number and semester are left untouched and counted as skipped.
func (r *RecordRepository) Save(ctx context.Context, importID string, subjects []*models.Subject, students []*models.Student) (summary SaveSummary, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("begin save records: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if summary.Subjects, err = r.subjects.UpsertMany(ctx, tx, subjects); err != nil {
		return summary, err
	}
	for _, student := range students {
		if err = r.students.Upsert(ctx, tx, student); err != nil {
			return summary, err
		}
		summary.Students++
		for _, res := range student.Results() {
			var inserted bool
			if inserted, err = r.results.Insert(ctx, tx, importID, res); err != nil {
				return summary, err
			}
			if !inserted {
				summary.SkippedResults++
				continue
			}
			summary.Results++
			summary.Marks += len(res.Marks)
		}
	}

	if err = tx.Commit(); err != nil {
		return summary, fmt.Errorf("commit save records: %w", err)
	}
	return summary, nil
}
