package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/ipu-result-api/internal/models"
)

const subjectColumns = `paper_id, paper_code, name, credit, minor_max, major_max, type, exam, mode, kind, semester`

// SubjectRepository manages the paper catalogue read from scheme pages.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

func (r *SubjectRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// UpsertMany stores subjects. A paper already in the catalogue keeps its row,
// except that missing credits and maxima are filled in.
func (r *SubjectRepository) UpsertMany(ctx context.Context, exec sqlx.ExtContext, subjects []*models.Subject) (int, error) {
	const query = `INSERT INTO subjects (` + subjectColumns + `)
VALUES (:paper_id, :paper_code, :name, :credit, :minor_max, :major_max, :type, :exam, :mode, :kind, :semester)
ON CONFLICT (paper_id) DO UPDATE
SET credit = COALESCE(subjects.credit, EXCLUDED.credit),
    minor_max = COALESCE(subjects.minor_max, EXCLUDED.minor_max),
    major_max = COALESCE(subjects.major_max, EXCLUDED.major_max),
    semester = COALESCE(subjects.semester, EXCLUDED.semester)`

	target := r.exec(exec)
	stored := 0
	for _, subject := range subjects {
		if subject == nil {
			continue
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, subject); err != nil {
			return stored, fmt.Errorf("upsert subject %d: %w", subject.PaperID, err)
		}
		stored++
	}
	return stored, nil
}

// List returns the catalogue ordered by semester then paper id.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects`
	var args []interface{}
	if filter.Semester != nil {
		query += ` WHERE semester = $1`
		args = append(args, *filter.Semester)
	}
	query += ` ORDER BY semester ASC NULLS LAST, paper_id ASC`

	subjects := []models.Subject{}
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByIDs returns the catalogue entries for the given paper ids keyed by id.
func (r *SubjectRepository) FindByIDs(ctx context.Context, ids []int) (map[int]*models.Subject, error) {
	out := make(map[int]*models.Subject, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]int64, len(ids))
	for i, id := range ids {
		keys[i] = int64(id)
	}
	var subjects []models.Subject
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE paper_id = ANY($1)`
	if err := r.db.SelectContext(ctx, &subjects, query, pq.Array(keys)); err != nil {
		return nil, fmt.Errorf("find subjects: %w", err)
	}
	for i := range subjects {
		out[subjects[i].PaperID] = &subjects[i]
	}
	return out, nil
}
