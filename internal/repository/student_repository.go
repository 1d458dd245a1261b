package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ipu-result-api/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Upsert inserts a student or fills the blanks of an existing row.
func (r *StudentRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error {
	const query = `INSERT INTO students (roll_num, name, batch_year, programme_code, programme_name, institution_code, institution_name)
VALUES (:roll_num, :name, :batch_year, :programme_code, :programme_name, :institution_code, :institution_name)
ON CONFLICT (roll_num) DO UPDATE
SET name = COALESCE(students.name, EXCLUDED.name),
    batch_year = COALESCE(students.batch_year, EXCLUDED.batch_year)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, student); err != nil {
		return fmt.Errorf("upsert student %s: %w", student.ID, err)
	}
	return nil
}

// FindByRoll fetches a student without results. It returns sql.ErrNoRows when absent.
func (r *StudentRepository) FindByRoll(ctx context.Context, rollNum string) (*models.Student, error) {
	const query = `SELECT roll_num, name, batch_year, programme_code, programme_name, institution_code, institution_name
FROM students WHERE roll_num = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, rollNum); err != nil {
		return nil, err
	}
	student.ResultsBySem = make(map[int]*models.Result)
	return &student, nil
}
