package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ipu-result-api/internal/models"
)

// ResultRepository stores semester results and their marks.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository constructs a ResultRepository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

type resultRow struct {
	models.Result
	ImportID *string `db:"import_id"`
}

type markRow struct {
	RollNum  string `db:"roll_num"`
	Semester int    `db:"semester"`
	models.Marks
}

// Insert stores res and its marks. A result already on record for the same
// roll number and semester is kept, and Insert reports false without writing marks.
func (r *ResultRepository) Insert(ctx context.Context, exec sqlx.ExtContext, importID string, res *models.Result) (bool, error) {
	if res.Semester == nil {
		return false, fmt.Errorf("insert result %s: semester missing", res.RollNum)
	}
	target := r.exec(exec)
	row := resultRow{Result: *res}
	if importID != "" {
		row.ImportID = &importID
	}
	const query = `INSERT INTO results (roll_num, semester, student_name, batch, import_id)
VALUES (:roll_num, :semester, :student_name, :batch, :import_id)
ON CONFLICT (roll_num, semester) DO NOTHING`
	outcome, err := sqlx.NamedExecContext(ctx, target, query, row)
	if err != nil {
		return false, fmt.Errorf("insert result %s/%d: %w", res.RollNum, *res.Semester, err)
	}
	affected, err := outcome.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert result %s/%d: %w", res.RollNum, *res.Semester, err)
	}
	if affected == 0 {
		return false, nil
	}

	const markQuery = `INSERT INTO marks (roll_num, semester, paper_id, minor, major, total, grade, paper_credit)
VALUES (:roll_num, :semester, :paper_id, :minor, :major, :total, :grade, :paper_credit)`
	for _, m := range res.SortedMarks() {
		mr := markRow{RollNum: res.RollNum, Semester: *res.Semester, Marks: *m}
		if _, err := sqlx.NamedExecContext(ctx, target, markQuery, mr); err != nil {
			return false, fmt.Errorf("insert marks %s/%d/%d: %w", res.RollNum, *res.Semester, m.PaperID, err)
		}
	}
	return true, nil
}

// ListByStudent returns every result of a student ordered by semester.
func (r *ResultRepository) ListByStudent(ctx context.Context, rollNum string) ([]*models.Result, error) {
	const query = `SELECT roll_num, semester, student_name, batch FROM results WHERE roll_num = $1 ORDER BY semester ASC`
	const markQuery = `SELECT roll_num, semester, paper_id, minor, major, total, grade, paper_credit
FROM marks WHERE roll_num = $1 ORDER BY semester ASC, paper_id ASC`
	return r.load(ctx, query, markQuery, rollNum)
}

// ListBySemester returns every result of a semester ordered by roll number.
func (r *ResultRepository) ListBySemester(ctx context.Context, semester int) ([]*models.Result, error) {
	const query = `SELECT roll_num, semester, student_name, batch FROM results WHERE semester = $1 ORDER BY roll_num ASC`
	const markQuery = `SELECT roll_num, semester, paper_id, minor, major, total, grade, paper_credit
FROM marks WHERE semester = $1 ORDER BY roll_num ASC, paper_id ASC`
	return r.load(ctx, query, markQuery, semester)
}

func (r *ResultRepository) load(ctx context.Context, query, markQuery string, arg interface{}) ([]*models.Result, error) {
	var rows []models.Result
	if err := r.db.SelectContext(ctx, &rows, query, arg); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	if len(rows) == 0 {
		return []*models.Result{}, nil
	}

	type key struct {
		roll string
		sem  int
	}
	results := make([]*models.Result, len(rows))
	index := make(map[key]*models.Result, len(rows))
	for i := range rows {
		res := models.NewResult(rows[i].RollNum, rows[i].Semester, rows[i].StudentName, rows[i].Batch)
		results[i] = res
		if res.Semester != nil {
			index[key{res.RollNum, *res.Semester}] = res
		}
	}

	var marks []markRow
	if err := r.db.SelectContext(ctx, &marks, markQuery, arg); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	for i := range marks {
		res, ok := index[key{marks[i].RollNum, marks[i].Semester}]
		if !ok {
			continue
		}
		m := marks[i].Marks
		res.Marks[m.PaperID] = &m
	}
	return results, nil
}
