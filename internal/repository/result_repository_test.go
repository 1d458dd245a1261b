package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ipu-result-api/internal/models"
)

func sampleResult(t *testing.T) *models.Result {
	res := models.NewResult("04011502717", intPtr(3), "ASHA KUMARI", intPtr(2017))
	require.NoError(t, res.AddMark("99101", &models.Marks{Minor: intPtr(20), Major: intPtr(55), Total: intPtr(75), Grade: strPtr("A"), PaperCredit: intPtr(4)}))
	require.NoError(t, res.AddMark("99103", &models.Marks{Minor: intPtr(18), Major: intPtr(40), Total: intPtr(58), Grade: strPtr("B"), PaperCredit: intPtr(4)}))
	return res
}

func TestResultRepositoryInsertWritesMarks(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectExec("INSERT INTO results .* ON CONFLICT \\(roll_num, semester\\) DO NOTHING").
		WithArgs("04011502717", 3, "ASHA KUMARI", 2017, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO marks").
		WithArgs("04011502717", 3, 99101, 20, 55, 75, "A", 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO marks").
		WithArgs("04011502717", 3, 99103, 18, 40, 58, "B", 4).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := repo.Insert(context.Background(), nil, "job-1", sampleResult(t))
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryInsertKeepsExisting(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectExec("INSERT INTO results").WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.Insert(context.Background(), nil, "job-2", sampleResult(t))
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryInsertRequiresSemester(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	_, err := repo.Insert(context.Background(), nil, "", models.NewResult("04011502717", nil, "X", nil))
	assert.Error(t, err)
}

func TestResultRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT roll_num, semester, student_name, batch FROM results WHERE roll_num = $1")).
		WithArgs("04011502717").
		WillReturnRows(sqlmock.NewRows([]string{"roll_num", "semester", "student_name", "batch"}).
			AddRow("04011502717", 1, "ASHA KUMARI", 2017).
			AddRow("04011502717", 2, "ASHA KUMARI", nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM marks WHERE roll_num = $1")).
		WithArgs("04011502717").
		WillReturnRows(sqlmock.NewRows([]string{"roll_num", "semester", "paper_id", "minor", "major", "total", "grade", "paper_credit"}).
			AddRow("04011502717", 1, 99101, 20, 55, 75, "A", 4).
			AddRow("04011502717", 2, 99201, nil, nil, nil, nil, nil))

	results, err := repo.ListByStudent(context.Background(), "04011502717")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, *results[0].Semester)
	assert.Equal(t, 75, *results[0].Marks[99101].Total)
	assert.Nil(t, results[1].Batch)
	absent := results[1].Marks[99201]
	require.NotNil(t, absent)
	assert.Nil(t, absent.Total)
	assert.Nil(t, absent.Grade)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryListBySemesterEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectQuery("FROM results WHERE semester = \\$1").
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"roll_num", "semester", "student_name", "batch"}))

	results, err := repo.ListBySemester(context.Background(), 4)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NoError(t, mock.ExpectationsWereMet())
}
