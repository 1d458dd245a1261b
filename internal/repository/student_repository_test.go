package repository

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ipu-result-api/internal/models"
)

func TestStudentRepositoryUpsertKeepsExistingFields(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students .* ON CONFLICT \\(roll_num\\) DO UPDATE SET name = COALESCE\\(students.name, EXCLUDED.name\\)").
		WithArgs("04011502717", "ASHA KUMARI", 2017, nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	student := models.NewStudent("04011502717")
	student.Name = strPtr("ASHA KUMARI")
	student.BatchYear = intPtr(2017)
	require.NoError(t, repo.Upsert(context.Background(), nil, student))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByRoll(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("FROM students WHERE roll_num = \\$1").
		WithArgs("00000000000").
		WillReturnError(sql.ErrNoRows)
	_, err := repo.FindByRoll(context.Background(), "00000000000")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	mock.ExpectQuery("FROM students WHERE roll_num = \\$1").
		WithArgs("04011502717").
		WillReturnRows(sqlmock.NewRows([]string{"roll_num", "name", "batch_year", "programme_code", "programme_name", "institution_code", "institution_name"}).
			AddRow("04011502717", "ASHA KUMARI", 2017, nil, nil, nil, nil))
	student, err := repo.FindByRoll(context.Background(), "04011502717")
	require.NoError(t, err)
	assert.Equal(t, "ASHA KUMARI", *student.Name)
	assert.NotNil(t, student.ResultsBySem)
	assert.NoError(t, mock.ExpectationsWereMet())
}
