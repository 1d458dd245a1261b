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

var subjectCols = []string{"paper_id", "paper_code", "name", "credit", "minor_max", "major_max", "type", "exam", "mode", "kind", "semester"}

func TestSubjectRepositoryUpsertManySkipsNil(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec("INSERT INTO subjects .* ON CONFLICT \\(paper_id\\) DO UPDATE").
		WillReturnResult(sqlmock.NewResult(0, 1))

	stored, err := repo.UpsertMany(context.Background(), nil, []*models.Subject{
		nil,
		{PaperID: 99101, PaperCode: "ES101", Name: "Applied Mathematics-I", Credit: intPtr(4), Semester: intPtr(1)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stored)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListBySemester(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	rows := sqlmock.NewRows(subjectCols).
		AddRow(99101, "ES101", "Applied Mathematics-I", 4, 25, 75, "Theory", "Ext", "Reg", "Core", 1).
		AddRow(99110, "HS111", "Communication Skills", 1, nil, 100, "NUES", "Int", "Reg", "Core", 1)
	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE semester = $1 ORDER BY semester ASC NULLS LAST, paper_id ASC")).
		WithArgs(1).
		WillReturnRows(rows)

	subjects, err := repo.List(context.Background(), models.SubjectFilter{Semester: intPtr(1)})
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Nil(t, subjects[1].MinorMax)
	assert.Equal(t, 100, *subjects[1].MajorMax)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryFindByIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	empty, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE paper_id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows(subjectCols).
			AddRow(99103, "ES103", "Digital Logic", 3, 25, 75, "Theory", "Ext", "Reg", "Core", 3))

	found, err := repo.FindByIDs(context.Background(), []int{99103, 99999})
	require.NoError(t, err)
	require.Contains(t, found, 99103)
	assert.Equal(t, 3, *found[99103].Credit)
	assert.NotContains(t, found, 99999)
	assert.NoError(t, mock.ExpectationsWereMet())
}
