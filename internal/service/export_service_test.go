package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ipu-result-api/internal/models"
	appErrors "github.com/noah-isme/ipu-result-api/pkg/errors"
)

type semesterStub map[int][]*models.Result

func (s semesterStub) ListBySemester(ctx context.Context, semester int) ([]*models.Result, error) {
	return s[semester], nil
}

func semesterFixture() semesterStub {
	a := models.NewResult("04011502717", intPtr(3), "ASHA KUMARI", intPtr(2017))
	a.Marks[99103] = &models.Marks{PaperID: 99103, Total: intPtr(58), Grade: strPtr("B"), PaperCredit: intPtr(4)}
	a.Marks[99101] = &models.Marks{PaperID: 99101, Total: intPtr(75), Grade: strPtr("A"), PaperCredit: intPtr(4)}
	b := models.NewResult("00111502717", intPtr(3), "BALA", nil)
	b.Marks[99105] = &models.Marks{PaperID: 99105}
	return semesterStub{3: {b, a}}
}

func TestSemesterDataset(t *testing.T) {
	data := SemesterDataset(3, semesterFixture()[3])
	assert.Equal(t, "Semester 3 results", data.Title)
	assert.Equal(t, []string{"roll_num", "name", "batch", "gpa", "credits", "drops", "99101", "99103", "99105"}, data.Headers)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"00111502717", "BALA", "", "0.00", "0", "1", "", "", ""}, data.Rows[0])
	assert.Equal(t, []string{"04011502717", "ASHA KUMARI", "2017", "7.00", "8", "0", "75", "58", ""}, data.Rows[1])
}

func TestExportSemesterCSV(t *testing.T) {
	svc := NewExportService(semesterFixture(), nil)
	file, err := svc.Semester(context.Background(), 3, "")
	require.NoError(t, err)
	assert.Equal(t, "semester-3.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "roll_num", records[0][0])
	assert.Equal(t, "04011502717", records[2][0])
}

func TestExportSemesterXLSX(t *testing.T) {
	svc := NewExportService(semesterFixture(), nil)
	file, err := svc.Semester(context.Background(), 3, "XLSX")
	require.NoError(t, err)
	assert.Equal(t, "semester-3.xlsx", file.Filename)
	assert.NotEmpty(t, file.Data)
}

func TestExportSemesterErrors(t *testing.T) {
	svc := NewExportService(semesterFixture(), nil)

	_, err := svc.Semester(context.Background(), 4, "csv")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Semester(context.Background(), 3, "docx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Semester(context.Background(), 0, "csv")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
