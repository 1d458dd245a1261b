package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ipu-result-api/internal/models"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestNewStudentReport(t *testing.T) {
	student := models.NewStudent("04011502717")
	student.Name = strPtr("ASHA KUMARI")

	first := models.NewResult("04011502717", intPtr(1), "ASHA KUMARI", intPtr(2017))
	require.NoError(t, first.AddMark("99101", &models.Marks{Total: intPtr(75), Grade: strPtr("A"), PaperCredit: intPtr(4)}))
	require.NoError(t, first.AddMark("99103", &models.Marks{Total: intPtr(30), Grade: strPtr("F"), PaperCredit: intPtr(4)}))
	second := models.NewResult("04011502717", intPtr(2), "ASHA KUMARI", intPtr(2017))
	require.NoError(t, second.AddMark("99201", &models.Marks{Total: intPtr(90), Grade: strPtr("O"), PaperCredit: intPtr(4)}))

	require.NoError(t, student.AddResult("2", second))
	require.NoError(t, student.AddResult("1", first))

	report := NewStudentReport(student)
	assert.Equal(t, "04011502717", report.RollNum)
	require.Len(t, report.Semesters, 2)
	assert.Equal(t, 1, report.Semesters[0].Semester)
	assert.Equal(t, []int{99103}, report.Semesters[0].Drops)
	assert.Equal(t, 4.0, report.Semesters[0].GPA)
	assert.Equal(t, 8, report.Semesters[0].Credits)
	assert.Equal(t, 10.0, report.Semesters[1].GPA)
	assert.Empty(t, report.Semesters[1].Drops)
	assert.Equal(t, 6.0, report.CGPA)
}
