package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ipu-result-api/internal/dto"
	"github.com/noah-isme/ipu-result-api/internal/models"
	appErrors "github.com/noah-isme/ipu-result-api/pkg/errors"
)

type studentServiceMock struct {
	semester int
}

func (m *studentServiceMock) Get(ctx context.Context, rollNum string) (*dto.StudentReport, bool, error) {
	if rollNum != "04011502717" {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return &dto.StudentReport{RollNum: rollNum, CGPA: 7.5, Semesters: []dto.SemesterReport{{Semester: 3, GPA: 7.5}}}, true, nil
}

func (m *studentServiceMock) Result(ctx context.Context, rollNum string, semester int) (*dto.SemesterReport, error) {
	m.semester = semester
	return &dto.SemesterReport{Semester: semester, Marks: []*models.Marks{{PaperID: 99101}}}, nil
}

func TestStudentHandlerGet(t *testing.T) {
	h := NewStudentHandler(&studentServiceMock{})

	c, w := newGinContext(http.MethodGet, "/students/04011502717", nil)
	c.Params = gin.Params{{Key: "roll", Value: "04011502717"}}
	h.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	var report dto.StudentReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 7.5, report.CGPA)
	assert.Equal(t, true, env.Meta["cache_hit"])

	c, w = newGinContext(http.MethodGet, "/students/00000000000", nil)
	c.Params = gin.Params{{Key: "roll", Value: "00000000000"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStudentHandlerResult(t *testing.T) {
	mock := &studentServiceMock{}
	h := NewStudentHandler(mock)

	c, w := newGinContext(http.MethodGet, "/students/04011502717/results/3", nil)
	c.Params = gin.Params{{Key: "roll", Value: "04011502717"}, {Key: "semester", Value: "3"}}
	h.Result(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, mock.semester)

	c, w = newGinContext(http.MethodGet, "/students/04011502717/results/x", nil)
	c.Params = gin.Params{{Key: "roll", Value: "04011502717"}, {Key: "semester", Value: "x"}}
	h.Result(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
