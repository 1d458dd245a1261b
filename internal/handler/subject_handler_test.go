package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ipu-result-api/internal/dto"
	"github.com/noah-isme/ipu-result-api/internal/models"
)

type subjectServiceMock struct {
	query dto.SubjectQuery
}

func (m *subjectServiceMock) List(ctx context.Context, query dto.SubjectQuery) ([]models.Subject, error) {
	m.query = query
	return []models.Subject{{PaperID: 99101}, {PaperID: 99103}}, nil
}

func TestSubjectHandlerList(t *testing.T) {
	mock := &subjectServiceMock{}
	h := NewSubjectHandler(mock)

	c, w := newGinContext(http.MethodGet, "/subjects?semester=3", nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.query.Semester)
	assert.Equal(t, 3, *mock.query.Semester)
	assert.Equal(t, 2.0, decode(t, w).Meta["count"])
}

func TestSubjectHandlerListBadSemester(t *testing.T) {
	c, w := newGinContext(http.MethodGet, "/subjects?semester=third", nil)
	NewSubjectHandler(&subjectServiceMock{}).List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
