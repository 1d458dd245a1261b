package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ipu-result-api/internal/dto"
	"github.com/noah-isme/ipu-result-api/internal/models"
	appErrors "github.com/noah-isme/ipu-result-api/pkg/errors"
	"github.com/noah-isme/ipu-result-api/pkg/response"
)

type subjectService interface {
	List(ctx context.Context, query dto.SubjectQuery) ([]models.Subject, error)
}

// SubjectHandler lists papers read from scheme pages.
type SubjectHandler struct {
	subjects subjectService
}

// NewSubjectHandler constructs the handler.
func NewSubjectHandler(subjects subjectService) *SubjectHandler {
	return &SubjectHandler{subjects: subjects}
}

// List godoc
// @Summary List subjects
// @Tags Subjects
// @Produce json
// @Param semester query int false "Semester"
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	var query dto.SubjectQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	subjects, err := h.subjects.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, map[string]interface{}{"count": len(subjects)})
}
