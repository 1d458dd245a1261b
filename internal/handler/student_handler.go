package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ipu-result-api/internal/dto"
	"github.com/noah-isme/ipu-result-api/internal/middleware"
	appErrors "github.com/noah-isme/ipu-result-api/pkg/errors"
	"github.com/noah-isme/ipu-result-api/pkg/response"
)

type studentService interface {
	Get(ctx context.Context, rollNum string) (*dto.StudentReport, bool, error)
	Result(ctx context.Context, rollNum string, semester int) (*dto.SemesterReport, error)
}

// StudentHandler serves stored student results.
type StudentHandler struct {
	students studentService
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(students studentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// Get godoc
// @Summary Student results
// @Description Every semester on record with GPA, drops and the cumulative GPA.
// @Tags Students
// @Produce json
// @Param roll path string true "Roll number (11 digits)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{roll} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	report, cacheHit, err := h.students.Get(c.Request.Context(), c.Param("roll"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, report, middleware.ExtractMeta(c))
}

// Result godoc
// @Summary Student result for one semester
// @Tags Students
// @Produce json
// @Param roll path string true "Roll number (11 digits)"
// @Param semester path int true "Semester"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{roll}/results/{semester} [get]
func (h *StudentHandler) Result(c *gin.Context) {
	semester, err := strconv.Atoi(c.Param("semester"))
	if err != nil || semester < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be a positive integer"))
		return
	}
	report, err := h.students.Result(c.Request.Context(), c.Param("roll"), semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}
