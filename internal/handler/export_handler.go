package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ipu-result-api/internal/service"
	appErrors "github.com/noah-isme/ipu-result-api/pkg/errors"
	"github.com/noah-isme/ipu-result-api/pkg/response"
)

type exportService interface {
	Semester(ctx context.Context, semester int, format string) (*service.ExportFile, error)
}

// ExportHandler streams tabulated results.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Semester godoc
// @Summary Export a semester
// @Description One row per student with GPA, drops and every paper total.
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param semester path int true "Semester"
// @Param format query string false "csv, pdf or xlsx" default(csv)
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /exports/semesters/{semester} [get]
func (h *ExportHandler) Semester(c *gin.Context) {
	semester, err := strconv.Atoi(c.Param("semester"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be an integer"))
		return
	}
	file, err := h.exports.Semester(c.Request.Context(), semester, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
