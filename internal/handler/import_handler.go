package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/ipu-result-api/internal/dto"
	"github.com/noah-isme/ipu-result-api/internal/models"
	appErrors "github.com/noah-isme/ipu-result-api/pkg/errors"
	"github.com/noah-isme/ipu-result-api/pkg/response"
)

type importService interface {
	Submit(ctx context.Context, req dto.ImportRequest) (*dto.ImportJobResponse, error)
	SubmitPDF(ctx context.Context, name string, data []byte) (*dto.ImportJobResponse, error)
	Get(ctx context.Context, id string) (*models.ImportJob, error)
	Source(ctx context.Context, id string) (*models.ImportJob, io.ReadCloser, error)
}

// ImportHandler accepts result documents.
type ImportHandler struct {
	imports   importService
	maxUpload int64
}

// NewImportHandler constructs the handler. maxUpload caps PDF uploads in bytes.
func NewImportHandler(imports importService, maxUpload int64) *ImportHandler {
	return &ImportHandler{imports: imports, maxUpload: maxUpload}
}

// Create godoc
// @Summary Import converted pages
// @Description Submit pdftotext -layout output, one string per page.
// @Tags Imports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ImportRequest true "Pages"
// @Success 200 {object} response.Envelope "duplicate of an earlier import"
// @Success 201 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /imports [post]
func (h *ImportHandler) Create(c *gin.Context) {
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import payload"))
		return
	}
	resp, err := h.imports.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondImport(c, resp)
}

// UploadPDF godoc
// @Summary Import a result PDF
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Result or scheme PDF"
// @Success 200 {object} response.Envelope "duplicate of an earlier import"
// @Success 201 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /imports/pdf [post]
func (h *ImportHandler) UploadPDF(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if h.maxUpload > 0 && header.Size > h.maxUpload {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes", h.maxUpload)))
		return
	}
	f, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable upload"))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable upload"))
		return
	}

	resp, err := h.imports.SubmitPDF(c.Request.Context(), header.Filename, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondImport(c, resp)
}

// Get godoc
// @Summary Import status
// @Tags Imports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Import ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /imports/{id} [get]
func (h *ImportHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "import id must be a uuid"))
		return
	}
	job, err := h.imports.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job)
}

// Source godoc
// @Summary Download the archived PDF of an import
// @Tags Imports
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Import ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /imports/{id}/source [get]
func (h *ImportHandler) Source(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "import id must be a uuid"))
		return
	}
	job, rc, err := h.imports.Source(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read archived document"))
		return
	}
	name := job.Source
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name = job.Fingerprint + ".pdf"
	}
	response.Attachment(c, name, "application/pdf", data)
}

func respondImport(c *gin.Context, resp *dto.ImportJobResponse) {
	switch {
	case resp.Duplicate:
		response.JSON(c, http.StatusOK, resp)
	case resp.Status == models.ImportStatusQueued:
		response.Accepted(c, resp)
	default:
		response.Created(c, resp)
	}
}
