package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ipu-result-api/internal/dto"
	"github.com/noah-isme/ipu-result-api/internal/models"
	appErrors "github.com/noah-isme/ipu-result-api/pkg/errors"
)

const jobID = "5f0c7a2e-1b7d-4a0e-9a43-0d8f6c1e2b11"

type importServiceMock struct {
	resp    *dto.ImportJobResponse
	err     error
	req     dto.ImportRequest
	pdfName string
	pdfData []byte
	job     *models.ImportJob
}

func (m *importServiceMock) Submit(ctx context.Context, req dto.ImportRequest) (*dto.ImportJobResponse, error) {
	m.req = req
	return m.resp, m.err
}

func (m *importServiceMock) SubmitPDF(ctx context.Context, name string, data []byte) (*dto.ImportJobResponse, error) {
	m.pdfName = name
	m.pdfData = data
	return m.resp, m.err
}

func (m *importServiceMock) Get(ctx context.Context, id string) (*models.ImportJob, error) {
	if m.job == nil || m.job.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "import not found")
	}
	return m.job, nil
}

func (m *importServiceMock) Source(ctx context.Context, id string) (*models.ImportJob, io.ReadCloser, error) {
	job, err := m.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if m.pdfData == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "no archived document for this import")
	}
	return job, io.NopCloser(bytes.NewReader(m.pdfData)), nil
}

func queued() *dto.ImportJobResponse {
	return &dto.ImportJobResponse{ImportJob: models.ImportJob{ID: jobID, Status: models.ImportStatusQueued}}
}

func TestImportHandlerCreate(t *testing.T) {
	mock := &importServiceMock{resp: queued()}
	h := NewImportHandler(mock, 1024)

	payload, _ := json.Marshal(dto.ImportRequest{Source: "registrar", Pages: []string{"page"}})
	c, w := newGinContext(http.MethodPost, "/imports", payload)
	h.Create(c)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"page"}, mock.req.Pages)
	var got dto.ImportJobResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.Equal(t, jobID, got.ID)
}

func TestImportHandlerCreateStatusCodes(t *testing.T) {
	finished := &dto.ImportJobResponse{ImportJob: models.ImportJob{ID: jobID, Status: models.ImportStatusFinished}}
	duplicate := &dto.ImportJobResponse{ImportJob: models.ImportJob{ID: jobID, Status: models.ImportStatusFinished}, Duplicate: true}

	for status, resp := range map[int]*dto.ImportJobResponse{http.StatusCreated: finished, http.StatusOK: duplicate} {
		c, w := newGinContext(http.MethodPost, "/imports", []byte(`{"pages":["p"]}`))
		NewImportHandler(&importServiceMock{resp: resp}, 0).Create(c)
		assert.Equal(t, status, w.Code)
	}
}

func TestImportHandlerCreateBadJSON(t *testing.T) {
	c, w := newGinContext(http.MethodPost, "/imports", []byte(`{"pages":`))
	NewImportHandler(&importServiceMock{}, 0).Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w).Error["code"])
}

func multipartContext(t *testing.T, field, name string, data []byte) *gin.Context {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	c, _ := newGinContext(http.MethodPost, "/imports/pdf", body.Bytes())
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())
	return c
}

func TestImportHandlerUploadPDF(t *testing.T) {
	mock := &importServiceMock{resp: queued()}
	h := NewImportHandler(mock, 1024)

	c := multipartContext(t, "file", "sem3.pdf", []byte("%PDF-1.4"))
	h.UploadPDF(c)

	assert.Equal(t, http.StatusAccepted, c.Writer.Status())
	assert.Equal(t, "sem3.pdf", mock.pdfName)
	assert.Equal(t, []byte("%PDF-1.4"), mock.pdfData)
}

func TestImportHandlerUploadPDFTooLarge(t *testing.T) {
	mock := &importServiceMock{resp: queued()}
	c := multipartContext(t, "file", "big.pdf", bytes.Repeat([]byte("x"), 64))
	NewImportHandler(mock, 16).UploadPDF(c)
	assert.Equal(t, http.StatusBadRequest, c.Writer.Status())
	assert.Empty(t, mock.pdfName)
}

func TestImportHandlerUploadPDFMissingFile(t *testing.T) {
	c := multipartContext(t, "attachment", "sem3.pdf", []byte("x"))
	NewImportHandler(&importServiceMock{}, 0).UploadPDF(c)
	assert.Equal(t, http.StatusBadRequest, c.Writer.Status())
}

func TestImportHandlerUploadPDFConversionError(t *testing.T) {
	mock := &importServiceMock{err: appErrors.Clone(appErrors.ErrConversion, "pdftotext: bad xref")}
	c := multipartContext(t, "file", "bad.pdf", []byte("x"))
	NewImportHandler(mock, 0).UploadPDF(c)
	assert.Equal(t, http.StatusUnprocessableEntity, c.Writer.Status())
}

func TestImportHandlerGet(t *testing.T) {
	mock := &importServiceMock{job: &models.ImportJob{ID: jobID, Status: models.ImportStatusFinished, MarkCount: 12}}
	h := NewImportHandler(mock, 0)

	c, w := newGinContext(http.MethodGet, "/imports/"+jobID, nil)
	c.Params = gin.Params{{Key: "id", Value: jobID}}
	h.Get(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodGet, "/imports/nope", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	h.Get(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	other := "0b7c2c7e-9a2f-4a7e-8f4e-3b1d2c3a4e5f"
	c, w = newGinContext(http.MethodGet, "/imports/"+other, nil)
	c.Params = gin.Params{{Key: "id", Value: other}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImportHandlerSource(t *testing.T) {
	mock := &importServiceMock{job: &models.ImportJob{ID: jobID, Source: "api", Fingerprint: "ab12"}}
	h := NewImportHandler(mock, 0)

	c, w := newGinContext(http.MethodGet, "/imports/"+jobID+"/source", nil)
	c.Params = gin.Params{{Key: "id", Value: jobID}}
	h.Source(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	mock.pdfData = []byte("%PDF-1.4")
	c, w = newGinContext(http.MethodGet, "/imports/"+jobID+"/source", nil)
	c.Params = gin.Params{{Key: "id", Value: jobID}}
	h.Source(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="ab12.pdf"`)
	assert.Equal(t, "%PDF-1.4", w.Body.String())
}
