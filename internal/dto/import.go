package dto

import "github.com/noah-isme/ipu-result-api/internal/models"

// ImportRequest carries pdftotext -layout output, one entry per page.
type ImportRequest struct {
	Source string   `json:"source" validate:"omitempty,max=255"`
	Pages  []string `json:"pages" validate:"required,min=1,max=5000"`
}

// ImportJobResponse is returned after submitting a document.
type ImportJobResponse struct {
	models.ImportJob
	Duplicate bool `json:"duplicate"`
}
