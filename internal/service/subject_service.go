package service

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/ipu-result-api/internal/dto"
	"github.com/noah-isme/ipu-result-api/internal/models"
	appErrors "github.com/noah-isme/ipu-result-api/pkg/errors"
)

type subjectLister interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error)
}

// SubjectService lists papers read from scheme pages.
type SubjectService struct {
	repo      subjectLister
	validator *validator.Validate
}

// NewSubjectService constructs the subject service.
func NewSubjectService(repo subjectLister, validate *validator.Validate) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	return &SubjectService{repo: repo, validator: validate}
}

// List returns subjects, optionally limited to one semester.
func (s *SubjectService) List(ctx context.Context, query dto.SubjectQuery) ([]models.Subject, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject filter")
	}
	subjects, err := s.repo.List(ctx, models.SubjectFilter{Semester: query.Semester})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}
