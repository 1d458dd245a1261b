package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ipu-result-api/internal/dto"
	"github.com/noah-isme/ipu-result-api/internal/models"
	"github.com/noah-isme/ipu-result-api/pkg/cache"
	appErrors "github.com/noah-isme/ipu-result-api/pkg/errors"
)

const rollNumRule = "required,numeric,len=11"

type studentReader interface {
	FindByRoll(ctx context.Context, rollNum string) (*models.Student, error)
}

type studentResultReader interface {
	ListByStudent(ctx context.Context, rollNum string) ([]*models.Result, error)
}

// StudentService answers student lookups from stored results.
type StudentService struct {
	students  studentReader
	results   studentResultReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(students studentReader, results studentResultReader, cacheSvc *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, results: results, cache: cacheSvc, validator: validate, logger: logger}
}

// Get returns the student with every semester on record and whether the
// report came from cache.
func (s *StudentService) Get(ctx context.Context, rollNum string) (*dto.StudentReport, bool, error) {
	rollNum = strings.TrimSpace(rollNum)
	if err := s.validator.Var(rollNum, rollNumRule); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "roll number must be 11 digits")
	}

	key := cache.Key("student", rollNum)
	var cached dto.StudentReport
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	student, err := s.students.FindByRoll(ctx, rollNum)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	results, err := s.results.ListByStudent(ctx, rollNum)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}
	for _, res := range results {
		if res.Semester == nil {
			continue
		}
		if err := student.AddResult(fmt.Sprint(*res.Semester), res); err != nil {
			s.logger.Warn("skipping stored result", zap.String("roll_num", rollNum), zap.Error(err))
		}
	}

	report := dto.NewStudentReport(student)
	_ = s.cache.Set(ctx, key, report, 0)
	return report, false, nil
}

// Result returns one semester of a student.
func (s *StudentService) Result(ctx context.Context, rollNum string, semester int) (*dto.SemesterReport, error) {
	report, _, err := s.Get(ctx, rollNum)
	if err != nil {
		return nil, err
	}
	for i := range report.Semesters {
		if report.Semesters[i].Semester == semester {
			return &report.Semesters[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no result for semester %d", semester))
}
