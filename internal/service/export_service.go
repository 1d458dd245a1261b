package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/ipu-result-api/internal/models"
	appErrors "github.com/noah-isme/ipu-result-api/pkg/errors"
	"github.com/noah-isme/ipu-result-api/pkg/export"
)

type semesterResultReader interface {
	ListBySemester(ctx context.Context, semester int) ([]*models.Result, error)
}

// ExportFile is a rendered export ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService tabulates stored results.
type ExportService struct {
	results semesterResultReader
	logger  *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(results semesterResultReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{results: results, logger: logger}
}

// Semester renders every result of a semester, one row per student and one
// column per paper total.
func (s *ExportService) Semester(ctx context.Context, semester int, format string) (*ExportFile, error) {
	if semester < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be positive")
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	results, err := s.results.ListBySemester(ctx, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}
	if len(results) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no results for semester %d", semester))
	}

	data, err := export.Render(f, SemesterDataset(semester, results))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Info("semester exported", zap.Int("semester", semester), zap.String("format", string(f)), zap.Int("rows", len(results)))
	return &ExportFile{
		Filename:    fmt.Sprintf("semester-%d.%s", semester, f),
		ContentType: f.ContentType(),
		Data:        data,
	}, nil
}

// SemesterDataset lays out results as a table. Papers are the union of every
// result's papers in ascending order; a missing or absent total is blank.
func SemesterDataset(semester int, results []*models.Result) export.Dataset {
	seen := make(map[int]struct{})
	var papers []int
	for _, res := range results {
		for id := range res.Marks {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				papers = append(papers, id)
			}
		}
	}
	sort.Ints(papers)

	headers := []string{"roll_num", "name", "batch", "gpa", "credits", "drops"}
	for _, id := range papers {
		headers = append(headers, strconv.Itoa(id))
	}

	rows := make([][]string, 0, len(results))
	for _, res := range results {
		_, credits := res.CreditPoints()
		row := []string{
			res.RollNum,
			res.StudentName,
			optional(res.Batch),
			strconv.FormatFloat(res.GPA(), 'f', 2, 64),
			strconv.Itoa(credits),
			strconv.Itoa(res.NumDrops()),
		}
		for _, id := range papers {
			if m, ok := res.Marks[id]; ok {
				row = append(row, optional(m.Total))
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Semester %d results", semester),
		Headers: headers,
		Rows:    rows,
	}
}

func optional(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
