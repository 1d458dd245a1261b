// Package walker walks whole pages of pdftotext -layout output at the fixed
// line offsets of the university templates and assembles subjects and results
// from the fields found there.
package walker

import (
	"fmt"

	"github.com/noah-isme/ipu-result-api/pkg/config"
	appErrors "github.com/noah-isme/ipu-result-api/pkg/errors"
)

// Template holds the line offsets of one page layout. All offsets are 0-indexed.
type Template struct {
	// Scheme pages.
	SubjectSemesterLine int
	SubjectStartLine    int
	SubjectStride       int

	// Result pages. The block offsets are relative to the roll number line.
	ResultHeaderLine int
	NameOffset       int
	MarksOffset      int
	TotalsOffset     int
}

// DefaultTemplate is the layout of the current scheme and result tabulation documents.
func DefaultTemplate() Template {
	return Template{
		SubjectSemesterLine: 10,
		SubjectStartLine:    16,
		SubjectStride:       2,
		ResultHeaderLine:    17,
		NameOffset:          1,
		MarksOffset:         2,
		TotalsOffset:        4,
	}
}

// FromConfig builds a template from configuration.
func FromConfig(cfg config.TemplateConfig) Template {
	return Template{
		SubjectSemesterLine: cfg.SubjectSemesterLine,
		SubjectStartLine:    cfg.SubjectStartLine,
		SubjectStride:       cfg.SubjectStride,
		ResultHeaderLine:    cfg.ResultHeaderLine,
		NameOffset:          cfg.NameOffset,
		MarksOffset:         cfg.MarksOffset,
		TotalsOffset:        cfg.TotalsOffset,
	}
}

// Validate checks the offsets are usable.
func (t Template) Validate() error {
	if t.SubjectStride <= 0 {
		return appErrors.Clone(appErrors.ErrTemplate, fmt.Sprintf("subject stride must be positive, got %d", t.SubjectStride))
	}
	for name, v := range map[string]int{
		"subject semester line": t.SubjectSemesterLine,
		"subject start line":    t.SubjectStartLine,
		"result header line":    t.ResultHeaderLine,
	} {
		if v < 0 {
			return appErrors.Clone(appErrors.ErrTemplate, fmt.Sprintf("%s must not be negative, got %d", name, v))
		}
	}
	for name, v := range map[string]int{
		"name offset":   t.NameOffset,
		"marks offset":  t.MarksOffset,
		"totals offset": t.TotalsOffset,
	} {
		if v <= 0 {
			return appErrors.Clone(appErrors.ErrTemplate, fmt.Sprintf("%s must be positive, got %d", name, v))
		}
	}
	return nil
}

// blockSpan is the highest offset a result block reaches past its roll number line.
func (t Template) blockSpan() int {
	span := t.NameOffset
	if t.MarksOffset > span {
		span = t.MarksOffset
	}
	if t.TotalsOffset > span {
		span = t.TotalsOffset
	}
	return span
}

type lines []string

// at returns line i, or "" when i is out of range.
func (l lines) at(i int) string {
	if i < 0 || i >= len(l) {
		return ""
	}
	return l[i]
}
