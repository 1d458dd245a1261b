package walker

import (
	"github.com/noah-isme/ipu-result-api/internal/extract"
	"github.com/noah-isme/ipu-result-api/internal/models"
	"github.com/noah-isme/ipu-result-api/pkg/textutil"
)

// SubjectWalker steps through the subject rows of a scheme page. It is
// single-pass: once Next returns false, walk the text again for a new pass.
//
//	w := tpl.Subjects(text)
//	for w.Next() {
//		if s := w.Subject(); s != nil { ... }
//	}
type SubjectWalker struct {
	lines    lines
	semester extract.Field
	next     int
	stride   int
	current  *models.Subject
}

// Subjects starts a walk over a scheme page.
func (t Template) Subjects(text string) *SubjectWalker {
	l := lines(textutil.Lines(text))
	stride := t.SubjectStride
	if stride <= 0 {
		stride = 1
	}
	return &SubjectWalker{
		lines:    l,
		semester: extract.Semester(l.at(t.SubjectSemesterLine)),
		next:     t.SubjectStartLine,
		stride:   stride,
	}
}

// Semester is the semester read from the page header.
func (w *SubjectWalker) Semester() extract.Field {
	return w.semester
}

// Next advances to the following subject row. It returns false when the page is exhausted.
func (w *SubjectWalker) Next() bool {
	if w.next < 0 || w.next >= len(w.lines) {
		w.current = nil
		return false
	}
	w.current = extract.SubjectDescriptor(w.lines[w.next], w.semester)
	w.next += w.stride
	return true
}

// Subject is the subject on the current row, nil when the row did not parse.
func (w *SubjectWalker) Subject() *models.Subject {
	return w.current
}

// CollectSubjects walks a scheme page and returns the rows that parsed.
func (t Template) CollectSubjects(text string) []*models.Subject {
	var out []*models.Subject
	w := t.Subjects(text)
	for w.Next() {
		if s := w.Subject(); s != nil {
			out = append(out, s)
		}
	}
	return out
}
