package models

import (
	"fmt"
	"math"
	"sort"

	appErrors "github.com/noah-isme/ipu-result-api/pkg/errors"
	"github.com/noah-isme/ipu-result-api/pkg/textutil"
)

// Result is one student's outcome for one semester.
type Result struct {
	RollNum     string         `db:"roll_num" json:"roll_num"`
	Semester    *int           `db:"semester" json:"semester"`
	StudentName string         `db:"student_name" json:"student_name"`
	Batch       *int           `db:"batch" json:"batch"`
	Marks       map[int]*Marks `db:"-" json:"marks"`
}

// NewResult builds an empty result for a student and semester.
func NewResult(rollNum string, semester *int, studentName string, batch *int) *Result {
	return &Result{
		RollNum:     rollNum,
		Semester:    semester,
		StudentName: studentName,
		Batch:       batch,
		Marks:       make(map[int]*Marks),
	}
}

// AddMark stores m under paperID, replacing any earlier entry for the paper.
// paperID is the digit string read from the page and must be a non-negative
// integer; anything else is rejected with ErrInvalidKey.
func (r *Result) AddMark(paperID string, m *Marks) error {
	id := textutil.Number(paperID)
	if id == nil {
		return appErrors.Clone(appErrors.ErrInvalidKey, fmt.Sprintf("paper id %q is not an integer", paperID))
	}
	if m == nil {
		return appErrors.Clone(appErrors.ErrValidation, "marks are required")
	}
	if r.Marks == nil {
		r.Marks = make(map[int]*Marks)
	}
	m.PaperID = *id
	r.Marks[*id] = m
	return nil
}

// MarksByPaper returns the marks recorded for a paper.
func (r *Result) MarksByPaper(paperID int) (*Marks, bool) {
	m, ok := r.Marks[paperID]
	return m, ok
}

// SortedMarks returns every mark ordered by paper id.
func (r *Result) SortedMarks() []*Marks {
	marks := make([]*Marks, 0, len(r.Marks))
	for _, m := range r.Marks {
		marks = append(marks, m)
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].PaperID < marks[j].PaperID })
	return marks
}

// MarksInRange returns marks whose total lies in [min, max]. Marks without a
// total are included only when includeAbsent is set and min is 0.
func (r *Result) MarksInRange(min, max int, includeAbsent bool) []*Marks {
	var out []*Marks
	for _, m := range r.SortedMarks() {
		if m.Total != nil {
			if min <= *m.Total && *m.Total <= max {
				out = append(out, m)
			}
			continue
		}
		if includeAbsent && min == 0 {
			out = append(out, m)
		}
	}
	return out
}

// Drops returns failed papers: a total of DropCeiling or less, or no total at all.
func (r *Result) Drops() []*Marks {
	return r.MarksInRange(0, DropCeiling, true)
}

// NumDrops counts failed papers.
func (r *Result) NumDrops() int {
	return len(r.Drops())
}

// CreditPoints returns the credit-weighted grade points and the credits that
// back them. Only evaluated papers within MaxMarks with a credit take part.
func (r *Result) CreditPoints() (points, credits int) {
	for _, m := range r.Marks {
		if !m.Evaluated() || *m.Total > MaxMarks {
			continue
		}
		if m.PaperCredit == nil || *m.PaperCredit <= 0 {
			continue
		}
		credits += *m.PaperCredit
		points += GradePoint(m.Grade) * *m.PaperCredit
	}
	return points, credits
}

// GPA is the credit-weighted grade point average, rounded to two decimals.
func (r *Result) GPA() float64 {
	return weightedAverage(r.CreditPoints())
}

// ApplyCredits fills missing paper credits from a subject catalogue keyed by paper id.
func (r *Result) ApplyCredits(subjects map[int]*Subject) {
	for id, m := range r.Marks {
		if m.PaperCredit != nil {
			continue
		}
		if subject, ok := subjects[id]; ok && subject.Credit != nil {
			credit := *subject.Credit
			m.PaperCredit = &credit
		}
	}
}

func (r *Result) String() string {
	return fmt.Sprintf("Result(Sem %s)[%s]%s(%s) [CGPA: %.2f]", optInt(r.Semester), r.RollNum, r.StudentName, optInt(r.Batch), r.GPA())
}

func weightedAverage(points, credits int) float64 {
	if points == 0 || credits == 0 {
		return 0
	}
	return math.RoundToEven(float64(points)/float64(credits)*100) / 100
}
