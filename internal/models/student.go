package models

import (
	"fmt"
	"sort"

	appErrors "github.com/noah-isme/ipu-result-api/pkg/errors"
	"github.com/noah-isme/ipu-result-api/pkg/textutil"
)

// Student is a learner followed across semesters.
type Student struct {
	ID              string          `db:"roll_num" json:"roll_num"`
	Name            *string         `db:"name" json:"name"`
	BatchYear       *int            `db:"batch_year" json:"batch_year"`
	ProgrammeCode   *string         `db:"programme_code" json:"programme_code"`
	ProgrammeName   *string         `db:"programme_name" json:"programme_name"`
	InstitutionCode *string         `db:"institution_code" json:"institution_code"`
	InstitutionName *string         `db:"institution_name" json:"institution_name"`
	ResultsBySem    map[int]*Result `db:"-" json:"results"`
}

// NewStudent builds a student with no results.
func NewStudent(rollNum string) *Student {
	return &Student{ID: rollNum, ResultsBySem: make(map[int]*Result)}
}

// AddResult records res for semester unless one is already present, in which
// case the earlier result is kept untouched.
func (s *Student) AddResult(semester string, res *Result) error {
	sem := textutil.Number(semester)
	if sem != nil {
		if _, exists := s.ResultsBySem[*sem]; exists {
			return nil
		}
	}
	return s.UpdateResult(semester, res)
}

// UpdateResult stores res for semester, replacing any earlier result.
// semester must be an integer; anything else is rejected with ErrInvalidKey.
func (s *Student) UpdateResult(semester string, res *Result) error {
	sem := textutil.Number(semester)
	if sem == nil {
		return appErrors.Clone(appErrors.ErrInvalidKey, fmt.Sprintf("semester %q is not an integer", semester))
	}
	if s.ResultsBySem == nil {
		s.ResultsBySem = make(map[int]*Result)
	}
	s.ResultsBySem[*sem] = res
	return nil
}

// ResultBySemester returns the result recorded for a semester.
func (s *Student) ResultBySemester(semester int) (*Result, bool) {
	res, ok := s.ResultsBySem[semester]
	return res, ok
}

// Semesters lists the semesters with a result, ascending.
func (s *Student) Semesters() []int {
	sems := make([]int, 0, len(s.ResultsBySem))
	for sem := range s.ResultsBySem {
		sems = append(sems, sem)
	}
	sort.Ints(sems)
	return sems
}

// Results returns every result ordered by semester.
func (s *Student) Results() []*Result {
	out := make([]*Result, 0, len(s.ResultsBySem))
	for _, sem := range s.Semesters() {
		out = append(out, s.ResultsBySem[sem])
	}
	return out
}

// CumulativeGPA weights every semester's grade points by credit.
func (s *Student) CumulativeGPA() float64 {
	var points, credits int
	for _, res := range s.ResultsBySem {
		p, c := res.CreditPoints()
		points += p
		credits += c
	}
	return weightedAverage(points, credits)
}

func (s *Student) String() string {
	name := ""
	if s.Name != nil {
		name = *s.Name
	}
	return fmt.Sprintf("%s - %s [%s]", name, s.ID, optInt(s.BatchYear))
}
