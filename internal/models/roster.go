package models

import (
	"sort"
	"strconv"

	appErrors "github.com/noah-isme/ipu-result-api/pkg/errors"
)

// Roster groups semester results into students keyed by roll number.
type Roster struct {
	students map[string]*Student
}

// NewRoster returns an empty roster.
func NewRoster() *Roster {
	return &Roster{students: make(map[string]*Student)}
}

// Add files res under its student. The first result seen for a semester wins;
// later results for the same student and semester are dropped. Results without
// a semester cannot be filed and are rejected with ErrInvalidKey.
func (r *Roster) Add(res *Result) error {
	if res == nil {
		return appErrors.Clone(appErrors.ErrValidation, "result is required")
	}
	if res.Semester == nil {
		return appErrors.Clone(appErrors.ErrInvalidKey, "result for "+res.RollNum+" has no semester")
	}
	student, ok := r.students[res.RollNum]
	if !ok {
		student = NewStudent(res.RollNum)
		r.students[res.RollNum] = student
	}
	if student.Name == nil && res.StudentName != "" {
		name := res.StudentName
		student.Name = &name
	}
	if student.BatchYear == nil && res.Batch != nil {
		batch := *res.Batch
		student.BatchYear = &batch
	}
	return student.AddResult(strconv.Itoa(*res.Semester), res)
}

// Student looks up a student by roll number.
func (r *Roster) Student(rollNum string) (*Student, bool) {
	s, ok := r.students[rollNum]
	return s, ok
}

// Students returns every student ordered by roll number.
func (r *Roster) Students() []*Student {
	out := make([]*Student, 0, len(r.students))
	for _, s := range r.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len is the number of distinct students.
func (r *Roster) Len() int {
	return len(r.students)
}
