package models

import "fmt"

const (
	// PassMarks is the lowest passing total for a paper.
	PassMarks = 40
	// MaxMarks is the highest total a paper can carry.
	MaxMarks = 100
	// DropCeiling is the highest total that still counts as a drop.
	DropCeiling = PassMarks - 1
)

// Subject is a paper offered in a semester, as listed on a scheme page.
// PaperID is the identity key; the remaining fields are informational.
type Subject struct {
	PaperID   int    `db:"paper_id" json:"paper_id"`
	PaperCode string `db:"paper_code" json:"paper_code"`
	Name      string `db:"name" json:"name"`
	Credit    *int   `db:"credit" json:"credit"`
	MinorMax  *int   `db:"minor_max" json:"minor_max"`
	MajorMax  *int   `db:"major_max" json:"major_max"`
	Type      string `db:"type" json:"type"`
	Exam      string `db:"exam" json:"exam"`
	Mode      string `db:"mode" json:"mode"`
	Kind      string `db:"kind" json:"kind"`
	Semester  *int   `db:"semester" json:"semester"`
}

// Same reports whether both subjects describe the same paper.
func (s *Subject) Same(other *Subject) bool {
	if s == nil || other == nil {
		return false
	}
	return s.PaperID == other.PaperID
}

func (s *Subject) String() string {
	return fmt.Sprintf("%d-%s[%s]", s.PaperID, s.Name, s.PaperCode)
}

// SubjectFilter scopes subject listings.
type SubjectFilter struct {
	Semester *int
}
