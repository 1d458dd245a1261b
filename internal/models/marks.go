package models

import "fmt"

// Marks is one student's score on one paper. A nil Total means the paper was
// not evaluated, which is different from a total of zero.
type Marks struct {
	PaperID     int     `db:"paper_id" json:"paper_id"`
	Minor       *int    `db:"minor" json:"minor"`
	Major       *int    `db:"major" json:"major"`
	Total       *int    `db:"total" json:"total"`
	Grade       *string `db:"grade" json:"grade"`
	PaperCredit *int    `db:"paper_credit" json:"paper_credit"`
}

// Evaluated reports whether the paper carries a non-zero total.
func (m *Marks) Evaluated() bool {
	return m.Total != nil && *m.Total != 0
}

func (m *Marks) String() string {
	return fmt.Sprintf("[%d](%s) Minor-%s, Major-%s, Total-%s",
		m.PaperID, optInt(m.PaperCredit), optInt(m.Minor), optInt(m.Major), optInt(m.Total))
}

var gradePoints = map[string]int{
	"O":  10,
	"A+": 9,
	"A":  8,
	"B+": 7,
	"B":  6,
	"C":  5,
	"P":  4,
}

// GradePoint maps a letter grade to its point value. Unknown or absent grades are worth 0.
func GradePoint(grade *string) int {
	if grade == nil {
		return 0
	}
	return gradePoints[*grade]
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
