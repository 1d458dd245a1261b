package dto

import "github.com/noah-isme/ipu-result-api/internal/models"

// SemesterReport summarises one semester of a student.
type SemesterReport struct {
	Semester    int             `json:"semester"`
	StudentName string          `json:"student_name"`
	Batch       *int            `json:"batch"`
	GPA         float64         `json:"gpa"`
	Credits     int             `json:"credits"`
	Drops       []int           `json:"drops"`
	Marks       []*models.Marks `json:"marks"`
}

// StudentReport is a student with every semester on record.
type StudentReport struct {
	RollNum   string           `json:"roll_num"`
	Name      *string          `json:"name"`
	BatchYear *int             `json:"batch_year"`
	CGPA      float64          `json:"cgpa"`
	Semesters []SemesterReport `json:"semesters"`
}

// NewSemesterReport summarises res.
func NewSemesterReport(res *models.Result) SemesterReport {
	report := SemesterReport{
		StudentName: res.StudentName,
		Batch:       res.Batch,
		GPA:         res.GPA(),
		Drops:       []int{},
		Marks:       res.SortedMarks(),
	}
	if res.Semester != nil {
		report.Semester = *res.Semester
	}
	_, report.Credits = res.CreditPoints()
	for _, m := range res.Drops() {
		report.Drops = append(report.Drops, m.PaperID)
	}
	return report
}

// NewStudentReport summarises a student and every result on record.
func NewStudentReport(s *models.Student) *StudentReport {
	report := &StudentReport{
		RollNum:   s.ID,
		Name:      s.Name,
		BatchYear: s.BatchYear,
		CGPA:      s.CumulativeGPA(),
		Semesters: make([]SemesterReport, 0, len(s.ResultsBySem)),
	}
	for _, res := range s.Results() {
		report.Semesters = append(report.Semesters, NewSemesterReport(res))
	}
	return report
}

// SubjectQuery captures GET /subjects filters.
type SubjectQuery struct {
	Semester *int `form:"semester" validate:"omitempty,min=1,max=12"`
}
