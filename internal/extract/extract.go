// Package extract pulls single fields out of lines of pdftotext -layout output
// for the scheme-of-examinations and result-tabulation pages.
//
// Nothing here returns an error. A field that does not match is reported as
// absent (an invalid Field, a nil pointer or a nil subject) and callers carry
// that absence forward.
package extract

import (
	"regexp"
	"strings"

	"github.com/noah-isme/ipu-result-api/internal/models"
	"github.com/noah-isme/ipu-result-api/pkg/textutil"
)

const (
	markPrefixTokens  = 2 // "SID:" and the SID value
	totalPrefixTokens = 1 // serial number
	defaultMark       = "0"
)

var (
	reDate        = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
	reSemester    = regexp.MustCompile(`Sem\D*:\s*0*(\d+)`)
	reBatch       = regexp.MustCompile(`Batch\D*:\s*0*(\d+)`)
	rePaperRef    = regexp.MustCompile(`^(\d{5})\(([^)]*)\)?`)
	reParenthesis = regexp.MustCompile(`\(([^)]+)\)`)
	reSubjectPage = regexp.MustCompile(`\(.*SCHEME.+OF.+EXAMINATIONS*\)`)
	reResultPage  = regexp.MustCompile(`RESULT.+TABULATION.+SHEET`)
	reSubject     = regexp.MustCompile(`(\d{0,2})\s*` + // index
		`(\d{5})\s*` + // paper id
		`(\w{5})\s*` + // paper code
		`(\D+)` + // name
		`(\d)\s*` + // credit
		`(\w+)\s*(\w+)\s*(\w+)\s*(\w+)\s*` + // type, exam, mode, kind
		`(?:(\d*)(?:--)?)\s*` + // minor max
		`(\d+)`) // major max
)

// Field is an extracted string that may be absent.
type Field struct {
	Value string
	Valid bool
}

// Present builds a valid Field.
func Present(v string) Field {
	return Field{Value: v, Valid: true}
}

// Number runs the field through the shared digits-only normaliser.
func (f Field) Number() *int {
	if !f.Valid {
		return nil
	}
	return textutil.Number(f.Value)
}

// Ptr returns the value as a pointer, nil when absent.
func (f Field) Ptr() *string {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// PaperRef is a paper id token from a result row, e.g. "99101(4)".
type PaperRef struct {
	ID     Field
	Credit Field
}

// MarkPair is the (minor, major) score pair for one paper.
type MarkPair struct {
	Minor string
	Major string
}

// TotalGrade is the total score and letter grade for one paper.
type TotalGrade struct {
	Total string
	Grade Field
}

// Date returns the first dd/mm/yyyy substring of line.
func Date(line string) Field {
	if m := reDate.FindString(line); m != "" {
		return Present(m)
	}
	return Field{}
}

// Semester returns the number after "Sem...:" with leading zeros stripped.
func Semester(line string) Field {
	return colonNumber(reSemester, line)
}

// Batch returns the number after "Batch...:" with leading zeros stripped.
func Batch(line string) Field {
	return colonNumber(reBatch, line)
}

func colonNumber(re *regexp.Regexp, line string) Field {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return Field{}
	}
	return Present(m[1])
}

// PaperIDs yields one entry per whitespace token of line. The entry is valid
// when the token opens with exactly five digits followed by "(".
func PaperIDs(line string) []Field {
	refs := PaperRefs(line)
	ids := make([]Field, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ID
	}
	return ids
}

// PaperRefs is PaperIDs with the parenthesised credit kept alongside the id.
func PaperRefs(line string) []PaperRef {
	tokens := strings.Fields(line)
	refs := make([]PaperRef, len(tokens))
	for i, token := range tokens {
		m := rePaperRef.FindStringSubmatch(token)
		if m == nil {
			continue
		}
		refs[i].ID = Present(m[1])
		if textutil.Number(m[2]) != nil {
			refs[i].Credit = Present(m[2])
		}
	}
	return refs
}

// MarkPairs drops the SID prefix of a marks line and pairs the remaining
// tokens as (minor, major). An odd tail is padded with "0".
func MarkPairs(line string) []MarkPair {
	groups := textutil.Group(textutil.Fields(line, markPrefixTokens), 2, defaultMark)
	pairs := make([]MarkPair, len(groups))
	for i, g := range groups {
		pairs[i] = MarkPair{Minor: g[0], Major: g[1]}
	}
	return pairs
}

// TotalGrades drops the serial number of a totals line and splits each token
// into its total and parenthesised grade, e.g. "75(A)".
func TotalGrades(line string) []TotalGrade {
	tokens := textutil.Fields(line, totalPrefixTokens)
	out := make([]TotalGrade, len(tokens))
	for i, token := range tokens {
		loc := reParenthesis.FindStringSubmatchIndex(token)
		if loc == nil {
			out[i] = TotalGrade{Total: token}
			continue
		}
		out[i] = TotalGrade{
			Total: token[:loc[0]],
			Grade: Present(token[loc[2]:loc[3]]),
		}
	}
	return out
}

// SubjectDescriptor parses one subject row of a scheme page. It returns nil
// when the row does not have the expected shape.
func SubjectDescriptor(line string, semester Field) *models.Subject {
	m := reSubject.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	id := textutil.Number(m[2])
	if id == nil {
		return nil
	}
	return &models.Subject{
		PaperID:   *id,
		PaperCode: m[3],
		Name:      textutil.CollapseSpaces(m[4]),
		Credit:    textutil.Number(m[5]),
		Type:      m[6],
		Exam:      m[7],
		Mode:      m[8],
		Kind:      m[9],
		MinorMax:  textutil.Number(m[10]),
		MajorMax:  textutil.Number(m[11]),
		Semester:  semester.Number(),
	}
}

// IsSubjectPage reports whether text carries the scheme-of-examinations banner.
func IsSubjectPage(text string) bool {
	return reSubjectPage.MatchString(text)
}

// IsResultPage reports whether text carries the result tabulation sheet banner.
func IsResultPage(text string) bool {
	return reResultPage.MatchString(text)
}

// PageKind classifies a page of text.
type PageKind string

const (
	PageSubjects PageKind = "subjects"
	PageResults  PageKind = "results"
	PageUnknown  PageKind = "unknown"
)

// Classify picks the page kind. A page carrying both banners is treated as a scheme page.
func Classify(text string) PageKind {
	switch {
	case IsSubjectPage(text):
		return PageSubjects
	case IsResultPage(text):
		return PageResults
	default:
		return PageUnknown
	}
}
