package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/ipu-result-api/pkg/errors"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestResultAddMarkRejectsNonIntegerKey(t *testing.T) {
	res := NewResult("04011502717", intPtr(3), "ASHA", intPtr(2017))

	for _, key := range []string{"ES101", "12a45", "", "-9"} {
		err := res.AddMark(key, &Marks{Total: intPtr(50)})
		require.Error(t, err, key)
		assert.ErrorIs(t, err, appErrors.ErrInvalidKey, key)
	}
	assert.Empty(t, res.Marks)

	require.NoError(t, res.AddMark("99101", &Marks{Total: intPtr(50)}))
	m, ok := res.MarksByPaper(99101)
	require.True(t, ok)
	assert.Equal(t, 99101, m.PaperID)
}

func TestResultDrops(t *testing.T) {
	res := NewResult("04011502717", intPtr(3), "ASHA", nil)
	require.NoError(t, res.AddMark("10001", &Marks{Total: intPtr(39)}))
	require.NoError(t, res.AddMark("10002", &Marks{Total: intPtr(40)}))
	require.NoError(t, res.AddMark("10003", &Marks{}))
	require.NoError(t, res.AddMark("10004", &Marks{Total: intPtr(0)}))

	drops := res.Drops()
	ids := make([]int, 0, len(drops))
	for _, m := range drops {
		ids = append(ids, m.PaperID)
	}
	assert.Equal(t, []int{10001, 10003, 10004}, ids)
	assert.Equal(t, 3, res.NumDrops())
}

func TestResultMarksInRangeAbsentNeedsZeroMinimum(t *testing.T) {
	res := NewResult("04011502717", intPtr(3), "ASHA", nil)
	require.NoError(t, res.AddMark("10001", &Marks{}))
	require.NoError(t, res.AddMark("10002", &Marks{Total: intPtr(20)}))

	assert.Len(t, res.MarksInRange(0, 39, true), 2)
	assert.Len(t, res.MarksInRange(10, 39, true), 1)
	assert.Len(t, res.MarksInRange(0, 39, false), 1)
}

func TestResultGPA(t *testing.T) {
	res := NewResult("04011502717", intPtr(3), "ASHA", nil)
	require.NoError(t, res.AddMark("10001", &Marks{Total: intPtr(75), Grade: strPtr("A"), PaperCredit: intPtr(4)}))
	require.NoError(t, res.AddMark("10002", &Marks{Total: intPtr(60), Grade: strPtr("B"), PaperCredit: intPtr(4)}))

	assert.Equal(t, 7.0, res.GPA())
}

func TestResultGPASkipsUnweightedMarks(t *testing.T) {
	res := NewResult("04011502717", intPtr(3), "ASHA", nil)
	require.NoError(t, res.AddMark("10001", &Marks{Total: intPtr(91), Grade: strPtr("O"), PaperCredit: intPtr(3)}))
	require.NoError(t, res.AddMark("10002", &Marks{Total: intPtr(80), Grade: strPtr("A+")}))
	require.NoError(t, res.AddMark("10003", &Marks{Grade: strPtr("A"), PaperCredit: intPtr(4)}))
	require.NoError(t, res.AddMark("10004", &Marks{Total: intPtr(55), Grade: strPtr("C"), PaperCredit: intPtr(2)}))

	// (10*3 + 5*2) / 5
	assert.Equal(t, 8.0, res.GPA())
}

func TestResultGPARoundsToTwoDecimals(t *testing.T) {
	res := NewResult("04011502717", intPtr(3), "ASHA", nil)
	require.NoError(t, res.AddMark("10001", &Marks{Total: intPtr(91), Grade: strPtr("O"), PaperCredit: intPtr(1)}))
	require.NoError(t, res.AddMark("10002", &Marks{Total: intPtr(70), Grade: strPtr("B+"), PaperCredit: intPtr(2)}))

	// 24 / 3 = 8.0; add an unknown grade to pull it to 24/6.
	require.NoError(t, res.AddMark("10003", &Marks{Total: intPtr(45), Grade: strPtr("F"), PaperCredit: intPtr(3)}))
	assert.Equal(t, 4.0, res.GPA())

	require.NoError(t, res.AddMark("10004", &Marks{Total: intPtr(45), Grade: strPtr("P"), PaperCredit: intPtr(1)}))
	// 28 / 7
	assert.Equal(t, 4.0, res.GPA())

	require.NoError(t, res.AddMark("10005", &Marks{Total: intPtr(80), Grade: strPtr("A+"), PaperCredit: intPtr(2)}))
	// 46 / 9 = 5.111...
	assert.Equal(t, 5.11, res.GPA())
}

func TestResultGPAEmpty(t *testing.T) {
	res := NewResult("04011502717", intPtr(3), "ASHA", nil)
	assert.Equal(t, 0.0, res.GPA())
}

func TestResultApplyCredits(t *testing.T) {
	res := NewResult("04011502717", intPtr(3), "ASHA", nil)
	require.NoError(t, res.AddMark("10001", &Marks{Total: intPtr(75), Grade: strPtr("A")}))
	require.NoError(t, res.AddMark("10002", &Marks{Total: intPtr(75), Grade: strPtr("A"), PaperCredit: intPtr(2)}))

	res.ApplyCredits(map[int]*Subject{
		10001: {PaperID: 10001, Credit: intPtr(4)},
		10002: {PaperID: 10002, Credit: intPtr(4)},
	})

	assert.Equal(t, 4, *res.Marks[10001].PaperCredit)
	assert.Equal(t, 2, *res.Marks[10002].PaperCredit)
}

func TestMarksStringShowsAbsentValues(t *testing.T) {
	m := &Marks{PaperID: 99101, Minor: intPtr(20), Total: intPtr(0)}
	assert.Equal(t, "[99101](-) Minor-20, Major--, Total-0", m.String())

	res := NewResult("04011502717", nil, "ASHA", nil)
	assert.Equal(t, "Result(Sem -)[04011502717]ASHA(-) [CGPA: 0.00]", res.String())
}
