package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "Applied Mathematics - I", CollapseSpaces("  Applied   Mathematics\t- I  "))
	assert.Equal(t, "", CollapseSpaces(" \t "))
}

func TestLinesKeepsBlankLines(t *testing.T) {
	lines := Lines("a\r\n\nb\n")
	assert.Equal(t, []string{"a", "", "b"}, lines)
	assert.Nil(t, Lines(""))
}

func TestGroupPadsTail(t *testing.T) {
	groups := Group([]string{"10", "20", "30"}, 2, "0")
	assert.Equal(t, [][]string{{"10", "20"}, {"30", "0"}}, groups)
	assert.Nil(t, Group(nil, 2, "0"))
	assert.Nil(t, Group([]string{"1"}, 0, "0"))
}

func TestFieldsSkipsPrefix(t *testing.T) {
	assert.Equal(t, []string{"10", "20"}, Fields("SID: 123 10 20", 2))
	assert.Nil(t, Fields("SID: 123", 2))
	assert.Nil(t, Fields("SID:", 2))
}

func TestNumberDigitsOnly(t *testing.T) {
	n := Number("0075")
	if assert.NotNil(t, n) {
		assert.Equal(t, 75, *n)
	}
	zero := Number("0")
	if assert.NotNil(t, zero) {
		assert.Equal(t, 0, *zero)
	}
	assert.Nil(t, Number(""))
	assert.Nil(t, Number("-5"))
	assert.Nil(t, Number("7A"))
	assert.Nil(t, Number(" 7"))
	assert.Nil(t, Number("99999999999999999999999"))
}
