// Package textutil holds the small string helpers shared by the extraction code.
package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

var reWhitespace = regexp.MustCompile(`\s+`)

// CollapseSpaces trims s and folds every internal whitespace run into one space.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

// Lines splits text on line breaks without dropping empty lines, so line
// offsets stay stable. A trailing newline does not produce an extra line.
func Lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Group chunks items into groups of size n. The last group is padded with
// fill when len(items) is not a multiple of n.
func Group(items []string, n int, fill string) [][]string {
	if n <= 0 || len(items) == 0 {
		return nil
	}
	groups := make([][]string, 0, (len(items)+n-1)/n)
	for start := 0; start < len(items); start += n {
		group := make([]string, n)
		for i := range group {
			if start+i < len(items) {
				group[i] = items[start+i]
			} else {
				group[i] = fill
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// Fields is strings.Fields with a leading prefix of skip tokens removed.
func Fields(line string, skip int) []string {
	tokens := strings.Fields(line)
	if skip >= len(tokens) {
		return nil
	}
	if skip < 0 {
		skip = 0
	}
	return tokens[skip:]
}

// Number converts a digits-only string into an int. Anything else, including
// the empty string, signs and embedded spaces, is absent.
func Number(s string) *int {
	if s == "" {
		return nil
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
