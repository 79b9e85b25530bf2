// Package textnorm compares OCR tokens the way reviewers read them:
// NFC-composed, case-folded and trimmed.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns the comparison form of s.
func Normalize(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	// cases.Caser keeps state, so a fresh one is built per call.
	return cases.Fold().String(s)
}

// Equal reports whether a and b are the same token after normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Display trims s and composes it to NFC without changing case.
func Display(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Similarity returns 1 minus the Levenshtein distance between the
// normalized forms of a and b, divided by the longer rune length. Two empty
// strings are identical.
func Similarity(a, b string) float64 {
	ra := []rune(Normalize(a))
	rb := []rune(Normalize(b))
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Tokens splits s on whitespace.
func Tokens(s string) []string {
	return strings.Fields(s)
}
