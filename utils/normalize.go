// Package utils holds small text and URL helpers shared by the parsers.
package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize collapses every run of whitespace (NBSP included) into a single
// space, trims the ends and composes the result to NFC.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// NormalizeLines normalizes every line and drops the empty ones.
func NormalizeLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = Normalize(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Lower lowercases with Turkish casing rules, so "I" becomes "ı" and "İ"
// becomes "i".
func Lower(s string) string {
	return cases.Lower(language.Turkish).String(s)
}

// Upper uppercases with Turkish casing rules.
func Upper(s string) string {
	return cases.Upper(language.Turkish).String(s)
}

// FoldKey reduces a company name to a comparison key.
func FoldKey(s string) string {
	return Slugify(Normalize(s))
}

// ContainsFold reports whether substr occurs in s under Turkish lowercasing.
func ContainsFold(s, substr string) bool {
	return strings.Contains(Lower(s), Lower(substr))
}
