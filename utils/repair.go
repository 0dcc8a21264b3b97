package utils

import (
	"regexp"
	"strings"
)

// Turkish letters that were UTF-8 encoded and then read back as
// Windows-1252. Longer sequences are listed before anything that could
// match a prefix of them.
var mojibake = strings.NewReplacer(
	"Ã‡", "Ç",
	"Ã§", "ç",
	"Ã¼", "ü",
	"Ãœ", "Ü",
	"Ã¶", "ö",
	"Ã–", "Ö",
	"Ã¢", "â",
	"Ã®", "î",
	"ÄŸ", "ğ",
	"Äž", "Ğ",
	"Ä±", "ı",
	"Ä°", "İ",
	"ÅŸ", "ş",
	"Åž", "Ş",
)

var (
	// "Åž" loses its second byte when it travels through Latin-1.
	danglingS = regexp.MustCompile(`Å([. ",])`)
	// A stray "Â" is the lead byte of a U+0080..U+00BF character or sits
	// inside another mangled letter. Elsewhere it is a real letter.
	strayAfterLead = regexp.MustCompile(`([ÃÄÅ])Â+`)
	strayBeforeLow = regexp.MustCompile(`Â+([\x{80}-\x{BF}])`)
)

// RepairEncoding undoes double-encoding of Turkish letters. Applying it to
// already repaired text changes nothing.
func RepairEncoding(s string) string {
	if !NeedsRepair(s) {
		return s
	}
	s = strayAfterLead.ReplaceAllString(s, "$1")
	s = strayBeforeLow.ReplaceAllString(s, "$1")
	s = mojibake.Replace(s)
	return danglingS.ReplaceAllString(s, "Ş$1")
}

// NeedsRepair reports whether s carries any of the lead bytes of a mangled
// Turkish letter.
func NeedsRepair(s string) bool {
	return strings.ContainsAny(s, "ÃÄÅÂ")
}
