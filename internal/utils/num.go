package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var rxKeepNums = regexp.MustCompile(`[^\d.\-]`)

// ParseDecimalBR parses Brazilian spreadsheet decimals: "1.234,56",
// "0,84", "1 234,5" (including NBSP/thin-space group separators).
// Plain dot decimals ("1.25") also parse correctly.
func ParseDecimalBR(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	repl := strings.NewReplacer(" ", "", " ", "", " ", "", "\t", "")
	s = repl.Replace(s)

	if strings.Contains(s, ",") {
		// Comma is the decimal separator; dots are grouping.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else if strings.Count(s, ".") > 1 {
		// Multiple dots can only be thousand groups.
		s = strings.ReplaceAll(s, ".", "")
	}

	s = rxKeepNums.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
