package service

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Portuguese stop words dropped before similarity comparisons.
var stopwordsPT = map[string]struct{}{
	"de": {}, "da": {}, "do": {}, "das": {}, "dos": {},
	"para": {}, "com": {}, "em": {}, "sem": {},
	"uma": {}, "um": {}, "e": {}, "ou": {},
	"a": {}, "o": {}, "as": {}, "os": {},
}

var (
	accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	nonAlnum      = regexp.MustCompile(`[^a-z0-9\s]`)
	nonDigit      = regexp.MustCompile(`\D`)
	nonSlug       = regexp.MustCompile(`[^a-z0-9]+`)
	dupBlankLines = regexp.MustCompile(`\n{3,}`)
	dimsSep       = regexp.MustCompile(`(\d)\s*[xX]\s*(\d)`)
)

// StripAccents removes diacritics ("coleção" -> "colecao").
func StripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeText canonicalises free text for matching: lowercase,
// accents stripped, punctuation removed, stop words dropped,
// whitespace collapsed.
func NormalizeText(s string) string {
	s = strings.ToLower(StripAccents(s))
	s = nonAlnum.ReplaceAllString(s, " ")
	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if _, stop := stopwordsPT[w]; !stop {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// NormalizeSKU trims and upper-cases a SKU; empty in, empty out.
func NormalizeSKU(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeGTIN keeps only digits. "SEM GTIN" and similar placeholders
// collapse to "".
func NormalizeGTIN(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// GTINValid checks the GTIN/EAN check digit for 8/12/13/14 digit codes.
func GTINValid(gtin string) bool {
	digits := NormalizeGTIN(gtin)
	switch len(digits) {
	case 8, 12, 13, 14:
	default:
		return false
	}
	check := int(digits[len(digits)-1] - '0')
	sum := 0
	factor := 3
	for i := len(digits) - 2; i >= 0; i-- {
		sum += int(digits[i]-'0') * factor
		if factor == 3 {
			factor = 1
		} else {
			factor = 3
		}
	}
	return (10-sum%10)%10 == check
}

// Slugify builds a stable lowercase handle from a title.
func Slugify(s string) string {
	normalized := NormalizeText(s)
	if normalized == "" {
		return ""
	}
	return strings.Trim(nonSlug.ReplaceAllString(normalized, "-"), "-")
}

// CleanText removes spreadsheet carriage-return artifacts and
// redundant whitespace from free-text fields before export. Applied
// to every exported free-text value.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "_x000D_", "\n")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	s = strings.Join(lines, "\n")
	s = dupBlankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// NormalizeDimensions spaces out measure separators: "10x10x10" ->
// "10 x 10 x 10".
func NormalizeDimensions(s string) string {
	s = CleanText(s)
	prev := ""
	for s != prev {
		prev = s
		s = dimsSep.ReplaceAllString(s, "$1 x $2")
	}
	return s
}

// tokenSort orders tokens alphabetically so word order does not affect
// similarity ("noz bandeja" == "bandeja noz").
func tokenSort(s string) string {
	f := strings.Fields(s)
	if len(f) < 2 {
		return s
	}
	sort.Strings(f)
	return strings.Join(f, " ")
}
