package service

import (
	"strings"
	"unicode"
)

// SanitizeTags dedupes tags, drops placeholder markers and, when
// enabled, short alphanumeric codes that look like batch identifiers
// ("1T24", "A-01"). The product type, when present, leads the list.
func SanitizeTags(tags []string, productType string, dropShortCodes bool, minAlphaLen int) []string {
	if minAlphaLen <= 0 {
		minAlphaLen = 3
	}

	out := make([]string, 0, len(tags)+1)
	seen := make(map[string]struct{})

	add := func(tag string) {
		tag = strings.Join(strings.Fields(tag), " ")
		if tag == "" || tag == "-" || strings.EqualFold(tag, "nan") {
			return
		}
		key := strings.ToLower(StripAccents(tag))
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}

	if productType = strings.TrimSpace(productType); productType != "" {
		add(productType)
	}
	for _, tag := range tags {
		if dropShortCodes && looksLikeBatchCode(tag, minAlphaLen) {
			continue
		}
		add(tag)
	}
	return out
}

// looksLikeBatchCode reports tags that carry digits but too few
// letters to be a word, e.g. season codes and shelf locations.
func looksLikeBatchCode(tag string, minAlphaLen int) bool {
	letters, digits := 0, 0
	for _, r := range tag {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	return digits > 0 && letters < minAlphaLen
}
