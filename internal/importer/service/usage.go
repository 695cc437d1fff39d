package service

import (
	"regexp"
	"strings"
)

// Usage markers: blocks of catalog free text scoring at least two hits
// are classified as care/usage instructions instead of description.
var usageMarkers = []string{
	"recomendacoes",
	"para limpeza",
	"para limpar",
	"nao utilizar",
	"nao usar",
	"pano",
	"espanador",
	"limpeza",
	"limpar",
	"higienizacao",
	"manutencao",
	"uso",
}

// A block starting with one of these labels is usage text regardless
// of its marker score.
var usageStrongLabels = []string{
	"recomendacoes",
	"instrucoes",
	"para limpeza",
}

var blockSplit = regexp.MustCompile(`\n{2,}`)

// SplitUsage partitions catalog free text into (description, usage)
// with a conservative heuristic: a paragraph goes to usage when it
// opens with a strong label or accumulates two marker hits; everything
// else stays descriptive.
func SplitUsage(text string) (description, usage string) {
	text = CleanText(text)
	if text == "" {
		return "", ""
	}

	var descParts, usageParts []string
	for _, block := range blockSplit.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if usageScore(block) >= 2 || startsWithStrongLabel(block) {
			usageParts = append(usageParts, block)
		} else {
			descParts = append(descParts, block)
		}
	}

	return strings.Join(descParts, "\n\n"), strings.Join(usageParts, "\n\n")
}

func usageScore(block string) int {
	lowered := NormalizeText(block)
	score := 0
	for _, marker := range usageMarkers {
		score += strings.Count(lowered, marker)
	}
	return score
}

func startsWithStrongLabel(block string) bool {
	lowered := strings.TrimSpace(strings.ToLower(StripAccents(block)))
	for _, label := range usageStrongLabels {
		if strings.HasPrefix(lowered, label) {
			return true
		}
	}
	return false
}
