package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"accents stripped", "Coleção Verão", "colecao verao"},
		{"stop words dropped", "Bandeja de Madeira para Servir", "bandeja madeira servir"},
		{"punctuation removed", "Vaso (Decorativo), 30cm!", "vaso decorativo 30cm"},
		{"whitespace collapsed", "  Kit   Potes  ", "kit potes"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestNormalizeSKU(t *testing.T) {
	assert.Equal(t, "AB-123", NormalizeSKU("  ab-123 "))
	assert.Equal(t, "", NormalizeSKU("   "))
}

func TestNormalizeGTIN(t *testing.T) {
	assert.Equal(t, "7891000100103", NormalizeGTIN(" 7891000100103 "))
	assert.Equal(t, "", NormalizeGTIN("SEM GTIN"))
}

func TestGTINValid(t *testing.T) {
	tests := []struct {
		gtin string
		want bool
	}{
		{"7891000100103", true},  // EAN-13
		{"96385074", true},       // EAN-8
		{"7891000100104", false}, // wrong check digit
		{"123", false},           // wrong length
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GTINValid(tt.gtin), tt.gtin)
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "bandeja-redonda-noz", Slugify("Bandeja Redonda Noz"))
	assert.Equal(t, "vaso-ceramica", Slugify("Vaso de Cerâmica"))
	assert.Equal(t, "", Slugify("   "))
}

func TestCleanText(t *testing.T) {
	in := "Primeira linha_x000D_Segunda   linha\r\n\n\n\nTerceira"
	want := "Primeira linha\nSegunda linha\n\nTerceira"
	assert.Equal(t, want, CleanText(in))
}

func TestNormalizeDimensions(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10x10x10", "10 x 10 x 10"},
		{"25 X 12x8 cm", "25 x 12 x 8 cm"},
		{"sem medidas", "sem medidas"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDimensions(tt.in))
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("bandeja redonda noz", "bandeja redonda noz"), 1e-9)
	// token order must not matter
	assert.InDelta(t, 1.0, Similarity("noz redonda bandeja", "bandeja redonda noz"), 1e-9)
	assert.Less(t, Similarity("bandeja redonda noz", "vaso ceramica branco"), 0.5)
}
