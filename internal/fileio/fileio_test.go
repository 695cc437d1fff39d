package fileio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1enzo1/nfe-product-import/internal/importer/model"
)

func TestReadAnyMapsCSVCommaDelimited(t *testing.T) {
	csv := "Código,Descrição,Peso\n09616,Bandeja Redonda,\"0,84\"\n"
	rows, err := ReadAnyMaps(strings.NewReader(csv), "master.csv", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "09616", rows[0]["Código"])
	assert.Equal(t, "0,84", rows[0]["Peso"])
}

func TestReadAnyMapsCSVSemicolonDelimited(t *testing.T) {
	csv := "Código;Descrição;Peso\n09616;Bandeja Redonda;0,84\n\n"
	rows, err := ReadAnyMaps(strings.NewReader(csv), "master.csv", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bandeja Redonda", rows[0]["Descrição"])
	assert.Equal(t, "0,84", rows[0]["Peso"])
}

func TestReadAnyMapsCSVWithBOM(t *testing.T) {
	csv := "\xEF\xBB\xBFCódigo,Descrição\n123,Vaso\n"
	rows, err := ReadAnyMaps(strings.NewReader(csv), "master.csv", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "123", rows[0]["Código"])
}

func TestReadAnyMapsUnsupportedExtension(t *testing.T) {
	_, err := ReadAnyMaps(strings.NewReader(""), "master.pdf", 1)
	assert.Error(t, err)
}

func TestReadAnyMapsBlankHeaderGetsColumnName(t *testing.T) {
	csv := "Código,,Peso\n1,x,2\n"
	rows, err := ReadAnyMaps(strings.NewReader(csv), "m.csv", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "x", rows[0]["Column 2"])
}

func TestWriteExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "export.csv")
	columns := []string{"Handle", "Title", "Variant SKU"}
	rows := []model.ExportRow{
		{Handle: "vaso", Fields: map[string]string{"Handle": "vaso", "Title": "Vaso Cerâmica", "Variant SKU": "111"}},
	}

	require.NoError(t, WriteExportCSV(path, columns, ',', rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\xEF\xBB\xBF"), "missing UTF-8 BOM")

	body := strings.TrimPrefix(string(data), "\xEF\xBB\xBF")
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Handle,Title,Variant SKU", lines[0])
	assert.Equal(t, "vaso,Vaso Cerâmica,111", lines[1])
}

func TestWriteExportCSVHeaderOnlyForZeroRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, WriteExportCSV(path, []string{"Handle", "Title"}, ',', nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	body := strings.TrimPrefix(string(data), "\xEF\xBB\xBF")
	assert.Equal(t, "Handle,Title", strings.TrimSpace(body))
}

func TestWritePendingsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pendings.csv")
	pendings := []model.PendingRecord{
		{
			Item:   model.LineItem{InvoiceKey: "key-1", ItemNumber: 3, SKU: "999", Description: "Item desconhecido"},
			Reason: model.OutcomeUnmatched,
			Candidates: []model.Candidate{
				{Entry: &model.CatalogEntry{SKU: "09616"}, Confidence: 0.81},
			},
		},
	}
	require.NoError(t, WritePendingsCSV(path, pendings))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Item desconhecido")
	assert.Contains(t, content, "09616 (0.81)")
	assert.Contains(t, content, model.OutcomeUnmatched)
}
