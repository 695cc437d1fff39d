package fileio

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/1enzo1/nfe-product-import/internal/importer/model"
)

// WriteExportCSV writes rendered rows in the configured column order,
// prefixed with a UTF-8 BOM so spreadsheet tools open accents
// correctly. The header is always written, even for zero rows.
func WriteExportCSV(path string, columns []string, delimiter rune, rows []model.ExportRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if delimiter != 0 {
		w.Comma = delimiter
	}

	if err := w.Write(columns); err != nil {
		return err
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = row.Fields[col]
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// WritePendingsCSV writes the manual-review queue next to the export.
func WritePendingsCSV(path string, pendings []model.PendingRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create pendings csv: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return err
	}

	w := csv.NewWriter(f)
	header := []string{"invoice_key", "item_number", "sku", "description", "gtin", "reason", "suggestions"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, p := range pendings {
		suggestions := ""
		for i, c := range p.Candidates {
			if i > 0 {
				suggestions += "; "
			}
			suggestions += fmt.Sprintf("%s (%.2f)", c.Entry.SKU, c.Confidence)
		}
		rec := []string{
			p.Item.InvoiceKey,
			fmt.Sprintf("%d", p.Item.ItemNumber),
			p.Item.SKU,
			p.Item.Description,
			p.Item.GTIN,
			p.Reason,
			suggestions,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
