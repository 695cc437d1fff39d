package service

import (
	"sort"
	"strings"

	"github.com/1enzo1/nfe-product-import/internal/importer/model"
	"github.com/1enzo1/nfe-product-import/internal/utils"
)

// canonicalFields maps catalog fields onto their sanitised spreadsheet
// header spellings, in priority order. Master sheets arrive with
// Portuguese headers in several historical variants; when a sheet
// carries more than one spelling of the same field, the earlier alias
// wins, so the snapshot is identical on every run.
var canonicalFields = []struct {
	field   string
	aliases []string
}{
	{"sku", []string{"codigo", "cod", "sku"}},
	{"title", []string{"descricao", "descricao_do_produto", "name"}},
	{"barcode", []string{"ean13", "ean", "codigo_barras"}},
	{"vendor", []string{"marca", "fabricante"}},
	{"product_type", []string{"categoria", "subcategoria"}},
	{"collection", []string{"colecao"}},
	{"unit", []string{"unid", "unid_", "unidade"}},
	{"ncm", []string{"ncm"}},
	{"cest", []string{"cest"}},
	{"weight", []string{"peso_prod_c_emb_kg", "peso"}},
	{"tags", []string{"tags"}},
	{"composition", []string{"composicao"}},
}

// sanitizeColumn canonicalises a spreadsheet header: accents stripped,
// lowercase, runs of non-alphanumerics collapsed to "_".
func sanitizeColumn(name string) string {
	name = strings.ToLower(StripAccents(strings.TrimSpace(name)))
	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// cellValue trims a cell and blanks out spreadsheet NaN placeholders;
// the collection fallback rule downstream depends on missing values
// being the empty string.
func cellValue(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return s
}

// rowCells sanitises a raw row's headers. Headers are visited in
// sorted order so two spellings collapsing onto one sanitised key
// resolve the same way on every run; the first non-empty value wins.
func rowCells(raw map[string]string) map[string]string {
	headers := make([]string, 0, len(raw))
	for header := range raw {
		headers = append(headers, header)
	}
	sort.Strings(headers)

	cells := make(map[string]string, len(raw))
	for _, header := range headers {
		key := sanitizeColumn(header)
		if key == "" {
			continue
		}
		if cells[key] == "" {
			cells[key] = cellValue(raw[header])
		}
	}
	return cells
}

// CatalogFromRows builds the catalog snapshot from spreadsheet rows
// keyed by header. Rows without a SKU are skipped; negative or
// unparseable weights are treated as absent. Residual columns land in
// Attrs for the metafield rules.
func CatalogFromRows(rows []map[string]string) []model.CatalogEntry {
	entries := make([]model.CatalogEntry, 0, len(rows))

	for _, raw := range rows {
		cells := rowCells(raw)

		data := make(map[string]string, len(canonicalFields))
		for _, f := range canonicalFields {
			for _, alias := range f.aliases {
				if v := cells[alias]; v != "" && data[f.field] == "" {
					data[f.field] = v
				}
				delete(cells, alias)
			}
		}
		for key, v := range cells {
			if v == "" {
				delete(cells, key)
			}
		}

		sku := NormalizeSKU(data["sku"])
		if sku == "" {
			continue
		}

		title := data["title"]
		if title == "" {
			title = sku
		}

		entry := model.CatalogEntry{
			SKU:         sku,
			Handle:      Slugify(title),
			Title:       title,
			GTIN:        NormalizeGTIN(data["barcode"]),
			Vendor:      data["vendor"],
			ProductType: data["product_type"],
			Collection:  data["collection"],
			Unit:        data["unit"],
			NCM:         data["ncm"],
			CEST:        data["cest"],
			Composition: data["composition"],
		}
		if entry.Handle == "" {
			entry.Handle = Slugify(sku)
		}

		if w, ok := utils.ParseDecimalBR(data["weight"]); ok && w > 0 {
			entry.Weight = &w
		}

		if raw := data["tags"]; raw != "" {
			for _, tag := range strings.Split(raw, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					entry.Tags = append(entry.Tags, tag)
				}
			}
		}

		entry.Attrs = cells
		entries = append(entries, entry)
	}

	return entries
}
