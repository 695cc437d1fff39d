package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/1enzo1/nfe-product-import/internal/importer/model"
)

// Pricing strategies.
const (
	PricingMarkup    = "markup_fixo"
	PricingPriceList = "tabela"
	PricingCostOnly  = "somente_custo"
)

// ExportOptions is everything the rule engine needs to render rows.
type ExportOptions struct {
	Columns            []string
	MetafieldNamespace string
	MetafieldKeys      map[string]string // logical name -> output key
	PricingStrategy    string
	MarkupFactor       float64
	TagDropShortCodes  bool
	TagMinAlphaLen     int
	Status             string
	DefaultVendor      string
}

// Exporter turns match results into export rows and pendings. Rendering
// is deterministic: rows keep document order and are never re-sorted
// by confidence.
type Exporter struct {
	opts  ExportOptions
	rules []metafieldRule
}

// metafieldRule selects a metafield value by fixed priority: document
// field first when non-empty, then catalog attributes in alias order,
// then the default. Evaluated uniformly for every row, so adding a
// field is a table entry, not new code.
type metafieldRule struct {
	logical   string
	doc       func(model.LineItem) string
	entry     func(*model.CatalogEntry) string
	aliases   []string
	def       string
	transform func(string) string
}

func NewExporter(opts ExportOptions) *Exporter {
	if opts.PricingStrategy == "" {
		opts.PricingStrategy = PricingMarkup
	}
	if opts.Status == "" {
		opts.Status = "draft"
	}
	return &Exporter{opts: opts, rules: metafieldRules()}
}

func metafieldRules() []metafieldRule {
	return []metafieldRule{
		{logical: "unidade",
			doc:   func(it model.LineItem) string { return it.Unit },
			entry: func(e *model.CatalogEntry) string { return e.Unit }},
		{logical: "catalogo", aliases: []string{"catalogo"}},
		{logical: "dimensoes_do_produto",
			aliases:   []string{"medidas_s_emb", "dimensoes_do_produto", "medidas"},
			transform: NormalizeDimensions},
		{logical: "composicao",
			entry: func(e *model.CatalogEntry) string { return e.Composition }},
		{logical: "capacidade",
			aliases: []string{"capacidade__ml_ou_peso_suportado", "capacidade"}},
		// modo_de_uso is filled from the usage split, not a rule.
		{logical: "icms", aliases: []string{"icms"}, def: "0"},
		{logical: "ncm",
			doc:   func(it model.LineItem) string { return it.NCM },
			entry: func(e *model.CatalogEntry) string { return e.NCM }},
		{logical: "pis", aliases: []string{"pis"}, def: "0"},
		// ipi is part of the fixed output schema: the column is emitted
		// for every row even when the value stays at its default.
		{logical: "ipi", aliases: []string{"ipi"}, def: "0"},
		{logical: "cofins", aliases: []string{"cofins"}, def: "0"},
		{logical: "componente_de_kit", aliases: []string{"componente_de_kit"}, def: "FALSE"},
		{logical: "resistencia_a_agua", aliases: []string{"resistencia_a_agua"}, def: "Não se aplica"},
		{logical: "cfop",
			doc:     func(it model.LineItem) string { return it.CFOP },
			aliases: []string{"cfop"}},
		{logical: "cest",
			doc:   func(it model.LineItem) string { return it.CEST },
			entry: func(e *model.CatalogEntry) string { return e.CEST }},
	}
}

// Render produces one ExportRow per matched result, in input order,
// and a PendingRecord for every unmatched or ambiguous one. Per-item
// problems never abort the run; only a structurally broken handle
// group does.
func (x *Exporter) Render(results []model.MatchResult) ([]model.ExportRow, []model.PendingRecord, error) {
	rows := make([]model.ExportRow, 0, len(results))
	pendings := make([]model.PendingRecord, 0)

	// (handle, base option value) -> occurrences, for variant
	// uniqueness. Counted in document order, so rendering per handle
	// group must stay sequential.
	optionSeen := make(map[string]int)
	handleAttrs := make(map[string][3]string)

	for _, res := range results {
		switch res.Outcome {
		case model.OutcomeMatched:
			row, err := x.renderRow(res, optionSeen, handleAttrs)
			if err != nil {
				return nil, nil, err
			}
			rows = append(rows, row)
		case model.OutcomeAmbiguous:
			pendings = append(pendings, model.PendingRecord{
				Item: res.Item, Reason: model.OutcomeAmbiguous, Candidates: res.Candidates,
			})
		default:
			pendings = append(pendings, model.PendingRecord{
				Item: res.Item, Reason: model.OutcomeUnmatched, Candidates: res.Candidates,
			})
		}
	}

	return rows, pendings, nil
}

func (x *Exporter) renderRow(res model.MatchResult, optionSeen map[string]int, handleAttrs map[string][3]string) (model.ExportRow, error) {
	entry := res.Entry
	item := res.Item

	handle := entry.Handle
	if handle == "" {
		handle = Slugify(entry.Title)
	}
	if handle == "" {
		handle = Slugify(entry.SKU)
	}

	// Two distinct catalog entries collapsing onto one handle with
	// conflicting product attributes cannot be represented; abort.
	attrs := [3]string{entry.Title, entry.Vendor, entry.ProductType}
	if prev, ok := handleAttrs[handle]; ok {
		if prev != attrs {
			return model.ExportRow{}, fmt.Errorf("catalog handle collision: handle %q claimed with conflicting attributes (%q vs %q)", handle, prev[0], attrs[0])
		}
	} else {
		handleAttrs[handle] = attrs
	}

	fields := make(map[string]string, len(x.opts.Columns))
	for _, col := range x.opts.Columns {
		fields[col] = ""
	}

	vendor := entry.Vendor
	if vendor == "" {
		vendor = x.opts.DefaultVendor
	}

	body, usage := x.bodyAndUsage(entry, item)

	fields["Handle"] = handle
	fields["Title"] = CleanText(entry.Title)
	fields["Body (HTML)"] = body
	fields["Vendor"] = vendor
	fields["Tags"] = strings.Join(SanitizeTags(entry.Tags, entry.ProductType, x.opts.TagDropShortCodes, x.opts.TagMinAlphaLen), ",")
	fields["Published"] = "TRUE"

	fields["Option1 Name"] = "Title"
	fields["Option1 Value"] = nextOptionValue(optionSeen, handle, "Default Title")

	fields["Variant SKU"] = entry.SKU
	fields["Variant Price"] = x.price(entry, item)
	fields["Variant Inventory Qty"] = formatQuantity(item.Quantity)
	fields["Variant Requires Shipping"] = "TRUE"
	fields["Variant Taxable"] = "TRUE"
	fields["Variant Inventory Tracker"] = "shopify"
	fields["Variant Inventory Policy"] = "deny"
	fields["Variant Fulfillment Service"] = "manual"
	fields["Cost per item"] = decimal.NewFromFloat(item.UnitPrice).StringFixed(2)

	if gtin := NormalizeGTIN(entry.GTIN); gtin != "" && GTINValid(gtin) {
		fields["Variant Barcode"] = gtin
	}

	weight, unit, grams := weightFields(entry.Weight)
	fields["Variant Weight"] = weight
	fields["Variant Weight Unit"] = unit
	fields["Variant Grams"] = grams

	fields["Type"] = entry.ProductType
	collection := entry.Collection
	if collection == "" {
		collection = entry.ProductType
	}
	fields["Collection"] = collection

	status := x.opts.Status
	if flag, ok := entry.Attrs["create_as_draft"]; ok && isTruthy(flag) {
		status = "draft"
	}
	fields["Status"] = status

	x.fillMetafields(fields, entry, item, usage)

	return model.ExportRow{Handle: handle, Fields: fields}, nil
}

// bodyAndUsage assembles the long description and the usage notes.
// Usage blocks and the composition value never leak into the body;
// document-level notes (infAdProd) extend the usage text.
func (x *Exporter) bodyAndUsage(entry *model.CatalogEntry, item model.LineItem) (string, string) {
	var source []string
	for _, key := range []string{"textos", "features"} {
		if v := entry.Attrs[key]; v != "" {
			source = append(source, v)
		}
	}

	desc, usage := SplitUsage(strings.Join(source, "\n\n"))

	if entry.Composition != "" && desc != "" {
		kept := make([]string, 0)
		for _, line := range strings.Split(desc, "\n") {
			if strings.Contains(strings.ToLower(line), strings.ToLower(entry.Composition)) {
				continue
			}
			kept = append(kept, line)
		}
		desc = CleanText(strings.Join(kept, "\n"))
	}

	if notes := CleanText(item.UsageNotes); notes != "" {
		if usage == "" {
			usage = notes
		} else {
			usage = usage + "\n\n" + notes
		}
	}
	return desc, usage
}

func (x *Exporter) fillMetafields(fields map[string]string, entry *model.CatalogEntry, item model.LineItem, usage string) {
	for _, rule := range x.rules {
		key, mapped := x.opts.MetafieldKeys[rule.logical]
		if !mapped {
			continue
		}
		value := ""
		if rule.doc != nil {
			value = strings.TrimSpace(rule.doc(item))
		}
		if value == "" && rule.entry != nil {
			value = strings.TrimSpace(rule.entry(entry))
		}
		if value == "" {
			for _, alias := range rule.aliases {
				if v := strings.TrimSpace(entry.Attrs[alias]); v != "" {
					value = v
					break
				}
			}
		}
		if value == "" {
			value = rule.def
		}
		if rule.transform != nil && value != "" {
			value = rule.transform(value)
		} else {
			value = CleanText(value)
		}
		fields[x.metafieldColumn(key)] = value
	}

	if key, ok := x.opts.MetafieldKeys["modo_de_uso"]; ok {
		fields[x.metafieldColumn(key)] = usage
	}
}

func (x *Exporter) metafieldColumn(key string) string {
	return fmt.Sprintf("product.metafields.%s.%s", x.opts.MetafieldNamespace, key)
}

func (x *Exporter) price(entry *model.CatalogEntry, item model.LineItem) string {
	switch x.opts.PricingStrategy {
	case PricingCostOnly:
		return ""
	case PricingPriceList:
		for _, alias := range []string{"preco", "preco_venda", "preco_sugerido", "price"} {
			if v := strings.TrimSpace(entry.Attrs[alias]); v != "" {
				return v
			}
		}
		return ""
	default:
		cost := decimal.NewFromFloat(item.UnitPrice)
		factor := decimal.NewFromFloat(x.opts.MarkupFactor)
		return cost.Mul(factor).Round(2).StringFixed(2)
	}
}

// nextOptionValue keeps (handle, option value) pairs unique: the first
// occurrence stays unlabeled, later ones get an incrementing suffix
// starting at -2.
func nextOptionValue(seen map[string]int, handle, base string) string {
	key := handle + "\x00" + base
	seen[key]++
	if n := seen[key]; n > 1 {
		return fmt.Sprintf("%s-%d", base, n)
	}
	return base
}

// weightFields applies the weight/unit rule. Below one kilogram the
// value exports in grams; at or above it stays in kilograms with a dot
// decimal separator, and the grams column carries the scaled value for
// consumers that require it. Absent or non-positive weights leave all
// three columns blank.
func weightFields(w *float64) (weight, unit, grams string) {
	if w == nil || *w <= 0 {
		return "", "", ""
	}
	g := strconv.Itoa(int(math.Round(*w * 1000)))
	if *w < 1 {
		return g, "g", g
	}
	return strconv.FormatFloat(*w, 'f', -1, 64), "kg", g
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "sim", "on":
		return true
	}
	return false
}
