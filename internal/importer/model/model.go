package model

import "time"

// LineItem is one product line extracted from an NF-e document.
// Immutable once parsed; weight always comes from the catalog side.
type LineItem struct {
	InvoiceKey  string  `json:"invoice_key"`
	ItemNumber  int     `json:"item_number"`
	SKU         string  `json:"cProd"`
	Description string  `json:"description"`
	GTIN        string  `json:"barcode,omitempty"`
	NCM         string  `json:"ncm,omitempty"`
	CEST        string  `json:"cest,omitempty"`
	CFOP        string  `json:"cfop,omitempty"`
	Unit        string  `json:"unit,omitempty"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_value"`
	TotalValue  float64 `json:"total_value"`
	UsageNotes  string  `json:"infAdProd,omitempty"`
}

// Invoice groups the line items of one NF-e file.
type Invoice struct {
	AccessKey     string     `json:"access_key"`
	InvoiceNumber string     `json:"invoice_number,omitempty"`
	IssueDate     *time.Time `json:"issue_date,omitempty"`
	SupplierName  string     `json:"supplier_name,omitempty"`
	SupplierCNPJ  string     `json:"supplier_cnpj,omitempty"`
	FilePath      string     `json:"file_path"`
	Items         []LineItem `json:"items"`
}

// CatalogEntry is one master-data record. Rebuilt fresh every run from
// the spreadsheet snapshot; never mutated in place. Weight is nil when
// the sheet has no usable value (negative values are treated as absent
// upstream). Attrs carries every residual spreadsheet column keyed by
// its sanitised header, and is the source for metafields, dimensions,
// capacity, tax codes and collection.
type CatalogEntry struct {
	Handle      string
	SKU         string
	GTIN        string
	Title       string
	Vendor      string
	ProductType string
	Collection  string // empty string when missing, never a NaN placeholder
	Unit        string
	NCM         string
	CEST        string
	Weight      *float64 // kg
	Tags        []string
	Composition string
	Attrs       map[string]string
}

// Match strategies, in cascade order.
const (
	StrategySKU     = "sku_exact"
	StrategyGTIN    = "gtin_exact"
	StrategySynonym = "synonym_cache"
	StrategyFuzzy   = "fuzzy_text"
)

// Match outcomes.
const (
	OutcomeMatched   = "matched"
	OutcomeAmbiguous = "ambiguous"
	OutcomeUnmatched = "unmatched"
)

// Candidate is a ranked fuzzy suggestion for an unresolved item.
type Candidate struct {
	Entry      *CatalogEntry
	Confidence float64
}

// MatchResult tags a LineItem with its resolution. Created once per
// item per run; a correction produces a new result via reconciliation,
// never an edit.
type MatchResult struct {
	Item       LineItem
	Outcome    string
	Entry      *CatalogEntry // set when Outcome == matched
	Strategy   string
	Confidence float64
	Candidates []Candidate // ranked, set when Outcome == ambiguous (and for pendings)
}

// PendingRecord is an item queued for manual reconciliation.
type PendingRecord struct {
	Item       LineItem
	Reason     string
	Candidates []Candidate
}

// ExportRow holds the rendered output columns for one variant line,
// keyed by output column name. Values reads in the configured order.
type ExportRow struct {
	Handle string
	Fields map[string]string
}

// MetricsRecord aggregates per-run coverage of the critical
// metafields.
type MetricsRecord struct {
	RunID     string                `json:"run_id"`
	CreatedAt time.Time             `json:"created_at"`
	TotalRows int                   `json:"total_rows"`
	Fields    map[string]FieldCount `json:"fields"`
}

// FieldCount is the non-empty coverage of one tracked column.
type FieldCount struct {
	NonEmpty int `json:"non_empty"`
	Total    int `json:"total"`
}

// RunSummary is the persisted record of one pipeline execution.
type RunSummary struct {
	RunID         string    `json:"run_id"`
	CreatedAt     time.Time `json:"created_at"`
	Mode          string    `json:"mode"`
	User          string    `json:"user,omitempty"`
	CSVPath       string    `json:"csv_path"`
	PendingsPath  string    `json:"pendings_path,omitempty"`
	MatchedCount  int       `json:"matched_count"`
	UnmatchedCount int      `json:"unmatched_count"`
	ExportedRows  int       `json:"exported_rows"`
	PendingRows   int       `json:"pending_rows"`
	Invoices      []InvoiceSummary `json:"invoices"`
}

// InvoiceSummary is the per-invoice slice of a RunSummary.
type InvoiceSummary struct {
	AccessKey     string `json:"access_key"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	SupplierName  string `json:"supplier_name,omitempty"`
	FilePath      string `json:"file_path"`
	Items         int    `json:"items"`
}
