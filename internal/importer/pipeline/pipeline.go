// Package pipeline wires configuration, file ingestion, matching and
// export into runnable import jobs.
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/1enzo1/nfe-product-import/internal/config"
	"github.com/1enzo1/nfe-product-import/internal/fileio"
	"github.com/1enzo1/nfe-product-import/internal/importer/model"
	"github.com/1enzo1/nfe-product-import/internal/importer/service"
	"github.com/1enzo1/nfe-product-import/internal/nfe"
)

// Pipeline executes import runs against the configured catalog and
// folders. A Pipeline is cheap; construct one per process.
type Pipeline struct {
	cfg config.Settings
	log zerolog.Logger
}

func New(cfg config.Settings, logger zerolog.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, log: logger}
}

// Run processes the given NF-e files (or, when files is empty, every
// XML in the input folder) against a fresh catalog snapshot. mode tags
// the persisted summary ("manual", "watch", "api").
func (p *Pipeline) Run(files []string, mode string) (model.RunSummary, error) {
	runID := uuid.NewString()
	started := time.Now()
	logger := p.log.With().Str("run_id", runID).Logger()

	index, err := p.loadCatalog(logger)
	if err != nil {
		return model.RunSummary{}, err
	}

	synonyms, err := service.LoadSynonyms(p.cfg.Paths.SynonymCacheFile)
	if err != nil {
		return model.RunSummary{}, fmt.Errorf("load synonym cache: %w", err)
	}

	if len(files) == 0 {
		files, err = p.discoverXML()
		if err != nil {
			return model.RunSummary{}, err
		}
	}
	if len(files) == 0 {
		return model.RunSummary{}, fmt.Errorf("no NF-e XML files to process")
	}

	invoices := make([]model.Invoice, 0, len(files))
	for _, path := range files {
		invoice, err := nfe.ParseFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("skipping unreadable NF-e file")
			continue
		}
		invoices = append(invoices, invoice)
	}
	if len(invoices) == 0 {
		return model.RunSummary{}, fmt.Errorf("none of %d NF-e files could be parsed", len(files))
	}

	matcher := service.NewMatcher(index, synonyms, p.cfg.Matcher.Threshold, p.cfg.Matcher.AmbiguityMargin)

	var results []model.MatchResult
	for _, invoice := range invoices {
		for _, item := range invoice.Items {
			results = append(results, matcher.Resolve(item))
		}
	}

	matched, unmatched := 0, 0
	for _, res := range results {
		if res.Outcome == model.OutcomeMatched {
			matched++
		} else {
			unmatched++
		}
	}
	logger.Info().
		Int("invoices", len(invoices)).
		Int("items", len(results)).
		Int("matched", matched).
		Int("unresolved", unmatched).
		Msg("matching finished")

	exporter := service.NewExporter(p.exportOptions())
	rows, pendings, err := exporter.Render(results)
	if err != nil {
		return model.RunSummary{}, err
	}

	stamp := started.Format("20060102_150405")
	csvPath := filepath.Join(p.cfg.Paths.OutputFolder,
		fmt.Sprintf("%s%s.csv", p.cfg.CSVOutput.FilenamePrefix, stamp))
	if err := fileio.WriteExportCSV(csvPath, p.cfg.CSVOutput.Columns, p.delimiter(), rows); err != nil {
		return model.RunSummary{}, fmt.Errorf("write export csv: %w", err)
	}

	pendingsPath := ""
	if len(pendings) > 0 {
		folder := p.cfg.Paths.PendingsFolder
		if folder == "" {
			folder = p.cfg.Paths.OutputFolder
		}
		pendingsPath = filepath.Join(folder, fmt.Sprintf("pendencias_%s.csv", stamp))
		if err := fileio.WritePendingsCSV(pendingsPath, pendings); err != nil {
			return model.RunSummary{}, fmt.Errorf("write pendings csv: %w", err)
		}
	}

	if err := p.recordMetrics(runID, rows, logger); err != nil {
		logger.Warn().Err(err).Msg("metrics not recorded")
	}

	summary := model.RunSummary{
		RunID:          runID,
		CreatedAt:      started,
		Mode:           mode,
		CSVPath:        csvPath,
		PendingsPath:   pendingsPath,
		MatchedCount:   matched,
		UnmatchedCount: unmatched,
		ExportedRows:   len(rows),
		PendingRows:    len(pendings),
	}
	for _, invoice := range invoices {
		summary.Invoices = append(summary.Invoices, model.InvoiceSummary{
			AccessKey:     invoice.AccessKey,
			InvoiceNumber: invoice.InvoiceNumber,
			SupplierName:  invoice.SupplierName,
			FilePath:      invoice.FilePath,
			Items:         len(invoice.Items),
		})
	}
	if err := p.saveSummary(summary); err != nil {
		logger.Warn().Err(err).Msg("run summary not persisted")
	}

	logger.Info().
		Str("csv", csvPath).
		Int("rows", len(rows)).
		Int("pendings", len(pendings)).
		Dur("elapsed", time.Since(started)).
		Msg("run finished")
	return summary, nil
}

// RegisterMatch confirms a manual pairing of a document key with a
// catalog SKU and persists it in the synonym cache. This is the only
// code path that writes the cache.
func (p *Pipeline) RegisterMatch(key, sku string) error {
	index, err := p.loadCatalog(p.log)
	if err != nil {
		return err
	}
	entry := index.LookupSKU(service.NormalizeSKU(sku))
	if entry == nil {
		return fmt.Errorf("sku %q not present in catalog", sku)
	}

	synonyms, err := service.LoadSynonyms(p.cfg.Paths.SynonymCacheFile)
	if err != nil {
		return fmt.Errorf("load synonym cache: %w", err)
	}
	normKey := service.NormalizeSKU(key)
	if normKey == "" {
		normKey = service.NormalizeText(key)
	}
	if normKey == "" {
		return fmt.Errorf("synonym key is empty after normalization")
	}
	synonyms.Record(normKey, entry.SKU, entry.Handle)
	if err := synonyms.Save(); err != nil {
		return fmt.Errorf("save synonym cache: %w", err)
	}
	p.log.Info().Str("key", normKey).Str("sku", entry.SKU).Msg("manual match registered")
	return nil
}

// ListRuns returns persisted summaries, newest first.
func (p *Pipeline) ListRuns() ([]model.RunSummary, error) {
	pattern := filepath.Join(p.runsFolder(), "run_*.json")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	out := make([]model.RunSummary, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var s model.RunSummary
		if err := json.Unmarshal(data, &s); err != nil {
			p.log.Warn().Str("file", path).Msg("skipping corrupt run summary")
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Metrics returns the recorded per-run coverage history.
func (p *Pipeline) Metrics() ([]model.MetricsRecord, error) {
	store, err := service.LoadMetrics(p.cfg.Paths.MetricsFile)
	if err != nil {
		return nil, err
	}
	return store.Runs(), nil
}

func (p *Pipeline) loadCatalog(logger zerolog.Logger) (*service.Index, error) {
	rows, err := fileio.ReadPathMaps(p.cfg.Paths.MasterDataFile, 1)
	if err != nil {
		return nil, fmt.Errorf("read master data: %w", err)
	}
	entries := service.CatalogFromRows(rows)
	index, err := service.BuildIndex(entries)
	if err != nil {
		return nil, err
	}
	for _, col := range index.Collisions {
		logger.Warn().Str("kind", col.Kind).Str("key", col.Key).
			Str("kept", col.KeptSKU).Str("dropped", col.DroppedSKU).
			Msg("duplicate catalog key, first occurrence wins")
	}
	logger.Info().Int("entries", len(index.Entries)).Msg("catalog snapshot loaded")
	return index, nil
}

func (p *Pipeline) discoverXML() ([]string, error) {
	dir := p.cfg.Paths.NFEInputFolder
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input folder: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (p *Pipeline) recordMetrics(runID string, rows []model.ExportRow, logger zerolog.Logger) error {
	store, err := service.LoadMetrics(p.cfg.Paths.MetricsFile)
	if err != nil {
		return err
	}
	record := store.Record(runID, rows, p.cfg.CriticalMetafields)
	for col, count := range record.Fields {
		if count.Total > 0 && count.NonEmpty*2 < count.Total {
			logger.Warn().Str("column", col).
				Int("non_empty", count.NonEmpty).Int("total", count.Total).
				Msg("critical metafield coverage below half")
		}
	}
	return store.Save()
}

func (p *Pipeline) runsFolder() string {
	return filepath.Join(p.cfg.Paths.OutputFolder, "runs")
}

func (p *Pipeline) saveSummary(s model.RunSummary) error {
	folder := p.runsFolder()
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(folder, fmt.Sprintf("run_%s.json", s.RunID))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (p *Pipeline) delimiter() rune {
	if p.cfg.CSVOutput.Delimiter == "" {
		return ','
	}
	return []rune(p.cfg.CSVOutput.Delimiter)[0]
}

func (p *Pipeline) exportOptions() service.ExportOptions {
	return service.ExportOptions{
		Columns:            p.cfg.CSVOutput.Columns,
		MetafieldNamespace: p.cfg.Metafields.Namespace,
		MetafieldKeys:      p.cfg.Metafields.Keys,
		PricingStrategy:    p.cfg.Pricing.Strategy,
		MarkupFactor:       p.cfg.Pricing.MarkupFactor,
		TagDropShortCodes:  p.cfg.Tags.DropShortCodes,
		TagMinAlphaLen:     p.cfg.Tags.MinAlphaLen,
		Status:             p.cfg.Export.Status,
		DefaultVendor:      p.cfg.Export.DefaultVendor,
	}
}
