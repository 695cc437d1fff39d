package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/1enzo1/nfe-product-import/internal/importer/model"
)

// MetricsHistoryLimit caps the rolling run history; the oldest record
// is evicted first.
const MetricsHistoryLimit = 50

// MetricsStore keeps the rolling per-run coverage history on disk.
// Each Record call appends: callers invoke it exactly once per run.
type MetricsStore struct {
	path string
	runs []model.MetricsRecord
}

// LoadMetrics reads the persisted history; a missing file yields an
// empty store.
func LoadMetrics(path string) (*MetricsStore, error) {
	store := &MetricsStore{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metrics history: %w", err)
	}

	var payload struct {
		Runs []model.MetricsRecord `json:"runs"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode metrics history %s: %w", path, err)
	}
	store.runs = payload.Runs
	return store, nil
}

// Record counts non-empty occurrences of every critical column across
// the exported rows, appends the record and evicts beyond the history
// limit.
func (s *MetricsStore) Record(runID string, rows []model.ExportRow, criticalColumns []string) model.MetricsRecord {
	record := model.MetricsRecord{
		RunID:     runID,
		CreatedAt: time.Now().UTC(),
		TotalRows: len(rows),
		Fields:    make(map[string]model.FieldCount, len(criticalColumns)),
	}
	for _, column := range criticalColumns {
		count := model.FieldCount{Total: len(rows)}
		for _, row := range rows {
			if strings.TrimSpace(row.Fields[column]) != "" {
				count.NonEmpty++
			}
		}
		record.Fields[column] = count
	}

	s.runs = append(s.runs, record)
	if excess := len(s.runs) - MetricsHistoryLimit; excess > 0 {
		s.runs = append([]model.MetricsRecord(nil), s.runs[excess:]...)
	}
	return record
}

// Runs returns the history, oldest first.
func (s *MetricsStore) Runs() []model.MetricsRecord { return s.runs }

// Save persists the history atomically.
func (s *MetricsStore) Save() error {
	payload := struct {
		Runs []model.MetricsRecord `json:"runs"`
	}{Runs: s.runs}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metrics history: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write metrics history: %w", err)
	}
	return os.Rename(tmp, s.path)
}
