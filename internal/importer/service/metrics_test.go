package service

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1enzo1/nfe-product-import/internal/importer/model"
)

func TestMetricsRecordCoverage(t *testing.T) {
	store, err := LoadMetrics(filepath.Join(t.TempDir(), "metrics.json"))
	require.NoError(t, err)

	rows := []model.ExportRow{
		{Fields: map[string]string{"product.metafields.custom.ncm": "69120000"}},
		{Fields: map[string]string{"product.metafields.custom.ncm": ""}},
		{Fields: map[string]string{"product.metafields.custom.ncm": "  "}},
	}
	record := store.Record("run-1", rows, []string{"product.metafields.custom.ncm"})

	assert.Equal(t, 3, record.TotalRows)
	assert.Equal(t, model.FieldCount{NonEmpty: 1, Total: 3}, record.Fields["product.metafields.custom.ncm"])
}

func TestMetricsHistoryCapped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	store, err := LoadMetrics(path)
	require.NoError(t, err)

	for i := 0; i < MetricsHistoryLimit+1; i++ {
		store.Record(fmt.Sprintf("run-%d", i), nil, nil)
	}

	runs := store.Runs()
	require.Len(t, runs, MetricsHistoryLimit)
	// oldest evicted, newest kept
	assert.Equal(t, "run-1", runs[0].RunID)
	assert.Equal(t, fmt.Sprintf("run-%d", MetricsHistoryLimit), runs[len(runs)-1].RunID)
}

func TestMetricsSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	store, err := LoadMetrics(path)
	require.NoError(t, err)
	store.Record("run-1", []model.ExportRow{{Fields: map[string]string{"Handle": "x"}}}, []string{"Handle"})
	require.NoError(t, store.Save())

	reloaded, err := LoadMetrics(path)
	require.NoError(t, err)
	require.Len(t, reloaded.Runs(), 1)
	assert.Equal(t, "run-1", reloaded.Runs()[0].RunID)
	assert.Equal(t, 1, reloaded.Runs()[0].Fields["Handle"].NonEmpty)
}
