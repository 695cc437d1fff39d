package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSynonymsMissingFile(t *testing.T) {
	cache, err := LoadSynonyms(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestSynonymsSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.json")

	cache, err := LoadSynonyms(path)
	require.NoError(t, err)
	cache.Record("FORN-123", "09616", "bandeja-redonda-noz")
	require.NoError(t, cache.Save())

	reloaded, err := LoadSynonyms(path)
	require.NoError(t, err)
	entry, ok := reloaded.Lookup("FORN-123")
	require.True(t, ok)
	assert.Equal(t, "09616", entry.SKU)
	assert.Equal(t, "bandeja-redonda-noz", entry.Handle)
	assert.False(t, entry.ConfirmedAt.IsZero())
}

func TestSynonymsLastWriteWins(t *testing.T) {
	cache, err := LoadSynonyms(filepath.Join(t.TempDir(), "synonyms.json"))
	require.NoError(t, err)

	cache.Record("FORN-123", "09616", "")
	cache.Record("FORN-123", "10234", "")

	entry, ok := cache.Lookup("FORN-123")
	require.True(t, ok)
	assert.Equal(t, "10234", entry.SKU)
	assert.Equal(t, 1, cache.Len())
}

func TestSynonymsRecordIgnoresEmptyKeys(t *testing.T) {
	cache, err := LoadSynonyms(filepath.Join(t.TempDir(), "synonyms.json"))
	require.NoError(t, err)

	cache.Record("", "09616", "")
	cache.Record("FORN-123", "", "")

	assert.Equal(t, 0, cache.Len())
}
