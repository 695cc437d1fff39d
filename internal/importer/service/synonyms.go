package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SynonymEntry is one confirmed item-to-catalog association.
type SynonymEntry struct {
	SKU         string    `json:"sku"`
	Handle      string    `json:"handle,omitempty"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// SynonymCache persists confirmed associations between normalized item
// keys (SKU or description) and catalog records. During a run it is a
// read-only snapshot; only the manual reconciliation path writes it,
// so matching needs no locking of its own.
type SynonymCache struct {
	path string

	mu      sync.Mutex
	entries map[string]SynonymEntry
}

// LoadSynonyms reads the persisted cache. A missing file yields an
// empty cache, not an error.
func LoadSynonyms(path string) (*SynonymCache, error) {
	cache := &SynonymCache{path: path, entries: make(map[string]SynonymEntry)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cache, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read synonym cache: %w", err)
	}

	var payload struct {
		Entries map[string]SynonymEntry `json:"entries"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode synonym cache %s: %w", path, err)
	}
	if payload.Entries != nil {
		cache.entries = payload.Entries
	}
	return cache, nil
}

// Lookup returns the confirmed association for a normalized key.
func (c *SynonymCache) Lookup(key string) (SynonymEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	return entry, ok
}

// Record stores (or overwrites, last write wins) a confirmed
// association. Only the reconciliation path calls this, never a
// matching run.
func (c *SynonymCache) Record(key, sku, handle string) {
	if key == "" || sku == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = SynonymEntry{SKU: sku, Handle: handle, ConfirmedAt: time.Now().UTC()}
}

// Len reports the number of confirmed associations.
func (c *SynonymCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Save writes the cache atomically next to its final location.
func (c *SynonymCache) Save() error {
	c.mu.Lock()
	payload := struct {
		Entries map[string]SynonymEntry `json:"entries"`
	}{Entries: c.entries}
	data, err := json.MarshalIndent(payload, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode synonym cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create synonym cache dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write synonym cache: %w", err)
	}
	return os.Rename(tmp, c.path)
}
