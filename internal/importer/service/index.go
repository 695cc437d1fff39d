package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/1enzo1/nfe-product-import/internal/importer/model"
)

// ErrEmptyCatalog aborts a run that received no catalog rows.
var ErrEmptyCatalog = errors.New("catalog snapshot empty")

// Collision reports a duplicate exact key found while indexing. The
// first occurrence wins; later duplicates are dropped and surfaced to
// the caller as data-quality warnings.
type Collision struct {
	Kind       string // "sku" | "gtin"
	Key        string
	KeptSKU    string
	DroppedSKU string
}

func (c Collision) String() string {
	return fmt.Sprintf("duplicate %s %q: kept %s, dropped %s", c.Kind, c.Key, c.KeptSKU, c.DroppedSKU)
}

// Index holds the per-run lookup structures over the catalog snapshot.
// Entries keep catalog insertion order; every lookup that can tie is
// resolved by that order so resolution is reproducible.
type Index struct {
	Entries    []model.CatalogEntry
	Collisions []Collision

	bySKU  map[string]int
	byGTIN map[string]int
	tokens map[string][]int // normalized token -> entry ordinals, ascending
	norm   []string         // normalized match text per entry
}

// BuildIndex indexes a catalog snapshot. Fails hard when the snapshot
// is empty; duplicate SKU/GTIN keys follow the first-wins policy.
func BuildIndex(entries []model.CatalogEntry) (*Index, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyCatalog
	}

	idx := &Index{
		Entries: entries,
		bySKU:   make(map[string]int, len(entries)),
		byGTIN:  make(map[string]int),
		tokens:  make(map[string][]int),
		norm:    make([]string, len(entries)),
	}

	for i := range entries {
		e := &entries[i]

		if sku := NormalizeSKU(e.SKU); sku != "" {
			if prev, ok := idx.bySKU[sku]; ok {
				idx.Collisions = append(idx.Collisions, Collision{
					Kind: "sku", Key: sku,
					KeptSKU: entries[prev].SKU, DroppedSKU: e.SKU,
				})
			} else {
				idx.bySKU[sku] = i
			}
		}

		if gtin := NormalizeGTIN(e.GTIN); gtin != "" {
			if prev, ok := idx.byGTIN[gtin]; ok {
				idx.Collisions = append(idx.Collisions, Collision{
					Kind: "gtin", Key: gtin,
					KeptSKU: entries[prev].SKU, DroppedSKU: e.SKU,
				})
			} else {
				idx.byGTIN[gtin] = i
			}
		}

		text := NormalizeText(e.Title)
		if e.Collection != "" {
			text += " " + NormalizeText(e.Collection)
		}
		if e.ProductType != "" {
			text += " " + NormalizeText(e.ProductType)
		}
		text = strings.TrimSpace(text)
		idx.norm[i] = text

		seen := make(map[string]struct{})
		for _, tok := range strings.Fields(text) {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			idx.tokens[tok] = append(idx.tokens[tok], i)
		}
	}

	return idx, nil
}

// LookupSKU returns the entry for an exact normalized SKU.
func (idx *Index) LookupSKU(sku string) *model.CatalogEntry {
	if i, ok := idx.bySKU[NormalizeSKU(sku)]; ok {
		return &idx.Entries[i]
	}
	return nil
}

// LookupGTIN returns the entry for an exact normalized GTIN.
func (idx *Index) LookupGTIN(gtin string) *model.CatalogEntry {
	normalized := NormalizeGTIN(gtin)
	if normalized == "" {
		return nil
	}
	if i, ok := idx.byGTIN[normalized]; ok {
		return &idx.Entries[i]
	}
	return nil
}

// MatchText returns the precomputed normalized text for entry ordinal i.
func (idx *Index) MatchText(i int) string { return idx.norm[i] }

// Candidates returns the ordinals of entries sharing at least one
// token with the normalized description, in catalog insertion order.
// Used to seed fuzzy matching without scanning the full corpus.
func (idx *Index) Candidates(normalized string) []int {
	seen := make(map[int]struct{})
	for _, tok := range strings.Fields(normalized) {
		for _, ordinal := range idx.tokens[tok] {
			seen[ordinal] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for ordinal := range seen {
		out = append(out, ordinal)
	}
	sort.Ints(out)
	return out
}
