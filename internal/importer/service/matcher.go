package service

import (
	"sort"

	"github.com/1enzo1/nfe-product-import/internal/importer/model"
)

const (
	// DefaultThreshold favors precision over recall: fuzzy hits below
	// it go to manual reconciliation instead of the export.
	DefaultThreshold = 0.92
	// DefaultMargin is the score gap under which the top two fuzzy
	// candidates count as ambiguous.
	DefaultMargin = 0.03

	maxSuggestions = 5
)

// Matcher resolves line items against a catalog index and a synonym
// cache snapshot. It holds no mutable state, so one Matcher may serve
// concurrent resolutions within a run.
type Matcher struct {
	index      *Index
	synonyms   *SynonymCache
	threshold  float64
	margin     float64
	strategies []strategy
}

type strategy struct {
	name string
	fn   func(item model.LineItem) *model.MatchResult
}

// NewMatcher wires the strategy cascade in its fixed order. threshold
// and margin fall back to the defaults when zero or out of range.
func NewMatcher(index *Index, synonyms *SynonymCache, threshold, margin float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	if margin <= 0 || margin >= 1 {
		margin = DefaultMargin
	}
	m := &Matcher{index: index, synonyms: synonyms, threshold: threshold, margin: margin}
	m.strategies = []strategy{
		{model.StrategySKU, m.bySKU},
		{model.StrategyGTIN, m.byGTIN},
		{model.StrategySynonym, m.bySynonym},
		{model.StrategyFuzzy, m.byFuzzy},
	}
	return m
}

// Resolve runs the cascade; the first strategy that produces a result
// wins. Given the same catalog snapshot, cache and threshold the
// outcome is reproducible: ties break by catalog insertion order.
func (m *Matcher) Resolve(item model.LineItem) model.MatchResult {
	for _, s := range m.strategies {
		if result := s.fn(item); result != nil {
			return *result
		}
	}
	// The fuzzy strategy always terminates the cascade; reaching here
	// means the item had no description to score.
	return model.MatchResult{Item: item, Outcome: model.OutcomeUnmatched}
}

func (m *Matcher) matched(item model.LineItem, entry *model.CatalogEntry, strategyName string, confidence float64) *model.MatchResult {
	return &model.MatchResult{
		Item:       item,
		Outcome:    model.OutcomeMatched,
		Entry:      entry,
		Strategy:   strategyName,
		Confidence: confidence,
	}
}

func (m *Matcher) bySKU(item model.LineItem) *model.MatchResult {
	if item.SKU == "" {
		return nil
	}
	if entry := m.index.LookupSKU(item.SKU); entry != nil {
		return m.matched(item, entry, model.StrategySKU, 1.0)
	}
	return nil
}

func (m *Matcher) byGTIN(item model.LineItem) *model.MatchResult {
	if item.GTIN == "" {
		return nil
	}
	if entry := m.index.LookupGTIN(item.GTIN); entry != nil {
		return m.matched(item, entry, model.StrategyGTIN, 1.0)
	}
	return nil
}

// bySynonym consults confirmed reconciliations, keyed by normalized
// SKU first and normalized description second. A stale entry, whose
// catalog record no longer exists, is skipped rather than matched.
func (m *Matcher) bySynonym(item model.LineItem) *model.MatchResult {
	for _, key := range []string{NormalizeSKU(item.SKU), NormalizeText(item.Description)} {
		if key == "" {
			continue
		}
		syn, ok := m.synonyms.Lookup(key)
		if !ok {
			continue
		}
		if entry := m.index.LookupSKU(syn.SKU); entry != nil {
			return m.matched(item, entry, model.StrategySynonym, 1.0)
		}
	}
	return nil
}

type scored struct {
	ordinal int
	score   float64
}

func (m *Matcher) byFuzzy(item model.LineItem) *model.MatchResult {
	normalized := NormalizeText(item.Description)
	if normalized == "" {
		return nil
	}

	ranked := m.rank(normalized)
	if len(ranked) == 0 {
		return &model.MatchResult{Item: item, Outcome: model.OutcomeUnmatched}
	}

	best := ranked[0]
	if best.score < m.threshold {
		return &model.MatchResult{
			Item:       item,
			Outcome:    model.OutcomeUnmatched,
			Candidates: m.candidates(ranked),
		}
	}
	if len(ranked) > 1 && ranked[1].score >= best.score-m.margin {
		return &model.MatchResult{
			Item:       item,
			Outcome:    model.OutcomeAmbiguous,
			Candidates: m.candidates(ranked),
		}
	}
	return m.matched(item, &m.index.Entries[best.ordinal], model.StrategyFuzzy, best.score)
}

// rank scores the token-index candidates for a normalized description,
// highest first, ties by catalog insertion order.
func (m *Matcher) rank(normalized string) []scored {
	ordinals := m.index.Candidates(normalized)
	ranked := make([]scored, 0, len(ordinals))
	for _, ordinal := range ordinals {
		ranked = append(ranked, scored{ordinal, Similarity(normalized, m.index.MatchText(ordinal))})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].ordinal < ranked[j].ordinal
	})
	return ranked
}

func (m *Matcher) candidates(ranked []scored) []model.Candidate {
	if len(ranked) > maxSuggestions {
		ranked = ranked[:maxSuggestions]
	}
	out := make([]model.Candidate, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, model.Candidate{Entry: &m.index.Entries[r.ordinal], Confidence: r.score})
	}
	return out
}
