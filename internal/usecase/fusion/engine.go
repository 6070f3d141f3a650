// Package fusion merges per-modality hit lists into one ranked result set.
// Raw backend scores are never compared across modalities; each (modality,
// signal) group is min-max normalized first, then combined with configured
// weights. Fusion is pure and deterministic: the same hits produce the same
// ranking regardless of arrival order.
package fusion

import (
	"sort"

	"github.com/kailas-cloud/omnisearch/internal/domain/search/modality"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/result"
)

// Config tunes the fusion weights.
type Config struct {
	// Weights assigns each modality's share of the combined score.
	Weights map[modality.Modality]float64
	// SemanticWeight blends semantic against lexical inside one modality.
	SemanticWeight float64
}

// DefaultConfig returns the stock fusion weighting.
func DefaultConfig() Config {
	return Config{
		Weights: map[modality.Modality]float64{
			modality.Text:          0.4,
			modality.Attribute:     0.3,
			modality.Specification: 0.2,
			modality.Image:         0.1,
		},
		SemanticWeight: 0.5,
	}
}

// WeightsFromConfig builds a weight map from flat per-modality settings.
// Zero entries fall back to the defaults in New.
func WeightsFromConfig(text, attribute, specification, image float64) map[modality.Modality]float64 {
	if text <= 0 && attribute <= 0 && specification <= 0 && image <= 0 {
		return nil
	}
	return map[modality.Modality]float64{
		modality.Text:          text,
		modality.Attribute:     attribute,
		modality.Specification: specification,
		modality.Image:         image,
	}
}

// Engine fuses modality results.
type Engine struct {
	cfg Config
}

// New creates a fusion engine. Missing weights fall back to the defaults.
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if len(cfg.Weights) == 0 {
		cfg.Weights = def.Weights
	}
	if cfg.SemanticWeight <= 0 || cfg.SemanticWeight > 1 {
		cfg.SemanticWeight = def.SemanticWeight
	}
	return &Engine{cfg: cfg}
}

// signalKey groups hits that share a comparable score scale.
type signalKey struct {
	mod modality.Modality
	sig result.Signal
}

// itemState accumulates one item's evidence across groups.
type itemState struct {
	itemID string
	// normalized score per (modality, signal)
	scores map[signalKey]float64
	// fields and source from the strongest raw hit
	fields     map[string]string
	bestRaw    float64
	hasFields  bool
	source     result.Source
	bestSrcRaw float64
	hasSource  bool
}

// Fuse merges hits into a ranked page and reports the total number of
// distinct items before pagination. Items found by the same modality on
// several shards keep their best raw score before normalization. The window
// [offset, offset+limit) is cut after ranking, so ranks stay global.
func (e *Engine) Fuse(hits []result.ModalityResult, offset, limit int) ([]result.FusedResult, int) {
	if len(hits) == 0 {
		return nil, 0
	}

	// Dedupe per (item, modality, signal) keeping the max raw score, and
	// track the raw extremes of each group for normalization.
	type groupExtremes struct{ min, max float64 }
	items := make(map[string]*itemState)
	raw := make(map[signalKey]map[string]float64)
	extremes := make(map[signalKey]*groupExtremes)

	for i := range hits {
		h := &hits[i]
		key := signalKey{mod: h.Modality(), sig: h.Signal()}

		byItem := raw[key]
		if byItem == nil {
			byItem = make(map[string]float64)
			raw[key] = byItem
		}
		if prev, ok := byItem[h.ItemID()]; !ok || h.RawScore() > prev {
			byItem[h.ItemID()] = h.RawScore()
		}

		st := items[h.ItemID()]
		if st == nil {
			st = &itemState{itemID: h.ItemID(), scores: make(map[signalKey]float64)}
			items[h.ItemID()] = st
		}
		if len(h.Fields()) > 0 && (!st.hasFields || h.RawScore() > st.bestRaw) {
			st.fields = h.Fields()
			st.bestRaw = h.RawScore()
			st.hasFields = true
		}
		if !st.hasSource || h.RawScore() > st.bestSrcRaw {
			st.source = h.Source()
			st.bestSrcRaw = h.RawScore()
			st.hasSource = true
		}
	}

	for key, byItem := range raw {
		ext := &groupExtremes{min: 0, max: 0}
		first := true
		for _, s := range byItem {
			if first {
				ext.min, ext.max = s, s
				first = false
				continue
			}
			if s < ext.min {
				ext.min = s
			}
			if s > ext.max {
				ext.max = s
			}
		}
		extremes[key] = ext
	}

	// Min-max normalize each group. A group with a single distinct score
	// maps to 1.0: the backend matched, so the evidence counts in full.
	for key, byItem := range raw {
		ext := extremes[key]
		span := ext.max - ext.min
		for itemID, s := range byItem {
			norm := 1.0
			if span > 0 {
				norm = (s - ext.min) / span
			}
			items[itemID].scores[key] = norm
		}
	}

	// Renormalize modality weights over the modalities that responded.
	responding := make(map[modality.Modality]bool)
	for key := range raw {
		responding[key.mod] = true
	}
	var weightSum float64
	for m := range responding {
		weightSum += e.cfg.Weights[m]
	}

	fused := make([]result.FusedResult, 0, len(items))
	for _, st := range items {
		var combined float64
		normalized := make(map[modality.Modality]float64)
		var contributing []modality.Modality

		for _, m := range modality.All() {
			score, ok := e.modalityScore(st, m)
			if !ok {
				continue
			}
			contributing = append(contributing, m)
			normalized[m] = score
			if weightSum > 0 {
				combined += e.cfg.Weights[m] / weightSum * score
			}
		}
		sort.Slice(contributing, func(i, j int) bool { return contributing[i] < contributing[j] })

		fused = append(fused, result.NewFused(st.itemID, combined, 0, contributing, normalized, st.source, st.fields))
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].CombinedScore() != fused[j].CombinedScore() {
			return fused[i].CombinedScore() > fused[j].CombinedScore()
		}
		return fused[i].ItemID() < fused[j].ItemID()
	})

	ranked := make([]result.FusedResult, len(fused))
	for i := range fused {
		f := &fused[i]
		ranked[i] = result.NewFused(
			f.ItemID(), f.CombinedScore(), i+1, f.Contributing(), f.NormalizedScores(), f.Source(), f.Fields(),
		)
	}

	if offset >= len(ranked) {
		return nil, len(ranked)
	}
	end := offset + limit
	if end > len(ranked) {
		end = len(ranked)
	}
	return ranked[offset:end], len(ranked)
}

// modalityScore blends an item's signals inside one modality. With both
// signals present the semantic sub-weight applies; a single signal is used
// as-is.
func (e *Engine) modalityScore(st *itemState, m modality.Modality) (float64, bool) {
	lex, hasLex := st.scores[signalKey{mod: m, sig: result.Lexical}]
	sem, hasSem := st.scores[signalKey{mod: m, sig: result.Semantic}]

	switch {
	case hasLex && hasSem:
		return e.cfg.SemanticWeight*sem + (1-e.cfg.SemanticWeight)*lex, true
	case hasSem:
		return sem, true
	case hasLex:
		return lex, true
	default:
		return 0, false
	}
}
