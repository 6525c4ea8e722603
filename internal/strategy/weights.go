package strategy

import (
	"fmt"
	"math"

	"SignalSentinel/internal/model"
)

// Weights maps each confirmation tag to its point value.
type Weights map[model.Tag]float64

// DefaultWeights is the empirically chosen point table.
func DefaultWeights() Weights {
	return Weights{
		model.TagSwingBullishBOS:           30,
		model.TagSwingBearishBOS:           30,
		model.TagSwingBullishCHoCH:         25,
		model.TagSwingBearishCHoCH:         25,
		model.TagInternalBullishBOS:        20,
		model.TagInternalBearishBOS:        20,
		model.TagInternalBullishCHoCH:      18,
		model.TagInternalBearishCHoCH:      18,
		model.TagSwingOrderBlockRespect:    22,
		model.TagInternalOrderBlockRespect: 18,
		model.TagBullishFairValueGap:       15,
		model.TagBearishFairValueGap:       15,
		model.TagEqualHighsBreak:           12,
		model.TagEqualLowsBreak:            12,
		model.TagPremiumZoneEntry:          10,
		model.TagDiscountZoneEntry:         10,
		model.TagEquilibriumZone:           8,
		model.TagMultiTimeframeAlignment:   8,
		model.TagVolumeConfirmation:        6,
		model.TagStrongWeakHighLow:         5,
		model.TagATRVolatilityFilter:       4,
	}
}

// Merge returns a copy of w with overrides applied.
func (w Weights) Merge(overrides map[model.Tag]float64) Weights {
	out := make(Weights, len(w)+len(overrides))
	for k, v := range w {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Validate rejects negative or non-finite weights.
func (w Weights) Validate() error {
	for tag, v := range w {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight for %s must be a finite non-negative number, got %v", tag, v)
		}
	}
	return nil
}

const (
	primaryBonus      = 10
	thinEvidenceTags  = 4
	thinEvidenceScale = 0.8
)

// Dedupe drops repeated tags, keeping first-seen order.
func Dedupe(tags []model.Tag) []model.Tag {
	seen := make(map[model.Tag]struct{}, len(tags))
	out := make([]model.Tag, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// CountPrimary returns how many tags are structure breaks. Repeats count.
func CountPrimary(tags []model.Tag) int {
	n := 0
	for _, t := range tags {
		if t.Primary() {
			n++
		}
	}
	return n
}

// Score sums the weight of every tag occurrence, adds a bonus for two or more
// weighted structure breaks and scales thin evidence down. The result is
// clamped to [0, 100] and rounded. Unknown tags weigh nothing but still count
// towards the evidence total.
func (w Weights) Score(tags []model.Tag) int {
	total := 0.0
	primary := 0
	for _, t := range tags {
		v, ok := w[t]
		if !ok || v == 0 {
			continue
		}
		total += v
		if t.Primary() {
			primary++
		}
	}
	if primary >= 2 {
		total += primaryBonus
	}
	if len(tags) < thinEvidenceTags {
		total *= thinEvidenceScale
	}
	return int(math.Round(math.Max(0, math.Min(100, total))))
}
