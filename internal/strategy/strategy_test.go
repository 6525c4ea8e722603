package strategy

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"SignalSentinel/internal/model"
)

var allTags = []model.Tag{
	model.TagSwingBullishBOS, model.TagSwingBearishBOS,
	model.TagSwingBullishCHoCH, model.TagSwingBearishCHoCH,
	model.TagInternalBullishBOS, model.TagInternalBearishBOS,
	model.TagInternalBullishCHoCH, model.TagInternalBearishCHoCH,
	model.TagSwingOrderBlockRespect, model.TagInternalOrderBlockRespect,
	model.TagBullishFairValueGap, model.TagBearishFairValueGap,
	model.TagEqualHighsBreak, model.TagEqualLowsBreak,
	model.TagPremiumZoneEntry, model.TagDiscountZoneEntry,
	model.TagEquilibriumZone, model.TagMultiTimeframeAlignment,
	model.TagVolumeConfirmation, model.TagStrongWeakHighLow,
	model.TagATRVolatilityFilter,
}

func randomTags(r *rand.Rand) []model.Tag {
	n := r.IntN(8)
	tags := make([]model.Tag, n)
	for i := range tags {
		tags[i] = allTags[r.IntN(len(allTags))]
	}
	return tags
}

func TestScore(t *testing.T) {
	w := DefaultWeights()
	tests := []struct {
		name string
		tags []model.Tag
		want int
	}{
		{"empty", nil, 0},
		{"four tags no penalty", []model.Tag{model.TagInternalBullishBOS, model.TagBullishFairValueGap, model.TagSwingOrderBlockRespect, model.TagPremiumZoneEntry}, 67},
		{"two primaries thin", []model.Tag{model.TagSwingBullishBOS, model.TagInternalBullishBOS}, 48},
		{"repeats count each time", []model.Tag{model.TagBullishFairValueGap, model.TagBullishFairValueGap, model.TagBullishFairValueGap}, 36},
		{"repeated gap fills out evidence", []model.Tag{model.TagInternalBullishBOS, model.TagBullishFairValueGap, model.TagBullishFairValueGap, model.TagBullishFairValueGap}, 65},
		{"repeated break earns bonus", []model.Tag{model.TagInternalBullishBOS, model.TagInternalBullishBOS}, 40},
		{"unknown tag counts towards evidence", []model.Tag{model.TagInternalBullishBOS, model.TagBullishFairValueGap, model.TagPremiumZoneEntry, "mystery"}, 45},
		{"clamped", allTags, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Score(tt.tags); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScore_Monotonic(t *testing.T) {
	w := DefaultWeights()
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 2000; i++ {
		base := randomTags(r)
		extra := allTags[r.IntN(len(allTags))]
		before := w.Score(base)
		after := w.Score(append(append([]model.Tag{}, base...), extra))
		if after < before {
			t.Fatalf("adding %s to %v lowered score %d -> %d", extra, base, before, after)
		}
	}
}

func TestWeights_MergeAndValidate(t *testing.T) {
	w := DefaultWeights().Merge(map[model.Tag]float64{model.TagVolumeConfirmation: 9})
	if w[model.TagVolumeConfirmation] != 9 {
		t.Errorf("override not applied: %v", w[model.TagVolumeConfirmation])
	}
	if DefaultWeights()[model.TagVolumeConfirmation] != 6 {
		t.Error("Merge mutated the defaults")
	}
	if err := w.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := w.Merge(map[model.Tag]float64{model.TagEquilibriumZone: -1}).Validate(); err == nil {
		t.Error("expected negative weight to be rejected")
	}
}

func TestPolicy_Validate(t *testing.T) {
	w := DefaultWeights()
	p := DefaultPolicy()
	admitted := []model.Tag{model.TagInternalBullishBOS, model.TagBullishFairValueGap, model.TagSwingOrderBlockRespect, model.TagPremiumZoneEntry}

	tests := []struct {
		name      string
		direction model.Direction
		tags      []model.Tag
		admitted  bool
		reason    string
	}{
		{"admitted", model.DirectionBuy, admitted, true, ""},
		{"no direction", model.DirectionNone, admitted, false, "no directional break"},
		{"no primary", model.DirectionBuy, []model.Tag{model.TagSwingOrderBlockRespect, model.TagInternalOrderBlockRespect, model.TagBullishFairValueGap, model.TagEqualHighsBreak}, false, "primary confirmations 0 < 1"},
		{"too few", model.DirectionBuy, []model.Tag{model.TagSwingBullishBOS, model.TagSwingOrderBlockRespect, model.TagBullishFairValueGap}, false, "total confirmations 3 < 4"},
		{"repeats count towards the total", model.DirectionBuy, []model.Tag{model.TagSwingBullishBOS, model.TagSwingOrderBlockRespect, model.TagBullishFairValueGap, model.TagBullishFairValueGap}, true, ""},
		{"repeats alone stay thin", model.DirectionBuy, []model.Tag{model.TagSwingBullishBOS, model.TagBullishFairValueGap, model.TagBullishFairValueGap}, false, "total confirmations 3 < 4"},
		{"low score", model.DirectionBuy, []model.Tag{model.TagInternalBullishCHoCH, model.TagEquilibriumZone, model.TagVolumeConfirmation, model.TagATRVolatilityFilter}, false, "confidence 36 < 60"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := p.Validate(w, tt.direction, tt.tags)
			if v.Admitted != tt.admitted {
				t.Errorf("Admitted = %v, want %v (%s)", v.Admitted, tt.admitted, v.Reason)
			}
			if v.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", v.Reason, tt.reason)
			}
		})
	}
}

func TestPolicy_ValidateCountsRepeats(t *testing.T) {
	tags := []model.Tag{
		model.TagInternalBullishBOS,
		model.TagBullishFairValueGap,
		model.TagBullishFairValueGap,
		model.TagBullishFairValueGap,
	}
	v := DefaultPolicy().Validate(DefaultWeights(), model.DirectionBuy, tags)
	if !v.Admitted {
		t.Fatalf("expected admission, got %q", v.Reason)
	}
	if v.Score != 65 || v.Total != 4 || v.Primary != 1 {
		t.Errorf("verdict = %+v, want score 65 total 4 primary 1", v)
	}
	if got := Dedupe(tags); len(got) != 2 || got[0] != model.TagInternalBullishBOS || got[1] != model.TagBullishFairValueGap {
		t.Errorf("Dedupe() = %v", got)
	}
}

func TestPolicy_AdmissionFloor(t *testing.T) {
	w := DefaultWeights()
	p := DefaultPolicy()
	r := rand.New(rand.NewPCG(3, 5))
	for i := 0; i < 2000; i++ {
		tags := randomTags(r)
		v := p.Validate(w, model.DirectionSell, tags)
		if !v.Admitted {
			continue
		}
		if v.Score < 60 || v.Primary < 1 || v.Total < 4 {
			t.Fatalf("admitted below floor: %+v for %v", v, tags)
		}
	}
}

func TestPolicy_CooledDown(t *testing.T) {
	p := DefaultPolicy()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	if !p.CooledDown(time.Time{}, now) {
		t.Error("never-signalled symbol should be ready")
	}
	if p.CooledDown(now.Add(-4*time.Minute), now) {
		t.Error("expected cooldown after 4m")
	}
	if !p.CooledDown(now.Add(-5*time.Minute), now) {
		t.Error("expected ready after exactly 5m")
	}
}

func levelBars() []model.Bar {
	bars := make([]model.Bar, 15)
	for i := range bars {
		bars[i] = model.Bar{Open: 1.0955, High: 1.0960, Low: 1.0950, Close: 1.0955}
	}
	return bars
}

func TestComputeLevels_Buy(t *testing.T) {
	lv, err := ComputeLevels(model.DirectionBuy, 1.1000, levelBars(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if lv.Entry != 1.1 {
		t.Errorf("Entry = %v", lv.Entry)
	}
	if diff := lv.StopLoss - 1.0945; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("StopLoss = %v, want 1.0945", lv.StopLoss)
	}
	if diff := lv.TakeProfit - 1.1110; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("TakeProfit = %v, want 1.1110", lv.TakeProfit)
	}
	if lv.ATR != 0.001 {
		t.Errorf("ATR = %v, want 0.001", lv.ATR)
	}
}

func TestComputeLevels_Sell(t *testing.T) {
	lv, err := ComputeLevels(model.DirectionSell, 1.1000, levelBars(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if diff := lv.StopLoss - 1.1015; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("StopLoss = %v, want 1.1015", lv.StopLoss)
	}
	if diff := lv.TakeProfit - 1.0970; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("TakeProfit = %v, want 1.0970", lv.TakeProfit)
	}
}

func TestComputeLevels_NoDirection(t *testing.T) {
	if _, err := ComputeLevels(model.DirectionNone, 1, levelBars(), 2); !errors.Is(err, ErrNoDirection) {
		t.Errorf("expected ErrNoDirection, got %v", err)
	}
}

func TestComputeLevels_Ordering(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 1))
	for i := 0; i < 500; i++ {
		bars := make([]model.Bar, 20+r.IntN(30))
		p := 100.0
		for j := range bars {
			p += r.Float64()*2 - 1
			half := 0.5 + r.Float64()
			bars[j] = model.Bar{Open: p, High: p + half, Low: p - half, Close: p}
		}
		price := bars[len(bars)-1].Close
		rr := 1 + r.Float64()*4

		buy, _ := ComputeLevels(model.DirectionBuy, price, bars, rr)
		if !(buy.StopLoss < buy.Entry && buy.Entry < buy.TakeProfit) {
			t.Fatalf("BUY ordering violated: %+v", buy)
		}
		sell, _ := ComputeLevels(model.DirectionSell, price, bars, rr)
		if !(sell.TakeProfit < sell.Entry && sell.Entry < sell.StopLoss) {
			t.Fatalf("SELL ordering violated: %+v", sell)
		}
	}
}

func TestConfidenceLabel(t *testing.T) {
	cases := map[int]string{100: "Very Strong", 80: "Very Strong", 79: "Strong", 70: "Strong", 69: "Moderate", 60: "Moderate"}
	for c, want := range cases {
		if got := ConfidenceLabel(c); got != want {
			t.Errorf("ConfidenceLabel(%d) = %q, want %q", c, got, want)
		}
	}
}

func TestAnalysisText(t *testing.T) {
	tags := []model.Tag{model.TagSwingBearishBOS, model.TagSwingOrderBlockRespect, model.TagBearishFairValueGap, model.TagPremiumZoneEntry}
	got := AnalysisText(model.DirectionSell, tags, 85)
	want := "Very Strong bearish setup detected. " +
		"Major swing Break of Structure confirms bearish momentum shift. " +
		"Price respecting institutional order block levels. " +
		"Fair Value Gap providing strong directional bias. " +
		"Entry from premium zone - ideal for sell setups. " +
		"High-probability setup suitable for standard position sizing."
	if got != want {
		t.Errorf("AnalysisText() =\n%s\nwant\n%s", got, want)
	}

	got = AnalysisText(model.DirectionBuy, []model.Tag{model.TagInternalBullishBOS, model.TagDiscountZoneEntry}, 64)
	if !strings.HasPrefix(got, "Moderate bullish setup detected. Internal structure break") {
		t.Errorf("unexpected text: %s", got)
	}
	if !strings.Contains(got, "Entry from discount zone - optimal for buy entries.") {
		t.Errorf("missing discount clause: %s", got)
	}

	if got := AnalysisText(model.DirectionNone, nil, 0); got != "No clear directional bias detected." {
		t.Errorf("unexpected no-direction text: %s", got)
	}
}

func TestSessionQuality(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{3, SessionAsian},
		{7, SessionLondon},
		{11, SessionLondon},
		{12, SessionOverlap},
		{16, SessionOverlap},
		{17, SessionNewYork},
		{21, SessionNewYork},
		{22, SessionAsian},
	}
	for _, tt := range tests {
		ts := time.Date(2026, 3, 2, tt.hour, 30, 0, 0, time.UTC)
		if got := SessionQuality(ts); got != tt.want {
			t.Errorf("SessionQuality(%02d:30) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}
