package strategy

import (
	"strings"

	"SignalSentinel/internal/model"
)

// Tiers maps a confidence floor to its label and sizing advice.
var Tiers = []struct {
	MinScore int
	Label    string
	Advice   string
}{
	{80, "Very Strong", "High-probability setup suitable for standard position sizing."},
	{70, "Strong", "Good probability setup - consider normal position size."},
	{60, "Moderate", "Moderate probability - use reduced position size and tight risk management."},
}

// ConfidenceLabel returns Very Strong, Strong or Moderate.
func ConfidenceLabel(confidence int) string {
	for _, t := range Tiers {
		if confidence >= t.MinScore {
			return t.Label
		}
	}
	return "Moderate"
}

func sizingAdvice(confidence int) string {
	for _, t := range Tiers {
		if confidence >= t.MinScore {
			return t.Advice
		}
	}
	return ""
}

func hasAny(set map[model.Tag]bool, tags ...model.Tag) bool {
	for _, t := range tags {
		if set[t] {
			return true
		}
	}
	return false
}

// AnalysisText renders the human-readable summary of a setup.
func AnalysisText(direction model.Direction, tags []model.Tag, confidence int) string {
	if direction == model.DirectionNone {
		return "No clear directional bias detected."
	}
	set := make(map[model.Tag]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}
	word := direction.Word()

	var b strings.Builder
	b.WriteString(ConfidenceLabel(confidence) + " " + word + " setup detected. ")
	if hasAny(set, model.TagSwingBullishBOS, model.TagSwingBearishBOS) {
		b.WriteString("Major swing Break of Structure confirms " + word + " momentum shift. ")
	}
	if hasAny(set, model.TagSwingBullishCHoCH, model.TagSwingBearishCHoCH) {
		b.WriteString("Swing Change of Character indicates potential trend reversal. ")
	}
	if hasAny(set, model.TagInternalBullishBOS, model.TagInternalBearishBOS) {
		b.WriteString("Internal structure break provides additional confluence. ")
	}
	if hasAny(set, model.TagSwingOrderBlockRespect, model.TagInternalOrderBlockRespect) {
		b.WriteString("Price respecting institutional order block levels. ")
	}
	if hasAny(set, model.TagBullishFairValueGap, model.TagBearishFairValueGap) {
		b.WriteString("Fair Value Gap providing strong directional bias. ")
	}
	if set[model.TagPremiumZoneEntry] {
		side := "buy"
		if direction == model.DirectionSell {
			side = "sell"
		}
		b.WriteString("Entry from premium zone - ideal for " + side + " setups. ")
	}
	if set[model.TagDiscountZoneEntry] {
		side := "sell"
		if direction == model.DirectionBuy {
			side = "buy"
		}
		b.WriteString("Entry from discount zone - optimal for " + side + " entries. ")
	}
	b.WriteString(sizingAdvice(confidence))
	return strings.TrimSpace(b.String())
}
