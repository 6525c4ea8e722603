package model

import (
	"strconv"
	"strings"
	"time"
)

// Direction is the side of a trade signal. The zero value means no direction.
type Direction string

const (
	DirectionNone Direction = ""
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// Word returns "bullish" or "bearish".
func (d Direction) Word() string {
	if d == DirectionSell {
		return "bearish"
	}
	return "bullish"
}

// Tag identifies a triggered pattern confirmation.
type Tag string

const (
	TagSwingBullishBOS           Tag = "swingBullishBOS"
	TagSwingBearishBOS           Tag = "swingBearishBOS"
	TagSwingBullishCHoCH         Tag = "swingBullishCHoCH"
	TagSwingBearishCHoCH         Tag = "swingBearishCHoCH"
	TagInternalBullishBOS        Tag = "internalBullishBOS"
	TagInternalBearishBOS        Tag = "internalBearishBOS"
	TagInternalBullishCHoCH      Tag = "internalBullishCHoCH"
	TagInternalBearishCHoCH      Tag = "internalBearishCHoCH"
	TagSwingOrderBlockRespect    Tag = "swingOrderBlockRespect"
	TagInternalOrderBlockRespect Tag = "internalOrderBlockRespect"
	TagBullishFairValueGap       Tag = "bullishFairValueGap"
	TagBearishFairValueGap       Tag = "bearishFairValueGap"
	TagEqualHighsBreak           Tag = "equalHighsBreak"
	TagEqualLowsBreak            Tag = "equalLowsBreak"
	TagPremiumZoneEntry          Tag = "premiumZoneEntry"
	TagDiscountZoneEntry         Tag = "discountZoneEntry"
	TagEquilibriumZone           Tag = "equilibriumZone"
	TagMultiTimeframeAlignment   Tag = "multiTimeframeAlignment"
	TagVolumeConfirmation        Tag = "volumeConfirmation"
	TagStrongWeakHighLow         Tag = "strongWeakHighLow"
	TagATRVolatilityFilter       Tag = "atrVolatilityFilter"
)

// Primary reports whether the tag is a structure break (BOS or CHoCH).
func (t Tag) Primary() bool {
	s := string(t)
	return strings.Contains(s, "BOS") || strings.Contains(s, "CHoCH")
}

var tagLabels = map[Tag]string{
	TagSwingBullishBOS:           "Swing Bullish BOS",
	TagSwingBearishBOS:           "Swing Bearish BOS",
	TagSwingBullishCHoCH:         "Swing Bullish CHoCH",
	TagSwingBearishCHoCH:         "Swing Bearish CHoCH",
	TagInternalBullishBOS:        "Internal Bullish BOS",
	TagInternalBearishBOS:        "Internal Bearish BOS",
	TagInternalBullishCHoCH:      "Internal Bullish CHoCH",
	TagInternalBearishCHoCH:      "Internal Bearish CHoCH",
	TagSwingOrderBlockRespect:    "Swing Order Block Respect",
	TagInternalOrderBlockRespect: "Internal Order Block Respect",
	TagBullishFairValueGap:       "Bullish Fair Value Gap",
	TagBearishFairValueGap:       "Bearish Fair Value Gap",
	TagEqualHighsBreak:           "Equal Highs Break",
	TagEqualLowsBreak:            "Equal Lows Break",
	TagPremiumZoneEntry:          "Premium Zone Entry",
	TagDiscountZoneEntry:         "Discount Zone Entry",
	TagEquilibriumZone:           "Equilibrium Zone",
	TagMultiTimeframeAlignment:   "Multi-Timeframe Alignment",
	TagVolumeConfirmation:        "Volume Confirmation",
	TagStrongWeakHighLow:         "Strong/Weak High Low",
	TagATRVolatilityFilter:       "ATR Volatility Filter",
}

// Label returns the human-readable name of the tag.
func (t Tag) Label() string {
	if l, ok := tagLabels[t]; ok {
		return l
	}
	return string(t)
}

// Signal is the final output of the SMC engine. It is not mutated after emission.
type Signal struct {
	ID             string     `json:"id"`
	Symbol         string     `json:"symbol"`
	Market         MarketKind `json:"market"`
	Direction      Direction  `json:"direction"`
	Confidence     int        `json:"confidence"`
	EntryPrice     float64    `json:"entry_price"`
	StopLoss       float64    `json:"stop_loss"`
	TakeProfit     float64    `json:"take_profit"`
	RiskReward     float64    `json:"risk_reward"`
	Confirmations  []Tag      `json:"confirmations"`
	Timestamp      time.Time  `json:"timestamp"`
	AnalysisText   string     `json:"analysis"`
	SessionQuality string     `json:"session_quality"`
	Timeframe      string     `json:"timeframe"`
	Degraded       bool       `json:"degraded"`
	BrokenLevel    float64    `json:"broken_level"`
	ATR            float64    `json:"atr"`
}

// RiskRewardLabel renders the ratio as "1:R".
func (s *Signal) RiskRewardLabel() string {
	return "1:" + strconv.FormatFloat(s.RiskReward, 'f', -1, 64)
}

// ConfirmationLabels returns the human-readable confirmation names.
func (s *Signal) ConfirmationLabels() []string {
	out := make([]string, len(s.Confirmations))
	for i, t := range s.Confirmations {
		out[i] = t.Label()
	}
	return out
}
