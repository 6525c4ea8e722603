package detector

import (
	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/model"
)

const zoneWindow = 20

// Zone boundaries as fractions of the recent range.
const (
	PremiumFloor    = 0.7
	DiscountCeiling = 0.3
	EquilibriumLow  = 0.4
	EquilibriumHigh = 0.6
)

// Zones classifies price within the last twenty bars' range.
type Zones struct{}

func (Zones) Name() string { return "zones" }

func (d Zones) Detect(in *Input) (Result, error) {
	var res Result
	if err := requireBars(d.Name(), in, zoneWindow); err != nil {
		return res, err
	}
	high, low, err := calculator.WindowRange(in.Bars, zoneWindow)
	if err != nil {
		return res, err
	}
	pos, err := calculator.RangePosition(in.Price, high, low)
	if err != nil {
		// flat window, nothing to classify
		return res, nil
	}
	switch {
	case pos >= PremiumFloor:
		res.add(model.TagPremiumZoneEntry)
	case pos <= DiscountCeiling:
		res.add(model.TagDiscountZoneEntry)
	case pos >= EquilibriumLow && pos <= EquilibriumHigh:
		res.add(model.TagEquilibriumZone)
	}
	return res, nil
}
