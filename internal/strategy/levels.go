package strategy

import (
	"errors"
	"math"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/model"
)

// ErrNoDirection is returned when levels are requested without a side.
var ErrNoDirection = errors.New("direction is required")

const (
	levelsWindow    = 10
	structureBuffer = 0.5
	atrStopFactor   = 1.5
)

// Levels are the computed trade prices, rounded to calculator.PricePlaces.
type Levels struct {
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	RiskReward float64
	ATR        float64
}

// ComputeLevels places the stop beyond both the recent extreme (plus half an
// ATR) and 1.5 ATR from price, whichever is further, then projects the target
// at rr times the risk.
func ComputeLevels(direction model.Direction, price float64, bars []model.Bar, rr float64) (Levels, error) {
	atr := calculator.ATR(bars, calculator.ATRPeriod)
	high, low, err := calculator.WindowRange(bars, levelsWindow)
	if err != nil {
		high, low = price, price
	}

	entry := price
	var stop, target float64
	switch direction {
	case model.DirectionBuy:
		stop = math.Min(low-atr*structureBuffer, price-atr*atrStopFactor)
		target = entry + (entry-stop)*rr
	case model.DirectionSell:
		stop = math.Max(high+atr*structureBuffer, price+atr*atrStopFactor)
		target = entry - (stop-entry)*rr
	default:
		return Levels{}, ErrNoDirection
	}

	return Levels{
		Entry:      calculator.RoundPrice(entry),
		StopLoss:   calculator.RoundPrice(stop),
		TakeProfit: calculator.RoundPrice(target),
		RiskReward: rr,
		ATR:        calculator.RoundPrice(atr),
	}, nil
}
