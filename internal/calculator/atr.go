package calculator

import (
	"math"

	"SignalSentinel/internal/model"
)

// ATRPeriod is the default averaging window for ATR.
const ATRPeriod = 14

// atrFallbackFactor scales the first close when history is too short for ATR.
const atrFallbackFactor = 0.001

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|).
func TrueRange(bar model.Bar, prevClose float64) float64 {
	return math.Max(bar.High-bar.Low, math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
}

// ATR is the mean of the last period true ranges. With fewer than period+1
// bars it falls back to bars[0].Close*0.001, or 0 when bars is empty.
func ATR(bars []model.Bar, period int) float64 {
	if period <= 0 {
		period = ATRPeriod
	}
	if len(bars) < period+1 {
		if len(bars) == 0 {
			return 0
		}
		return bars[0].Close * atrFallbackFactor
	}
	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		sum += TrueRange(bars[i], bars[i-1].Close)
	}
	return sum / float64(period)
}
