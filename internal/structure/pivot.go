// Package structure tracks swing and internal market structure.
package structure

import (
	"time"

	"SignalSentinel/internal/model"
)

// Pivot is the outcome of a pivot check on one candidate bar.
type Pivot struct {
	IsHigh bool
	IsLow  bool
	High   float64
	Low    float64
	Index  int
	Time   time.Time // open time of the candidate bar
}

// DetectPivot checks the bar at len-lookback-1. It is a pivot high when no
// other bar within ±lookback has an equal-or-greater high, and a pivot low
// when none has an equal-or-lower low. Fewer than 2*lookback+1 bars yields
// no pivot.
func DetectPivot(bars []model.Bar, lookback int) Pivot {
	if lookback <= 0 || len(bars) < 2*lookback+1 {
		return Pivot{Index: -1}
	}
	idx := len(bars) - lookback - 1
	cand := bars[idx]
	p := Pivot{IsHigh: true, IsLow: true, High: cand.High, Low: cand.Low, Index: idx, Time: cand.Time}
	for i := idx - lookback; i <= idx+lookback; i++ {
		if i == idx {
			continue
		}
		if bars[i].High >= cand.High {
			p.IsHigh = false
		}
		if bars[i].Low <= cand.Low {
			p.IsLow = false
		}
		if !p.IsHigh && !p.IsLow {
			break
		}
	}
	return p
}
