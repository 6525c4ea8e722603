package calculator

import (
	"errors"
	"math"

	"SignalSentinel/internal/model"
)

// WindowRange scans the most recent n bars and returns the highest high and lowest low.
func WindowRange(bars []model.Bar, n int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	start := len(bars) - n
	if start < 0 || n <= 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < len(bars); i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low, nil
}

// RangePosition returns where current sits within [low, high], unclamped.
// A zero-width range is reported as an error.
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0, errors.New("zero-width range")
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	return (current - low) / (high - low), nil
}
