package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalSentinel/internal/model"
)

func flatBars(n int, high, low, closePrice float64) []model.Bar {
	bars := make([]model.Bar, n)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = model.Bar{
			Time:  start.Add(time.Duration(i) * time.Minute),
			Open:  closePrice,
			High:  high,
			Low:   low,
			Close: closePrice,
		}
	}
	return bars
}

func TestTrueRange(t *testing.T) {
	tests := []struct {
		name      string
		bar       model.Bar
		prevClose float64
		want      float64
	}{
		{"inside bar", model.Bar{High: 10, Low: 8}, 9, 2},
		{"gap up", model.Bar{High: 15, Low: 14}, 10, 5},
		{"gap down", model.Bar{High: 6, Low: 5}, 10, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TrueRange(tt.bar, tt.prevClose), 1e-12)
		})
	}
}

func TestATR_Fallback(t *testing.T) {
	assert.Equal(t, 0.0, ATR(nil, ATRPeriod))

	bars := flatBars(14, 101, 99, 100)
	assert.InDelta(t, 0.1, ATR(bars, ATRPeriod), 1e-12)
}

func TestATR_Flat(t *testing.T) {
	bars := flatBars(15, 1.0960, 1.0950, 1.0955)
	assert.InDelta(t, 0.0010, ATR(bars, ATRPeriod), 1e-9)
}

func TestATR_UsesLastPeriod(t *testing.T) {
	bars := flatBars(30, 101, 99, 100)
	// widen an early bar; it must not affect the last 14 true ranges
	bars[2].High = 150
	assert.InDelta(t, 2.0, ATR(bars, ATRPeriod), 1e-12)
}

func TestWindowRange(t *testing.T) {
	_, _, err := WindowRange(nil, 20)
	require.Error(t, err)

	bars := flatBars(30, 10, 5, 7)
	bars[0].High = 100
	bars[29].Low = 1
	high, low, err := WindowRange(bars, 20)
	require.NoError(t, err)
	assert.Equal(t, 10.0, high)
	assert.Equal(t, 1.0, low)
}

func TestRangePosition(t *testing.T) {
	pos, err := RangePosition(7.5, 10, 5)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, pos, 1e-12)

	_, err = RangePosition(5, 5, 5)
	assert.Error(t, err)
}

func TestAverageVolume(t *testing.T) {
	bars := flatBars(12, 1, 1, 1)
	for i := range bars {
		bars[i].Volume = float64(i)
	}
	avg, err := AverageVolume(bars, 10)
	require.NoError(t, err)
	assert.InDelta(t, 6.5, avg, 1e-12)

	_, err = AverageVolume(bars[:3], 10)
	assert.Error(t, err)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.0945, RoundPrice(1.0945000000001))
	assert.Equal(t, 1.111, RoundPrice(1.11099999999))
	assert.Equal(t, 150.123, Round(150.12345, 3))
}

func TestPipPlaces(t *testing.T) {
	assert.Equal(t, int32(5), PipPlaces(0.0001))
	assert.Equal(t, int32(3), PipPlaces(0.01))
	assert.Equal(t, int32(PricePlaces), PipPlaces(0))
}
