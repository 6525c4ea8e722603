package model

import "time"

// Bias is the prevailing trend direction of one structure scale.
type Bias int

const (
	BiasBearish Bias = -1
	BiasNeutral Bias = 0
	BiasBullish Bias = 1
)

func (b Bias) String() string {
	switch b {
	case BiasBullish:
		return "bullish"
	case BiasBearish:
		return "bearish"
	default:
		return "neutral"
	}
}

// PivotLevel is a tracked swing or internal high/low.
// Valid is false until the first pivot is found. Time identifies the source
// bar so a replayed window does not re-arm a crossed level.
type PivotLevel struct {
	Level   float64   `json:"level"`
	Valid   bool      `json:"valid"`
	Crossed bool      `json:"crossed"`
	Time    time.Time `json:"time"`
}

// SameSource reports whether the level was taken from the bar at t with value level.
func (p PivotLevel) SameSource(level float64, t time.Time) bool {
	return p.Valid && p.Level == level && p.Time.Equal(t)
}

// OrderBlock is a candidate institutional zone.
type OrderBlock struct {
	High float64   `json:"high"`
	Low  float64   `json:"low"`
	Bias Bias      `json:"bias"`
	Time time.Time `json:"time"`
}

// Contains reports whether price lies inside the block's [Low, High] zone.
func (ob OrderBlock) Contains(price float64) bool {
	return price >= ob.Low && price <= ob.High
}
