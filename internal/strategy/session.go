package strategy

import "time"

// Session quality labels by UTC hour.
const (
	SessionOverlap = "London/NY Overlap - Very High"
	SessionLondon  = "London Session - High"
	SessionNewYork = "New York Session - High"
	SessionAsian   = "Asian Session - Medium"
)

// SessionQuality classifies t by UTC hour: 12-16 is the London/NY overlap,
// 7-11 London, 17-21 New York and everything else Asian. The overlap takes
// precedence, so the New York label never covers 12-16.
func SessionQuality(t time.Time) string {
	h := t.UTC().Hour()
	switch {
	case h >= 12 && h <= 16:
		return SessionOverlap
	case h >= 7 && h <= 16:
		return SessionLondon
	case h >= 12 && h <= 21:
		return SessionNewYork
	default:
		return SessionAsian
	}
}
