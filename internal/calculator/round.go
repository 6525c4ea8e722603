package calculator

import "github.com/shopspring/decimal"

// PricePlaces is the engine's fixed rounding precision.
const PricePlaces = 5

// Round rounds v half away from zero to places decimals.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// RoundPrice rounds v to PricePlaces.
func RoundPrice(v float64) float64 {
	return Round(v, PricePlaces)
}

// PipPlaces returns the display precision implied by a pip size.
// 0.0001 gives 5 places, 0.01 gives 3.
func PipPlaces(pip float64) int32 {
	if pip <= 0 {
		return PricePlaces
	}
	return int32(-decimal.NewFromFloat(pip).Exponent()) + 1
}
