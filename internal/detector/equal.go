package detector

import (
	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/model"
)

const (
	equalLevelsWindow    = 10
	equalLevelsThreshold = 0.1
)

// EqualLevels flags a break of clustered highs or lows in the last ten bars.
type EqualLevels struct{}

func (EqualLevels) Name() string { return "equal_levels" }

func (d EqualLevels) Detect(in *Input) (Result, error) {
	var res Result
	if err := requireBars(d.Name(), in, equalLevelsWindow); err != nil {
		return res, err
	}
	threshold := equalLevelsThreshold * calculator.ATR(in.Bars, calculator.ATRPeriod)

	recent := in.Bars[len(in.Bars)-equalLevelsWindow:]
	highs := make([]float64, len(recent))
	lows := make([]float64, len(recent))
	for i, b := range recent {
		highs[i] = b.High
		lows[i] = b.Low
	}

	if eq := equalCluster(highs, threshold); len(eq) >= 2 && in.Price > maxOf(eq) {
		res.add(model.TagEqualHighsBreak)
	}
	if eq := equalCluster(lows, threshold); len(eq) >= 2 && in.Price < minOf(eq) {
		res.add(model.TagEqualLowsBreak)
	}
	return res, nil
}

// equalCluster returns every level within threshold of at least one other.
// Identical values at different bars count separately.
func equalCluster(levels []float64, threshold float64) []float64 {
	member := make([]bool, len(levels))
	for i := range levels {
		for j := i + 1; j < len(levels); j++ {
			d := levels[i] - levels[j]
			if d < 0 {
				d = -d
			}
			if d <= threshold {
				member[i] = true
				member[j] = true
			}
		}
	}
	var out []float64
	for i, ok := range member {
		if ok {
			out = append(out, levels[i])
		}
	}
	return out
}

func maxOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
