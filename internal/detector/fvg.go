package detector

import "SignalSentinel/internal/model"

const fvgWindow = 5

// FairValueGaps flags three-bar imbalances in the last five bars.
type FairValueGaps struct{}

func (FairValueGaps) Name() string { return "fair_value_gaps" }

func (d FairValueGaps) Detect(in *Input) (Result, error) {
	var res Result
	if err := requireBars(d.Name(), in, fvgWindow); err != nil {
		return res, err
	}
	recent := in.Bars[len(in.Bars)-fvgWindow:]
	for i := 2; i < len(recent); i++ {
		if recent[i-2].High < recent[i].Low {
			res.add(model.TagBullishFairValueGap)
		}
		if recent[i-2].Low > recent[i].High {
			res.add(model.TagBearishFairValueGap)
		}
	}
	return res, nil
}
