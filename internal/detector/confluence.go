package detector

import (
	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/model"
)

const (
	volumeWindow      = 10
	volumeSpikeFactor = 1.5
	atrRangeFactor    = 1.2
)

// Confluence flags a volume spike or an outsized last bar.
type Confluence struct{}

func (Confluence) Name() string { return "confluence" }

func (d Confluence) Detect(in *Input) (Result, error) {
	var res Result
	if err := requireBars(d.Name(), in, volumeWindow); err != nil {
		return res, err
	}
	last := in.Bars[len(in.Bars)-1]

	if avg, err := calculator.AverageVolume(in.Bars, volumeWindow); err == nil && last.Volume > avg*volumeSpikeFactor {
		res.add(model.TagVolumeConfirmation)
	}
	if len(in.Bars) >= calculator.ATRPeriod {
		atr := calculator.ATR(in.Bars, calculator.ATRPeriod)
		if last.Range() > atr*atrRangeFactor {
			res.add(model.TagATRVolatilityFilter)
		}
	}
	return res, nil
}
