package detector

import "SignalSentinel/internal/model"

// Alignment flags ticks where swing and internal bias both agree with the
// break direction. It is not part of Defaults.
type Alignment struct{}

func (Alignment) Name() string { return "alignment" }

func (Alignment) Detect(in *Input) (Result, error) {
	var res Result
	var want model.Bias
	switch in.Direction {
	case model.DirectionBuy:
		want = model.BiasBullish
	case model.DirectionSell:
		want = model.BiasBearish
	default:
		return res, nil
	}
	if in.SwingBias == want && in.InternalBias == want {
		res.add(model.TagMultiTimeframeAlignment)
	}
	return res, nil
}
