package structure

import "SignalSentinel/internal/model"

// Default lookbacks for the two structure scales.
const (
	SwingLookback    = 50
	InternalLookback = 5
)

// Scale names a structure timeframe. It prefixes the emitted tags.
type Scale string

const (
	ScaleSwing    Scale = "swing"
	ScaleInternal Scale = "internal"
)

// Kind distinguishes a break with the trend from one against it.
type Kind string

const (
	KindBOS   Kind = "BOS"
	KindCHoCH Kind = "CHoCH"
)

// Break is one confirmed structure break.
type Break struct {
	Scale     Scale
	Kind      Kind
	Direction model.Direction
	Level     float64
}

// Tag returns the confirmation tag for the break, e.g. swingBullishBOS.
func (b Break) Tag() model.Tag {
	side := "Bullish"
	if b.Direction == model.DirectionSell {
		side = "Bearish"
	}
	return model.Tag(string(b.Scale) + side + string(b.Kind))
}

// Update is the result of one tracker step.
type Update struct {
	Breaks []Break
	Tags   []model.Tag
}

// Tracker holds the pivot levels and bias of one scale for one symbol.
// It is not safe for concurrent use; callers serialise per symbol.
type Tracker struct {
	scale    Scale
	lookback int
	high     model.PivotLevel
	low      model.PivotLevel
	bias     model.Bias
}

// NewTracker creates a tracker for scale with the given pivot lookback.
func NewTracker(scale Scale, lookback int) *Tracker {
	return &Tracker{scale: scale, lookback: lookback}
}

func (t *Tracker) Scale() Scale           { return t.scale }
func (t *Tracker) Lookback() int          { return t.lookback }
func (t *Tracker) Bias() model.Bias       { return t.bias }
func (t *Tracker) High() model.PivotLevel { return t.high }
func (t *Tracker) Low() model.PivotLevel  { return t.low }

// Update runs pivot detection on bars and checks price against the tracked levels.
// A pivot on a bar not seen before resets its level; re-detecting the same
// bar (a replayed or refetched window) keeps the crossed state. A cross of an
// uncrossed level is a break: CHoCH when it opposes the prevailing bias, BOS
// otherwise.
func (t *Tracker) Update(bars []model.Bar, price float64) Update {
	var u Update

	p := DetectPivot(bars, t.lookback)
	if p.IsHigh && !t.high.SameSource(p.High, p.Time) {
		t.high = model.PivotLevel{Level: p.High, Valid: true, Time: p.Time}
	}
	if p.IsLow && !t.low.SameSource(p.Low, p.Time) {
		t.low = model.PivotLevel{Level: p.Low, Valid: true, Time: p.Time}
	}

	if t.high.Valid && !t.high.Crossed && price > t.high.Level {
		kind := KindBOS
		if t.bias == model.BiasBearish {
			kind = KindCHoCH
		}
		t.high.Crossed = true
		t.bias = model.BiasBullish
		u.add(Break{Scale: t.scale, Kind: kind, Direction: model.DirectionBuy, Level: t.high.Level})
	}

	if t.low.Valid && !t.low.Crossed && price < t.low.Level {
		kind := KindBOS
		if t.bias == model.BiasBullish {
			kind = KindCHoCH
		}
		t.low.Crossed = true
		t.bias = model.BiasBearish
		u.add(Break{Scale: t.scale, Kind: kind, Direction: model.DirectionSell, Level: t.low.Level})
	}

	return u
}

func (u *Update) add(b Break) {
	u.Breaks = append(u.Breaks, b)
	u.Tags = append(u.Tags, b.Tag())
}

// Direction folds a set of breaks into a signal direction.
// Mixed bullish and bearish breaks produce no direction.
func Direction(breaks []Break) model.Direction {
	var bull, bear bool
	for _, b := range breaks {
		switch b.Direction {
		case model.DirectionBuy:
			bull = true
		case model.DirectionSell:
			bear = true
		}
	}
	switch {
	case bull && !bear:
		return model.DirectionBuy
	case bear && !bull:
		return model.DirectionSell
	default:
		return model.DirectionNone
	}
}
