package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"SignalSentinel/internal/detector"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/strategy"
	"SignalSentinel/internal/structure"
)

// State is a symbol's position in the tick lifecycle.
type State string

const (
	StateCooldown  State = "COOLDOWN"
	StateReady     State = "READY"
	StateAnalyzing State = "ANALYZING"
	StateRejected  State = "REJECTED"
	StateEmitted   State = "EMITTED"
)

// Outcome describes what one Evaluate call did.
type Outcome struct {
	State     State
	Reason    string
	Direction model.Direction
	Tags      []model.Tag
	Verdict   strategy.Verdict
	Signal    *model.Signal
	// NextEligible is set for cooldown outcomes.
	NextEligible time.Time
}

// State reports whether symbol is cooling down or ready.
func (e *Engine) State(symbol string) (State, error) {
	st, ok := e.lookup(symbol)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if !e.settings.Policy.CooledDown(st.lastSignal, e.now()) {
		return StateCooldown, nil
	}
	return StateReady, nil
}

// Analyze runs one tick and returns the emitted signal, or nil for no signal.
func (e *Engine) Analyze(symbol string, price, rr float64, timeframe string) (*model.Signal, error) {
	out, err := e.Evaluate(symbol, price, rr, timeframe)
	if err != nil {
		return nil, err
	}
	return out.Signal, nil
}

// Evaluate runs one tick for symbol and reports the resulting state.
// Errors are reserved for malformed requests and unknown symbols; data
// quality problems yield a non-emitted Outcome.
func (e *Engine) Evaluate(symbol string, price, rr float64, timeframe string) (Outcome, error) {
	if err := e.checkRequest(price, rr, timeframe); err != nil {
		return Outcome{}, err
	}
	st, ok := e.lookup(symbol)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	logger := e.logger.With().Str("symbol", symbol).Str("timeframe", timeframe).Logger()
	now := e.now()
	policy := e.settings.Policy

	if !policy.CooledDown(st.lastSignal, now) {
		next := st.lastSignal.Add(policy.Cooldown)
		logger.Debug().Time("next_eligible", next).Msg("cooldown active")
		return Outcome{State: StateCooldown, Reason: "cooldown active", NextEligible: next}, nil
	}

	bars := e.store.Get(symbol)
	if len(bars) < policy.MinHistory {
		reason := fmt.Sprintf("insufficient history: %d < %d bars", len(bars), policy.MinHistory)
		logger.Info().Int("bars", len(bars)).Msg("insufficient history, skipping tick")
		return Outcome{State: StateRejected, Reason: reason}, nil
	}

	swingU := st.swing.Update(bars, price)
	internalU := st.internal.Update(bars, price)
	breaks := append(append([]structure.Break{}, swingU.Breaks...), internalU.Breaks...)
	direction := structure.Direction(breaks)

	tags := append(append([]model.Tag{}, swingU.Tags...), internalU.Tags...)
	in := &detector.Input{
		Symbol:       symbol,
		Bars:         bars,
		Price:        price,
		Now:          now,
		Blocks:       st.blocks,
		Direction:    direction,
		SwingBias:    st.swing.Bias(),
		InternalBias: st.internal.Bias(),
	}
	for _, d := range e.detectors {
		tags = append(tags, e.runDetector(d, in)...)
	}
	verdict := policy.Validate(e.settings.Weights, direction, tags)
	if !verdict.Admitted {
		logger.Info().
			Str("direction", string(direction)).
			Int("score", verdict.Score).
			Strs("tags", tagStrings(tags)).
			Str("reason", verdict.Reason).
			Msg("signal rejected")
		return Outcome{State: StateRejected, Reason: verdict.Reason, Direction: direction, Tags: tags, Verdict: verdict}, nil
	}

	shown := strategy.Dedupe(tags)
	levels, err := strategy.ComputeLevels(direction, price, bars, rr)
	if err != nil {
		return Outcome{}, err
	}

	sig := &model.Signal{
		ID:             uuid.NewString(),
		Symbol:         symbol,
		Market:         st.kind,
		Direction:      direction,
		Confidence:     verdict.Score,
		EntryPrice:     levels.Entry,
		StopLoss:       levels.StopLoss,
		TakeProfit:     levels.TakeProfit,
		RiskReward:     levels.RiskReward,
		Confirmations:  shown,
		Timestamp:      now,
		AnalysisText:   strategy.AnalysisText(direction, shown, verdict.Score),
		SessionQuality: strategy.SessionQuality(now),
		Timeframe:      timeframe,
		Degraded:       e.store.Synthetic(symbol),
		BrokenLevel:    brokenLevel(breaks, direction),
		ATR:            levels.ATR,
	}
	st.lastSignal = now

	logger.Info().
		Str("id", sig.ID).
		Str("direction", string(direction)).
		Int("confidence", sig.Confidence).
		Float64("entry", sig.EntryPrice).
		Bool("degraded", sig.Degraded).
		Msg("signal emitted")
	return Outcome{State: StateEmitted, Direction: direction, Tags: tags, Verdict: verdict, Signal: sig}, nil
}

// runDetector isolates one detector. Errors and panics degrade to no tags.
func (e *Engine) runDetector(d detector.Detector, in *detector.Input) (tags []model.Tag) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn().Str("symbol", in.Symbol).Str("detector", d.Name()).Interface("panic", r).Msg("detector panicked")
			tags = nil
		}
	}()
	res, err := d.Detect(in)
	if errors.Is(err, detector.ErrInsufficientHistory) {
		e.logger.Info().Str("symbol", in.Symbol).Str("detector", d.Name()).Err(err).Msg("detector skipped")
		return nil
	}
	if err != nil {
		e.logger.Warn().Str("symbol", in.Symbol).Str("detector", d.Name()).Err(err).Msg("detector failed")
		return nil
	}
	return res.Tags
}

// brokenLevel returns the level of the first break in direction, swing first.
func brokenLevel(breaks []structure.Break, direction model.Direction) float64 {
	for _, b := range breaks {
		if b.Direction == direction {
			return b.Level
		}
	}
	return 0
}

func tagStrings(tags []model.Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}
