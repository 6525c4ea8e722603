// Package engine orchestrates one analysis tick per symbol: structure update,
// pattern detection, scoring, admission and signal construction.
package engine

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"SignalSentinel/internal/detector"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/series"
	"SignalSentinel/internal/strategy"
	"SignalSentinel/internal/structure"
)

var (
	// ErrInvalidParameters marks a malformed analysis request.
	ErrInvalidParameters = errors.New("invalid parameters")
	// ErrUnknownSymbol is returned for a symbol that was never ingested.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrSyntheticDisabled is returned by IngestPrice unless degraded mode is on.
	ErrSyntheticDisabled = errors.New("synthetic bars are disabled")
)

// DefaultTimeframes are the accepted analysis timeframes.
var DefaultTimeframes = []string{"1m", "3m", "5m", "15m", "30m", "1h", "4h", "1d"}

// Settings are the tunable engine parameters.
type Settings struct {
	Capacity         int
	SwingLookback    int
	InternalLookback int
	AllowSynthetic   bool
	Alignment        bool
	Timeframes       []string
	Policy           strategy.Policy
	Weights          strategy.Weights
}

// DefaultSettings returns the stock parameters.
func DefaultSettings() Settings {
	return Settings{
		Capacity:         series.DefaultCapacity,
		SwingLookback:    structure.SwingLookback,
		InternalLookback: structure.InternalLookback,
		Timeframes:       DefaultTimeframes,
		Policy:           strategy.DefaultPolicy(),
		Weights:          strategy.DefaultWeights(),
	}
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand sets the random source used for synthetic bars.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithDetectors replaces the detector set.
func WithDetectors(ds ...detector.Detector) Option {
	return func(e *Engine) { e.detectors = ds }
}

// WithMarket registers or replaces the table for m.Kind.
func WithMarket(m model.Market) Option {
	return func(e *Engine) { e.markets[m.Kind] = m }
}

// WithLogger sets the base logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

type symbolState struct {
	mu         sync.Mutex
	kind       model.MarketKind
	swing      *structure.Tracker
	internal   *structure.Tracker
	blocks     *detector.OrderBlockBook
	lastSignal time.Time
}

// Engine owns all per-symbol state. Ticks for one symbol are serialised;
// different symbols may be analysed concurrently.
type Engine struct {
	settings  Settings
	store     *series.Store
	detectors []detector.Detector
	markets   map[model.MarketKind]model.Market
	now       func() time.Time
	rng       *rand.Rand
	logger    zerolog.Logger

	mu      sync.Mutex
	symbols map[string]*symbolState
}

// New builds an engine. Zero-valued settings fall back to DefaultSettings.
func New(s Settings, opts ...Option) *Engine {
	def := DefaultSettings()
	if s.Capacity <= 0 {
		s.Capacity = def.Capacity
	}
	if s.SwingLookback <= 0 {
		s.SwingLookback = def.SwingLookback
	}
	if s.InternalLookback <= 0 {
		s.InternalLookback = def.InternalLookback
	}
	if len(s.Timeframes) == 0 {
		s.Timeframes = def.Timeframes
	}
	if s.Policy == (strategy.Policy{}) {
		s.Policy = def.Policy
	}
	if s.Weights == nil {
		s.Weights = def.Weights
	}

	e := &Engine{
		settings:  s,
		detectors: detector.Defaults(),
		markets: map[model.MarketKind]model.Market{
			model.MarketCrypto: model.CryptoMarket(),
			model.MarketForex:  model.ForexMarket(),
		},
		now:     time.Now,
		logger:  log.Logger,
		symbols: make(map[string]*symbolState),
	}
	for _, opt := range opts {
		opt(e)
	}
	if s.Alignment {
		e.detectors = append(e.detectors, detector.Alignment{})
	}
	e.logger = e.logger.With().Str("component", "engine").Logger()
	e.store = series.NewStore(s.Capacity, e.rng)
	return e
}

// Settings returns the effective parameters.
func (e *Engine) Settings() Settings { return e.settings }

// Market returns the table for kind.
func (e *Engine) Market(kind model.MarketKind) model.Market { return e.markets[kind] }

func (e *Engine) state(symbol string, kind model.MarketKind) *symbolState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.symbols[symbol]
	if !ok {
		st = &symbolState{
			kind:     kind,
			swing:    structure.NewTracker(structure.ScaleSwing, e.settings.SwingLookback),
			internal: structure.NewTracker(structure.ScaleInternal, e.settings.InternalLookback),
			blocks:   detector.NewOrderBlockBook(detector.OrderBlockCapacity),
		}
		e.symbols[symbol] = st
	}
	return st
}

func (e *Engine) lookup(symbol string) (*symbolState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.symbols[symbol]
	return st, ok
}

func checkKind(kind model.MarketKind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: market kind %q", ErrInvalidParameters, kind)
	}
	return nil
}

// IngestBar appends bar to symbol's window.
func (e *Engine) IngestBar(symbol string, bar model.Bar, kind model.MarketKind) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	st := e.state(symbol, kind)
	st.mu.Lock()
	defer st.mu.Unlock()
	e.store.Append(symbol, bar)
	return nil
}

// IngestHistory replaces symbol's window with a fetched history.
func (e *Engine) IngestHistory(symbol string, bars []model.Bar, kind model.MarketKind) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	st := e.state(symbol, kind)
	st.mu.Lock()
	defer st.mu.Unlock()
	e.store.Replace(symbol, bars)
	return nil
}

// IngestPrice synthesises a bar around price. It is degraded mode and must be
// enabled with Settings.AllowSynthetic.
func (e *Engine) IngestPrice(symbol string, price float64, kind model.MarketKind) (model.Bar, error) {
	if !e.settings.AllowSynthetic {
		return model.Bar{}, ErrSyntheticDisabled
	}
	if err := checkKind(kind); err != nil {
		return model.Bar{}, err
	}
	if !validPrice(price) {
		return model.Bar{}, fmt.Errorf("%w: price %v", ErrInvalidParameters, price)
	}
	st := e.state(symbol, kind)
	st.mu.Lock()
	defer st.mu.Unlock()
	vol := e.markets[kind].VolatilityFor(symbol)
	return e.store.AppendSynthetic(symbol, price, e.now(), vol), nil
}

// Bars returns a copy of symbol's window.
func (e *Engine) Bars(symbol string) []model.Bar { return e.store.Get(symbol) }

// Symbols lists every ingested symbol.
func (e *Engine) Symbols() []string { return e.store.Symbols() }

func validPrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}

func (e *Engine) checkRequest(price, rr float64, timeframe string) error {
	if math.IsNaN(rr) || math.IsInf(rr, 0) || rr < 1 {
		return fmt.Errorf("%w: risk reward ratio %v", ErrInvalidParameters, rr)
	}
	if !validPrice(price) {
		return fmt.Errorf("%w: price %v", ErrInvalidParameters, price)
	}
	if !slices.Contains(e.settings.Timeframes, timeframe) {
		return fmt.Errorf("%w: timeframe %q", ErrInvalidParameters, timeframe)
	}
	return nil
}
