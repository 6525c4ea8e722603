// Package series holds the per-symbol rolling bar windows.
package series

import (
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/model"
)

// DefaultCapacity is the window size used when none is configured.
const DefaultCapacity = 100

// Store keeps a bounded, oldest-first window of bars for each symbol.
// It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	capacity int
	windows  map[string][]model.Bar
	rng      *rand.Rand
}

// NewStore creates a store. A nil rng gets a time-seeded PCG source.
func NewStore(capacity int, rng *rand.Rand) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Store{
		capacity: capacity,
		windows:  make(map[string][]model.Bar),
		rng:      rng,
	}
}

// Capacity returns the per-symbol window size.
func (s *Store) Capacity() int { return s.capacity }

// Append adds bar to symbol's window, evicting the oldest bar past capacity.
func (s *Store) Append(symbol string, bar model.Bar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(symbol, bar)
}

func (s *Store) appendLocked(symbol string, bar model.Bar) {
	w := append(s.windows[symbol], bar)
	if len(w) > s.capacity {
		// copy down so the backing array does not grow without bound
		n := copy(w, w[len(w)-s.capacity:])
		w = w[:n]
	}
	s.windows[symbol] = w
}

// AppendSynthetic fabricates a bar around price using the fractional volatility
// and appends it. The bar is marked Synthetic.
func (s *Store) AppendSynthetic(symbol string, price float64, ts time.Time, volatility float64) model.Bar {
	s.mu.Lock()
	defer s.mu.Unlock()

	high := price + s.rng.Float64()*volatility*price
	low := price - s.rng.Float64()*volatility*price
	open := low + s.rng.Float64()*(high-low)
	bar := model.Bar{
		Time:      ts,
		Open:      calculator.RoundPrice(open),
		High:      calculator.RoundPrice(high),
		Low:       calculator.RoundPrice(low),
		Close:     calculator.RoundPrice(price),
		Volume:    float64(int64(s.rng.Float64()*1_000_000) + 500_000),
		Synthetic: true,
	}
	s.appendLocked(symbol, bar)
	return bar
}

// Replace swaps symbol's window for bars, keeping the newest capacity bars in time order.
func (s *Store) Replace(symbol string, bars []model.Bar) {
	w := make([]model.Bar, len(bars))
	copy(w, bars)
	sort.SliceStable(w, func(i, j int) bool { return w[i].Time.Before(w[j].Time) })
	if len(w) > s.capacity {
		w = w[len(w)-s.capacity:]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows[symbol] = w
}

// Get returns a copy of symbol's window, oldest first. Unknown symbols yield an empty slice.
func (s *Store) Get(symbol string) []model.Bar {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w := s.windows[symbol]
	out := make([]model.Bar, len(w))
	copy(out, w)
	return out
}

// Len returns the number of bars held for symbol.
func (s *Store) Len(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.windows[symbol])
}

// Has reports whether any bar was ever stored for symbol.
func (s *Store) Has(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.windows[symbol]
	return ok
}

// Synthetic reports whether symbol's window contains any fabricated bar.
func (s *Store) Synthetic(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.windows[symbol] {
		if b.Synthetic {
			return true
		}
	}
	return false
}

// Symbols returns the tracked symbols in sorted order.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.windows))
	for sym := range s.windows {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
