package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"SignalSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu       sync.Mutex
	Price    float64
	Prices   map[string]float64
	Bars     map[string][]model.Bar
	BarsErr  error
	PriceErr error
	Calls    int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) priceFor(symbol string) float64 {
	if p, ok := m.Prices[symbol]; ok {
		return p
	}
	return m.Price
}

func (m *MockFetcher) FetchBars(_ context.Context, symbol, _ string, limit int) ([]model.Bar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.BarsErr != nil {
		return nil, m.BarsErr
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	return generateMockBars(m.priceFor(symbol), limit), nil
}

func (m *MockFetcher) FetchCurrentPrice(_ context.Context, symbol string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.PriceErr != nil {
		return 0, m.PriceErr
	}
	if p, ok := m.Prices[symbol]; ok {
		return p, nil
	}
	if bars, ok := m.Bars[symbol]; ok && len(bars) > 0 {
		return bars[len(bars)-1].Close, nil
	}
	return m.Price, nil
}

func generateMockBars(basePrice float64, count int) []model.Bar {
	bars := make([]model.Bar, count)
	now := time.Now().UTC().Truncate(time.Minute)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Time:   now.Add(-time.Duration(count-i) * time.Minute),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector pulls one symbol's history and live price from a feed.
type Collector struct {
	Fetcher     Fetcher
	HistoryBars int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, historyBars int) *Collector {
	return &Collector{Fetcher: fetcher, HistoryBars: historyBars}
}

// Collect fetches the current price and, when available, a bar history.
// A history failure is tolerated and leaves Bars empty; a price failure is not.
func (c *Collector) Collect(ctx context.Context, symbol, timeframe string) (*model.PriceSeries, error) {
	price, err := c.Fetcher.FetchCurrentPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch current price: %w", err)
	}

	ps := &model.PriceSeries{
		Symbol:       symbol,
		Timeframe:    timeframe,
		CurrentPrice: price,
		FetchedAt:    time.Now().UTC(),
	}

	bars, err := c.Fetcher.FetchBars(ctx, symbol, timeframe, c.HistoryBars)
	if err != nil {
		log.Warn().
			Str("component", "collector").
			Str("feed", c.Fetcher.Name()).
			Str("symbol", symbol).
			Str("timeframe", timeframe).
			Err(err).
			Msg("history unavailable, price only")
		return ps, nil
	}
	ps.Bars = bars
	return ps, nil
}
