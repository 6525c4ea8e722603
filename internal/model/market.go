package model

import (
	"strings"
	"time"
)

// Bar represents a single OHLCV sample. Volume is 0 when the feed has none.
type Bar struct {
	Time      time.Time `json:"time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Synthetic bool      `json:"synthetic,omitempty"`
}

// Range returns High - Low.
func (b Bar) Range() float64 { return b.High - b.Low }

// Bullish reports whether the bar closed above its open.
func (b Bar) Bullish() bool { return b.Close > b.Open }

// Bearish reports whether the bar closed below its open.
func (b Bar) Bearish() bool { return b.Close < b.Open }

// MarketKind identifies the market a symbol trades in.
type MarketKind string

const (
	MarketCrypto MarketKind = "crypto"
	MarketForex  MarketKind = "forex"
)

// Valid reports whether k is a known market kind.
func (k MarketKind) Valid() bool {
	return k == MarketCrypto || k == MarketForex
}

// Market carries the per-market tables the engine is parametrised with.
type Market struct {
	Kind              MarketKind
	DefaultVolatility float64
	Volatility        map[string]float64
	PipSize           float64
	JPYPipSize        float64
}

// VolatilityFor returns the fractional volatility used to synthesise bars for symbol.
func (m Market) VolatilityFor(symbol string) float64 {
	if v, ok := m.Volatility[symbol]; ok {
		return v
	}
	return m.DefaultVolatility
}

// PipFor returns the pip size for symbol. JPY crosses use the JPY pip.
func (m Market) PipFor(symbol string) float64 {
	if m.JPYPipSize > 0 && strings.Contains(strings.ToUpper(symbol), "JPY") {
		return m.JPYPipSize
	}
	return m.PipSize
}

// CryptoMarket returns the default crypto table.
func CryptoMarket() Market {
	return Market{
		Kind:              MarketCrypto,
		DefaultVolatility: 0.025,
		Volatility: map[string]float64{
			"BTCUSDT": 0.02,
			"ETHUSDT": 0.025,
			"ADAUSDT": 0.03,
			"BNBUSDT": 0.025,
			"XRPUSDT": 0.03,
			"SOLUSDT": 0.035,
		},
		PipSize: 0.0001,
	}
}

// ForexMarket returns the default forex table.
func ForexMarket() Market {
	return Market{
		Kind:              MarketForex,
		DefaultVolatility: 0.001,
		Volatility: map[string]float64{
			"EUR/USD": 0.0008,
			"GBP/USD": 0.0012,
			"USD/JPY": 0.008,
			"XAU/USD": 0.002,
			"XAG/USD": 0.003,
			"BTC/USD": 0.02,
			"ETH/USD": 0.025,
			"USOIL":   0.015,
		},
		PipSize:    0.0001,
		JPYPipSize: 0.01,
	}
}

// PriceSeries is a point-in-time snapshot of one symbol's window.
type PriceSeries struct {
	Symbol       string
	Timeframe    string
	Bars         []Bar
	CurrentPrice float64
	FetchedAt    time.Time
}

// MarketFor returns the default table for kind. Unknown kinds get the crypto table.
func MarketFor(kind MarketKind) Market {
	if kind == MarketForex {
		return ForexMarket()
	}
	return CryptoMarket()
}
