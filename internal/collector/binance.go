package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"SignalSentinel/internal/model"
)

// BinanceFetcher implements Fetcher using the Binance spot REST API.
type BinanceFetcher struct {
	BaseURL  string
	Client   *http.Client
	validate *validator.Validate
}

// NewBinanceFetcher creates a new fetcher with optional proxy support.
func NewBinanceFetcher(baseURL, proxyURL string) *BinanceFetcher {
	return &BinanceFetcher{
		BaseURL:  baseURL,
		Client:   newHTTPClient(proxyURL, 30*time.Second),
		validate: validator.New(),
	}
}

func (f *BinanceFetcher) Name() string { return "binance" }

var binanceIntervals = map[string]bool{
	"1m": true, "3m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "4h": true, "1d": true,
}

// binanceTicker is the /api/v3/ticker/price response.
type binanceTicker struct {
	Symbol string `json:"symbol" validate:"required"`
	Price  string `json:"price" validate:"required,numeric"`
}

// binanceKline holds the fields we read from one kline array.
type binanceKline struct {
	OpenTime int64  `validate:"gt=0"`
	Open     string `validate:"required,numeric"`
	High     string `validate:"required,numeric"`
	Low      string `validate:"required,numeric"`
	Close    string `validate:"required,numeric"`
	Volume   string `validate:"required,numeric"`
}

func (f *BinanceFetcher) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func (f *BinanceFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	endpoint := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", f.BaseURL, url.QueryEscape(symbol))
	body, err := f.get(ctx, endpoint)
	if err != nil {
		return 0, fmt.Errorf("binance price %s: %w", symbol, err)
	}
	var t binanceTicker
	if err := json.Unmarshal(body, &t); err != nil {
		return 0, fmt.Errorf("decode price: %w", err)
	}
	if err := f.validate.Struct(t); err != nil {
		return 0, fmt.Errorf("invalid ticker: %w", err)
	}
	p, err := decimal.NewFromString(t.Price)
	if err != nil {
		return 0, fmt.Errorf("parse price: %w", err)
	}
	return p.InexactFloat64(), nil
}

func (f *BinanceFetcher) FetchBars(ctx context.Context, symbol, timeframe string, limit int) ([]model.Bar, error) {
	if !binanceIntervals[timeframe] {
		return nil, fmt.Errorf("%w: binance %q", ErrUnsupportedTimeframe, timeframe)
	}
	endpoint := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&limit=%d",
		f.BaseURL, url.QueryEscape(symbol), timeframe, limit)
	body, err := f.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}
	bars := make([]model.Bar, 0, len(rows))
	for i, row := range rows {
		k, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("kline %d: %w", i, err)
		}
		if err := f.validate.Struct(k); err != nil {
			return nil, fmt.Errorf("kline %d: %w", i, err)
		}
		bars = append(bars, model.Bar{
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   mustFloat(k.Open),
			High:   mustFloat(k.High),
			Low:    mustFloat(k.Low),
			Close:  mustFloat(k.Close),
			Volume: mustFloat(k.Volume),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// parseKline reads [openTime, open, high, low, close, volume, ...].
func parseKline(row []json.RawMessage) (binanceKline, error) {
	var k binanceKline
	if len(row) < 6 {
		return k, fmt.Errorf("expected at least 6 fields, got %d", len(row))
	}
	if err := json.Unmarshal(row[0], &k.OpenTime); err != nil {
		return k, fmt.Errorf("open time: %w", err)
	}
	fields := []*string{&k.Open, &k.High, &k.Low, &k.Close, &k.Volume}
	for i, dst := range fields {
		if err := json.Unmarshal(row[i+1], dst); err != nil {
			return k, fmt.Errorf("field %d: %w", i+1, err)
		}
	}
	return k, nil
}

// mustFloat parses a string already checked as numeric.
func mustFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
