package scheduler

import (
	"context"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalSentinel/internal/botstate"
	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/detector"
	"SignalSentinel/internal/engine"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/strategy"
)

var t0 = time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC)

type fixedTags struct{}

func (fixedTags) Name() string { return "fixed" }

func (fixedTags) Detect(*detector.Input) (detector.Result, error) {
	return detector.Result{Tags: []model.Tag{
		model.TagInternalOrderBlockRespect,
		model.TagBullishFairValueGap,
		model.TagPremiumZoneEntry,
	}}, nil
}

type captureSink struct {
	mu   sync.Mutex
	sigs []*model.Signal
	err  error
}

func (c *captureSink) NotifySignal(_ context.Context, sig *model.Signal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sigs = append(c.sigs, sig)
	return c.err
}

// breakoutBars has an internal pivot high of 105 five bars before the end.
func breakoutBars() []model.Bar {
	bars := make([]model.Bar, 30)
	for i := range bars {
		bars[i] = model.Bar{
			Time:   t0.Add(time.Duration(i-30) * time.Minute),
			Open:   99.5,
			High:   100,
			Low:    99,
			Close:  99.6,
			Volume: 1000,
		}
	}
	bars[24].High = 105
	return bars
}

type fixture struct {
	sched *Scheduler
	mock  *collector.MockFetcher
	rec   *recorder.SQLiteRecorder
	sink  *captureSink
}

func newFixture(t *testing.T, allowSynthetic bool) *fixture {
	t.Helper()
	mock := &collector.MockFetcher{
		Price:  100,
		Prices: map[string]float64{"BTCUSDT": 106},
		Bars:   map[string][]model.Bar{"BTCUSDT": breakoutBars()},
	}
	bot, err := botstate.NewManager(filepath.Join(t.TempDir(), "bot.json"), model.BotSettings{
		Market:          model.MarketCrypto,
		Symbols:         []string{"BTCUSDT"},
		Timeframes:      []string{"5m"},
		RiskRewardRatio: 2,
	})
	require.NoError(t, err)
	rec, err := recorder.NewSQLiteRecorder(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	factory := func(kind model.MarketKind, timeframe string) *engine.Engine {
		return engine.New(engine.Settings{
			AllowSynthetic: allowSynthetic,
			Policy:         strategy.DefaultPolicy(),
		},
			engine.WithClock(func() time.Time { return t0 }),
			engine.WithRand(rand.New(rand.NewPCG(1, 2))),
			engine.WithDetectors(fixedTags{}),
		)
	}
	sink := &captureSink{}
	sched := NewScheduler(context.Background(),
		map[model.MarketKind]*collector.Collector{model.MarketCrypto: collector.NewCollector(mock, 30)}, bot, rec, factory, sink)
	return &fixture{sched: sched, mock: mock, rec: rec, sink: sink}
}

func TestTick_EmitsAndDispatches(t *testing.T) {
	f := newFixture(t, false)

	report, err := f.sched.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Evaluated)
	assert.Zero(t, report.Failures)
	require.Len(t, report.Signals, 1)

	sig := report.Signals[0]
	assert.Equal(t, model.DirectionBuy, sig.Direction)
	assert.Equal(t, 63, sig.Confidence)
	assert.Equal(t, 106.0, sig.EntryPrice)
	assert.Equal(t, 105.0, sig.BrokenLevel)
	assert.Equal(t, "5m", sig.Timeframe)
	assert.False(t, sig.Degraded)

	require.Len(t, f.sink.sigs, 1)
	assert.Same(t, sig, f.sink.sigs[0])

	stored, err := f.rec.RecentSignals("BTCUSDT", 5)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, sig.ID, stored[0].ID)

	st := f.sched.Bot.GetState()
	assert.Equal(t, 1, st.TicksRun)
	assert.Equal(t, 1, st.SignalsTotal)

	// Same clock, so the symbol is cooling down.
	report, err = f.sched.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Evaluated)
	assert.Empty(t, report.Signals)
	assert.Len(t, f.sink.sigs, 1)
}

func TestTick_SinkFailureDoesNotStopTick(t *testing.T) {
	f := newFixture(t, false)
	f.sink.err = errors.New("sink down")

	report, err := f.sched.Tick(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Signals, 1)
}

func TestTick_FeedFailures(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.sched.Bot.Configure(model.BotSettings{
		Market:          model.MarketCrypto,
		Symbols:         []string{"BTCUSDT", "ETHUSDT"},
		Timeframes:      []string{"5m"},
		RiskRewardRatio: 2,
	})
	require.NoError(t, err)

	f.mock.PriceErr = errors.New("feed down")
	report, err := f.sched.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failures)
	assert.Zero(t, report.Evaluated)
}

func TestTick_HistoryDown(t *testing.T) {
	t.Run("synthetic disabled", func(t *testing.T) {
		f := newFixture(t, false)
		f.mock.BarsErr = errors.New("history down")
		report, err := f.sched.Tick(context.Background())
		require.NoError(t, err)
		// Nothing was ever ingested for the symbol.
		assert.Equal(t, 1, report.Failures)
	})

	t.Run("synthetic enabled", func(t *testing.T) {
		f := newFixture(t, true)
		f.mock.BarsErr = errors.New("history down")
		report, err := f.sched.Tick(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Evaluated)
		assert.Equal(t, 1, report.Rejected)

		bars := f.sched.Engine(model.MarketCrypto, "5m").Bars("BTCUSDT")
		require.Len(t, bars, 1)
		assert.True(t, bars[0].Synthetic)

		n, err := f.rec.RejectionCount("BTCUSDT")
		require.NoError(t, err)
		assert.Zero(t, n, "directionless rejections are not recorded")
	})
}

func TestTick_MarketWithoutFeed(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.sched.Bot.Configure(model.BotSettings{
		Market:          model.MarketForex,
		Symbols:         []string{"EUR/USD"},
		Timeframes:      []string{"5m", "1h"},
		RiskRewardRatio: 2,
	})
	require.NoError(t, err)

	report, err := f.sched.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failures)
}

func TestEngine_PerMarketAndTimeframe(t *testing.T) {
	f := newFixture(t, false)
	a := f.sched.Engine(model.MarketCrypto, "5m")
	assert.Same(t, a, f.sched.Engine(model.MarketCrypto, "5m"))
	assert.NotSame(t, a, f.sched.Engine(model.MarketCrypto, "1h"))
	assert.NotSame(t, a, f.sched.Engine(model.MarketForex, "5m"))
}

func TestHandleCommand(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	assert.Contains(t, f.sched.HandleCommand(ctx, "/status"), "Status: stopped")
	assert.Contains(t, f.sched.HandleCommand(ctx, "/start"), "Scanning started")
	assert.True(t, f.sched.Bot.Running())
	assert.Contains(t, f.sched.HandleCommand(ctx, "/start@SignalSentinelBot"), "Already running")

	assert.Equal(t, "No signals yet.", f.sched.HandleCommand(ctx, "/signals"))
	assert.Equal(t, "Scan complete: 1 evaluated, 1 signals, 0 failures.", f.sched.HandleCommand(ctx, "/scan"))
	assert.Contains(t, f.sched.HandleCommand(ctx, "/signals"), "BTCUSDT BUY @ 106.00000")

	assert.Contains(t, f.sched.HandleCommand(ctx, "/stop"), "Scanning stopped")
	assert.Equal(t, "Already stopped.", f.sched.HandleCommand(ctx, "/stop"))
	assert.Equal(t, helpText, f.sched.HandleCommand(ctx, "hello"))
	assert.Equal(t, helpText, f.sched.HandleCommand(ctx, "   "))
}

func TestRegister_RejectsBadCron(t *testing.T) {
	f := newFixture(t, false)
	assert.Error(t, f.sched.Register("not a cron"))
	assert.NoError(t, f.sched.Register("*/30 * * * * *"))
}
