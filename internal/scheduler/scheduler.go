// Package scheduler drives the analysis tick: collect, ingest, evaluate and
// fan emitted signals out to the sinks.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"SignalSentinel/internal/botstate"
	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/engine"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/recorder"
)

// DefaultConcurrency bounds the symbols analysed in parallel per tick.
const DefaultConcurrency = 8

var (
	// ErrTickInProgress is returned when a tick is requested while one is running.
	ErrTickInProgress = errors.New("tick already in progress")
	// ErrNoFeed is returned for a market without a configured collector.
	ErrNoFeed = errors.New("no feed for market")
)

// SignalSink receives every emitted signal.
type SignalSink interface {
	NotifySignal(ctx context.Context, sig *model.Signal) error
}

// EngineFactory builds the engine for one market and timeframe.
type EngineFactory func(kind model.MarketKind, timeframe string) *engine.Engine

// TickReport summarises one scan over all configured symbols and timeframes.
type TickReport struct {
	Evaluated int             `json:"evaluated"`
	Rejected  int             `json:"rejected"`
	Failures  int             `json:"failures"`
	Signals   []*model.Signal `json:"signals"`
}

// Scheduler manages the cron-driven scan.
type Scheduler struct {
	Cron        *cron.Cron
	Collectors  map[model.MarketKind]*collector.Collector
	Bot         *botstate.Manager
	Recorder    recorder.Recorder
	Sinks       []SignalSink
	Concurrency int
	Ctx         context.Context

	newEngine EngineFactory
	engMu     sync.Mutex
	engines   map[string]*engine.Engine
	tickMu    sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, cols map[model.MarketKind]*collector.Collector, bot *botstate.Manager, rec recorder.Recorder, factory EngineFactory, sinks ...SignalSink) *Scheduler {
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Collectors:  cols,
		Bot:         bot,
		Recorder:    rec,
		Sinks:       sinks,
		Concurrency: DefaultConcurrency,
		Ctx:         ctx,
		newEngine:   factory,
		engines:     make(map[string]*engine.Engine),
	}
}

// Register adds the scan job with a six-field cron expression.
func (s *Scheduler) Register(tickCron string) error {
	if _, err := s.Cron.AddFunc(tickCron, s.scheduledTick); err != nil {
		return fmt.Errorf("register tick task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Str("component", "scheduler").Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Str("component", "scheduler").Msg("scheduler stopped")
}

func (s *Scheduler) scheduledTick() {
	if !s.Bot.Running() {
		return
	}
	if _, err := s.Tick(s.Ctx); err != nil && !errors.Is(err, ErrTickInProgress) {
		log.Error().Str("component", "scheduler").Err(err).Msg("tick failed")
	}
}

// Engine returns the engine for kind and timeframe, creating it on first use.
func (s *Scheduler) Engine(kind model.MarketKind, timeframe string) *engine.Engine {
	key := string(kind) + "/" + timeframe
	s.engMu.Lock()
	defer s.engMu.Unlock()
	eng, ok := s.engines[key]
	if !ok {
		eng = s.newEngine(kind, timeframe)
		s.engines[key] = eng
	}
	return eng
}

// Tick scans every configured symbol and timeframe once. Symbols run in
// parallel; a failing symbol does not affect the others.
func (s *Scheduler) Tick(ctx context.Context) (*TickReport, error) {
	if !s.tickMu.TryLock() {
		return nil, ErrTickInProgress
	}
	defer s.tickMu.Unlock()

	settings := s.Bot.GetState().Settings
	report := &TickReport{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	limit := s.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g.SetLimit(limit)

	for _, tf := range settings.Timeframes {
		eng := s.Engine(settings.Market, tf)
		for _, symbol := range settings.Symbols {
			g.Go(func() error {
				out, err := s.tickOne(gctx, eng, settings.Market, symbol, tf, settings.RiskRewardRatio)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					report.Failures++
					return nil
				}
				report.Evaluated++
				switch out.State {
				case engine.StateEmitted:
					report.Signals = append(report.Signals, out.Signal)
				case engine.StateRejected:
					report.Rejected++
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	s.Bot.RecordTick(len(report.Signals))
	log.Info().
		Str("component", "scheduler").
		Int("evaluated", report.Evaluated).
		Int("rejected", report.Rejected).
		Int("signals", len(report.Signals)).
		Int("failures", report.Failures).
		Msg("tick complete")
	return report, nil
}

func (s *Scheduler) tickOne(ctx context.Context, eng *engine.Engine, kind model.MarketKind, symbol, timeframe string, rr float64) (engine.Outcome, error) {
	logger := log.With().Str("component", "scheduler").Str("symbol", symbol).Str("timeframe", timeframe).Logger()

	col, ok := s.Collectors[kind]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrNoFeed, kind)
		logger.Error().Err(err).Msg("collect failed")
		return engine.Outcome{}, err
	}
	ps, err := col.Collect(ctx, symbol, timeframe)
	if err != nil {
		logger.Error().Err(err).Msg("collect failed")
		return engine.Outcome{}, err
	}

	if len(ps.Bars) > 0 {
		err = eng.IngestHistory(symbol, ps.Bars, kind)
	} else {
		_, err = eng.IngestPrice(symbol, ps.CurrentPrice, kind)
	}
	if err != nil && !errors.Is(err, engine.ErrSyntheticDisabled) {
		logger.Error().Err(err).Msg("ingest failed")
		return engine.Outcome{}, err
	}
	if errors.Is(err, engine.ErrSyntheticDisabled) {
		logger.Warn().Msg("no history and synthetic bars disabled")
	}

	out, err := eng.Evaluate(symbol, ps.CurrentPrice, rr, timeframe)
	if err != nil {
		logger.Error().Err(err).Msg("evaluate failed")
		return engine.Outcome{}, err
	}

	switch out.State {
	case engine.StateEmitted:
		s.dispatch(ctx, out.Signal)
	case engine.StateRejected:
		if out.Direction != model.DirectionNone {
			if err := s.Recorder.RecordRejection(&recorder.Rejection{
				Symbol:    symbol,
				Timeframe: timeframe,
				Direction: out.Direction,
				Score:     out.Verdict.Score,
				Reason:    out.Reason,
				Tags:      out.Tags,
				Time:      ps.FetchedAt,
			}); err != nil {
				logger.Error().Err(err).Msg("record rejection")
			}
		}
	}
	return out, nil
}

func (s *Scheduler) dispatch(ctx context.Context, sig *model.Signal) {
	if err := s.Recorder.RecordSignal(sig); err != nil {
		log.Error().Str("component", "scheduler").Str("id", sig.ID).Err(err).Msg("record signal")
	}
	for _, sink := range s.Sinks {
		if err := sink.NotifySignal(ctx, sig); err != nil {
			log.Error().Str("component", "scheduler").Str("id", sig.ID).Err(err).Msg("deliver signal")
		}
	}
}

const helpText = "Available commands:\n/start - start scanning\n/stop - stop scanning\n/status - bot status\n/signals - recent signals\n/scan - scan now"

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// Group chats append the bot name: /status@SignalSentinelBot.
	cmd, _, _ := strings.Cut(fields[0], "@")

	switch cmd {
	case "/start":
		st, err := s.Bot.Start()
		if errors.Is(err, botstate.ErrAlreadyRunning) {
			return "Already running.\n\n" + notifier.FormatStatus(st)
		}
		return "▶️ Scanning started.\n\n" + notifier.FormatStatus(st)
	case "/stop":
		st, err := s.Bot.Stop()
		if errors.Is(err, botstate.ErrNotRunning) {
			return "Already stopped."
		}
		return "⏹ Scanning stopped.\n\n" + notifier.FormatStatus(st)
	case "/status":
		return notifier.FormatStatus(s.Bot.GetState())
	case "/signals":
		sigs, err := s.Recorder.RecentSignals("", 10)
		if err != nil {
			return fmt.Sprintf("❌ Failed to load signals: %v", err)
		}
		return notifier.FormatSignalList(sigs)
	case "/scan":
		report, err := s.Tick(ctx)
		if err != nil {
			return fmt.Sprintf("❌ Scan failed: %v", err)
		}
		return fmt.Sprintf("Scan complete: %d evaluated, %d signals, %d failures.",
			report.Evaluated, len(report.Signals), report.Failures)
	default:
		return helpText
	}
}
