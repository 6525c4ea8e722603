package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"SignalSentinel/internal/api"
	"SignalSentinel/internal/botstate"
	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/config"
	"SignalSentinel/internal/engine"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/scheduler"
)

func setupLogging(level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func buildFetchers(cfg *config.Config) map[model.MarketKind]collector.Fetcher {
	if cfg.Feeds.Mock {
		return map[model.MarketKind]collector.Fetcher{
			model.MarketCrypto: &collector.MockFetcher{Price: 65000},
			model.MarketForex:  &collector.MockFetcher{Price: 1.085},
		}
	}

	var forex collector.Fetcher
	if cfg.Feeds.Forex.Provider == "rest" {
		forex = collector.NewRESTFetcher(cfg.Feeds.Forex.BaseURL, cfg.Feeds.Forex.APIKey, cfg.Proxy)
	} else {
		forex = collector.NewYahooFetcher(cfg.Proxy)
	}
	return map[model.MarketKind]collector.Fetcher{
		model.MarketCrypto: collector.NewBinanceFetcher(cfg.Feeds.Crypto.BaseURL, cfg.Proxy),
		model.MarketForex:  forex,
	}
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("load .env")
	}

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogging(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("config", cfgPath).Msg("SignalSentinel starting")

	settings := cfg.EngineSettings()
	if err := settings.Weights.Validate(); err != nil {
		log.Fatal().Err(err).Msg("engine weights")
	}

	// Feeds
	collectors := make(map[model.MarketKind]*collector.Collector)
	for kind, f := range buildFetchers(cfg) {
		fetcher := collector.Fetcher(collector.WithRetry(f, cfg.Feeds.MaxRetries, cfg.Feeds.Timeout))
		collectors[kind] = collector.NewCollector(fetcher, cfg.Feeds.HistoryBars)
		log.Info().Str("market", string(kind)).Str("feed", fetcher.Name()).Msg("feed configured")
	}

	// Bot control state
	bot, err := botstate.NewManager(cfg.Bot.StateFile, cfg.Bot.BotSettings)
	if err != nil {
		log.Fatal().Err(err).Msg("init bot state")
	}
	if cfg.Bot.AutoStart && !bot.Running() {
		if _, err := bot.Start(); err != nil {
			log.Warn().Err(err).Msg("auto start")
		}
	}

	// Recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Sinks
	hub := api.NewHub()
	go hub.Run(ctx)
	sinks := []scheduler.SignalSink{hub}

	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sinks = append(sinks, tn)
	} else {
		log.Info().Msg("telegram not configured, chat delivery disabled")
	}

	seed := uint64(time.Now().UnixNano())
	factory := func(kind model.MarketKind, timeframe string) *engine.Engine {
		return engine.New(settings,
			engine.WithRand(rand.New(rand.NewPCG(seed, uint64(len(timeframe))))),
			engine.WithLogger(log.Logger.With().Str("market", string(kind)).Str("tf", timeframe).Logger()),
		)
	}

	sched := scheduler.NewScheduler(ctx, collectors, bot, rec, factory, sinks...)
	if err := sched.Register(cfg.Schedule.TickCron); err != nil {
		log.Fatal().Err(err).Msg("register cron task")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, scanning now")
		go func() {
			if _, err := sched.Tick(ctx); err != nil {
				log.Error().Err(err).Msg("initial scan")
			}
		}()
	}

	srv := &api.Server{Bot: bot, Recorder: rec, Scanner: sched, Hub: hub}
	httpSrv := api.NewHTTPServer(cfg.API.Addr, srv.Routes())
	go func() {
		log.Info().Str("addr", cfg.API.Addr).Msg("api listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("api server")
			cancel()
		}
	}()

	log.Info().Bool("running", bot.Running()).Msg("SignalSentinel is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info().Msg("shutdown signal received, stopping")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("api shutdown")
	}
	cancel()
	log.Info().Msg("SignalSentinel stopped")
}
