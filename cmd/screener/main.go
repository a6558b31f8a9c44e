package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"SwingScreener/internal/api"
	"SwingScreener/internal/collector"
	"SwingScreener/internal/config"
	"SwingScreener/internal/notifier"
	"SwingScreener/internal/recorder"
	"SwingScreener/internal/scheduler"
	"SwingScreener/internal/screener"
	"SwingScreener/internal/strategy"
)

func newLogger(level, format string) *logrus.Logger {
	logger := logrus.New()
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func openRecorder(ctx context.Context, cfg *config.Config, log *logrus.Entry) recorder.Recorder {
	if cfg.Database.PostgresDSN != "" {
		pr, err := recorder.NewPostgresRecorder(ctx, cfg.Database.PostgresDSN, recorder.DefaultPoolConfig(), log)
		if err == nil {
			return pr
		}
		log.WithError(err).Warn("init postgres recorder failed, falling back to sqlite")
	}
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err == nil {
			return sr
		}
		log.WithError(err).Warn("init sqlite recorder failed, using noop")
	}
	return recorder.NewNoopRecorder()
}

func main() {
	_ = godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("config validation: %v", err)
	}

	logger := newLogger(cfg.Log.Level, cfg.Log.Format)
	log := logrus.NewEntry(logger)
	log.Info("SwingScreener starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init fetchers
	var series collector.SeriesFetcher
	if cfg.DataSource.BaseURL != "" {
		series = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		series = collector.NewYahooFetcher(cfg.DataSource.SymbolSuffix, cfg.Proxy)
	}
	log.Infof("data source: %s", series.Name())

	nse := collector.NewNSEClient(cfg.NSE.BaseURL, cfg.NSE.OIDays, cfg.Proxy)
	var universe collector.UniverseFetcher = nse
	if len(cfg.Scan.Symbols) > 0 {
		universe = collector.StaticUniverse(cfg.Scan.Symbols)
		log.Infof("universe: %d configured symbols", len(cfg.Scan.Symbols))
	} else {
		log.Infof("universe: %s constituents", cfg.NSE.Index)
	}

	// Init collector and screener
	col := collector.NewCollector(series, nse, strategy.NewScorer(cfg.Scoring), log)
	col.Params = cfg.Indicators.Params()
	col.LookbackDays = cfg.DataSource.LookbackDays
	col.MaxRetries = cfg.DataSource.MaxRetries

	scr := screener.New(col, screener.Options{
		Workers:      cfg.Scan.Workers,
		BatchSize:    cfg.Scan.BatchSize,
		BatchPause:   cfg.Scan.BatchPause,
		RequestDelay: cfg.Scan.RequestDelay,
		TopN:         cfg.Scan.TopN,
	}, log)

	rec := openRecorder(ctx, cfg, log)

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, scheduler.Deps{
		Universe:      universe,
		Index:         cfg.NSE.Index,
		Collector:     col,
		Screener:      scr,
		Recorder:      rec,
		Notifier:      tn,
		FullScanLimit: cfg.Scan.FullScanLimit,
	}, log)
	if err := sched.Register(cfg.Schedule.ScanCron); err != nil {
		log.Fatalf("register cron tasks: %v", err)
	}
	sched.Start()

	// Start Telegram polling
	if tn.Enabled() {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("Telegram polling started")
	} else {
		log.Warn("Telegram not configured, reports are only logged")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, executing scan now")
		go func() {
			if _, err := sched.RunScanNow(ctx, 0); err != nil {
				log.WithError(err).Error("startup scan failed")
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.New(sched, log).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("HTTP server listening on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server failed")
			stop()
		}
	}()

	log.Info("SwingScreener is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	log.Info("shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sched.Stop()
	if err := errors.Join(srv.Shutdown(shutdownCtx), rec.Close()); err != nil {
		log.WithError(err).Error("shutdown")
	}
	log.Info("SwingScreener stopped")
}
