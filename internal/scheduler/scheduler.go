package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"SwingScreener/internal/collector"
	"SwingScreener/internal/model"
	"SwingScreener/internal/notifier"
	"SwingScreener/internal/recorder"
	"SwingScreener/internal/screener"
)

// ErrScanRunning is returned when a scan is requested while another is in progress.
var ErrScanRunning = errors.New("a scan is already running")

// Notifier delivers reports to the user.
type Notifier interface {
	Enabled() bool
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Deps are the components a Scheduler drives.
type Deps struct {
	Universe      collector.UniverseFetcher
	Index         string
	Collector     screener.Collector
	Screener      *screener.Screener
	Recorder      recorder.Recorder
	Notifier      Notifier
	FullScanLimit int
}

// Scheduler manages the cron scan and on-demand requests.
type Scheduler struct {
	Cron *cron.Cron
	Ctx  context.Context
	deps Deps
	log  *logrus.Entry

	scanMu   sync.Mutex
	mu       sync.RWMutex
	last     *model.ScanSummary
	universe []string
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, deps Deps, log *logrus.Entry) *Scheduler {
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron: cron.New(cron.WithSeconds()),
		Ctx:  ctx,
		deps: deps,
		log:  log.WithField("component", "scheduler"),
	}
}

// Register adds the full-universe scan under scanCron.
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// Last returns the most recent completed scan, or nil.
func (s *Scheduler) Last() *model.ScanSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Scheduler) scanTask() {
	s.log.Info("running scheduled scan")
	if _, err := s.RunScanNow(s.Ctx, 0); err != nil {
		s.log.WithError(err).Error("scheduled scan failed")
		s.trySend(scanFailed(err))
	}
}

// symbols resolves the universe, falling back to the last good list when
// the constituent fetch fails.
func (s *Scheduler) symbols(ctx context.Context) ([]string, error) {
	list, err := s.deps.Universe.FetchConstituents(ctx, s.deps.Index)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if len(s.universe) > 0 {
			s.log.WithError(err).Warn("universe fetch failed, reusing previous list")
			return s.universe, nil
		}
		return nil, fmt.Errorf("fetch universe: %w", err)
	}
	s.universe = list
	return list, nil
}

// RunScanNow scans up to limit symbols of the universe (0 scans everything),
// records the run and sends the top picks. Overlapping scans are refused.
func (s *Scheduler) RunScanNow(ctx context.Context, limit int) (*model.ScanSummary, error) {
	if !s.scanMu.TryLock() {
		return nil, ErrScanRunning
	}
	defer s.scanMu.Unlock()

	universe, err := s.symbols(ctx)
	if err != nil {
		return nil, err
	}
	symbols := screener.SelectSymbols(universe, limit, s.deps.FullScanLimit)

	// Only a full-universe scan is paced in batches.
	run := s.deps.Screener.RunUnbatched
	if limit <= 0 || limit >= s.deps.FullScanLimit {
		run = s.deps.Screener.Run
	}
	summary, err := run(ctx, symbols)
	if err != nil {
		return summary, err
	}

	s.mu.Lock()
	s.last = summary
	s.mu.Unlock()

	if id, err := s.deps.Recorder.RecordScan(ctx, summary); err != nil {
		s.log.WithError(err).Error("record scan")
	} else {
		s.log.WithField("run_id", id).Debug("scan recorded")
	}

	s.trySend(notifier.FormatTopStocks(summary))
	return summary, nil
}

// ScoreSymbol scores a single symbol on demand.
func (s *Scheduler) ScoreSymbol(ctx context.Context, symbol string) (*model.StockResult, error) {
	return s.deps.Collector.Collect(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
}

// History returns recorded scores of symbol, newest first.
func (s *Scheduler) History(ctx context.Context, symbol string, limit int) ([]recorder.ScoreRecord, error) {
	return s.deps.Recorder.History(ctx, strings.ToUpper(strings.TrimSpace(symbol)), limit)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	switch strings.ToLower(fields[0]) {
	case "/top":
		last := s.Last()
		if last == nil {
			return "No scan has completed yet. Send /scan to start one."
		}
		return notifier.FormatTopStocks(last)
	case "/score":
		if len(fields) < 2 {
			return "Usage: /score SYMBOL"
		}
		r, err := s.ScoreSymbol(ctx, fields[1])
		if err != nil {
			return fmt.Sprintf("❌ Could not score %s: %s",
				html.EscapeString(strings.ToUpper(fields[1])), html.EscapeString(err.Error()))
		}
		return notifier.FormatStockDetail(r)
	case "/scan":
		go func() {
			if _, err := s.RunScanNow(s.Ctx, 0); err != nil {
				s.log.WithError(err).Error("manual scan failed")
				s.trySend(scanFailed(err))
			}
		}()
		return "⏳ Scan started."
	default:
		return notifier.FormatHelp()
	}
}

// scanFailed renders err for an HTML message; upstream errors may carry markup.
func scanFailed(err error) string {
	return "❌ Scan failed: " + html.EscapeString(err.Error())
}

func (s *Scheduler) trySend(text string) {
	if s.deps.Notifier == nil || !s.deps.Notifier.Enabled() {
		return
	}
	if err := s.deps.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.WithError(err).Error("send notification")
	}
}
