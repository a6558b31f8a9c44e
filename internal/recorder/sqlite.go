package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"SwingScreener/internal/model"
)

// SQLiteRecorder persists scan history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logrus.Entry
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *logrus.Entry) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while a scan is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.WithField("component", "recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			requested   INTEGER,
			scored      INTEGER,
			failed      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_runs_started ON scan_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS stock_scores (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id          INTEGER NOT NULL REFERENCES scan_runs(id),
			symbol          TEXT NOT NULL,
			bar_date        INTEGER NOT NULL,
			price           REAL,
			volume          REAL,
			volume_ratio    REAL,
			rsi             REAL,
			macd            REAL,
			macd_signal     REAL,
			ema_20          REAL,
			ema_50          REAL,
			adx             REAL,
			oi_pattern      TEXT,
			score_volume    REAL,
			score_macd      REAL,
			score_rsi       REAL,
			score_ema_trend REAL,
			score_adx       REAL,
			score_oi        REAL,
			total_score     REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stock_scores_symbol ON stock_scores(symbol, bar_date)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordScan(ctx context.Context, summary *model.ScanSummary) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO scan_runs
		(started_at, finished_at, requested, scored, failed)
		VALUES (?,?,?,?,?)`,
		summary.StartedAt.Unix(), summary.FinishedAt.Unix(),
		summary.Requested, summary.Scored, len(summary.Failures),
	)
	if err != nil {
		return 0, fmt.Errorf("insert scan run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("scan run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO stock_scores
		(run_id, symbol, bar_date, price, volume, volume_ratio, rsi, macd, macd_signal,
		 ema_20, ema_50, adx, oi_pattern,
		 score_volume, score_macd, score_rsi, score_ema_trend, score_adx, score_oi,
		 total_score)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare stock score: %w", err)
	}
	defer stmt.Close()

	for i := range summary.Results {
		sr := &summary.Results[i]
		args := []any{
			runID, sr.Symbol, sr.Date.Unix(), sr.Price, sr.Volume,
			sr.VolumeRatio, sr.RSI, sr.MACD, sr.MACDSignal, sr.EMA20, sr.EMA50, sr.ADX,
			string(sr.OIPattern),
		}
		args = append(args, factorValues(&sr.Scores)...)
		args = append(args, sr.TotalScore)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert %s: %w", sr.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

func (r *SQLiteRecorder) History(ctx context.Context, symbol string, limit int) ([]ScoreRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT run_id, symbol, bar_date, price, oi_pattern, total_score
		FROM stock_scores WHERE symbol = ? ORDER BY bar_date DESC, id DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []ScoreRecord
	for rows.Next() {
		var rec ScoreRecord
		var date int64
		var oi string
		if err := rows.Scan(&rec.RunID, &rec.Symbol, &date, &rec.Price, &oi, &rec.TotalScore); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		rec.Date = time.Unix(date, 0).UTC()
		rec.OIPattern = model.OIPattern(oi)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
