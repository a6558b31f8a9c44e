package recorder

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"SwingScreener/internal/model"
)

// PoolConfig sizes the Postgres connection pool.
type PoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:          5,
		MinConns:          1,
		MaxConnLifetime:   30 * time.Minute,
		MaxConnIdleTime:   5 * time.Minute,
		HealthCheckPeriod: 30 * time.Second,
	}
}

// PostgresRecorder persists scan history to Postgres.
type PostgresRecorder struct {
	pool *pgxpool.Pool
	log  *logrus.Entry
}

// withDefaultSSLMode sets sslmode=prefer on URL-style DSNs that do not name one.
func withDefaultSSLMode(dsn string) string {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return dsn
	}
	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "prefer")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// NewPostgresRecorder connects, pings and migrates.
func NewPostgresRecorder(ctx context.Context, dsn string, cfg PoolConfig, log *logrus.Entry) (*PostgresRecorder, error) {
	poolCfg, err := pgxpool.ParseConfig(withDefaultSSLMode(dsn))
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &PostgresRecorder{pool: pool, log: log.WithField("component", "recorder")}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	r.log.Info("postgres recorder opened")
	return r, nil
}

func (r *PostgresRecorder) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id          BIGSERIAL PRIMARY KEY,
			started_at  TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			requested   INTEGER,
			scored      INTEGER,
			failed      INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS stock_scores (
			id              BIGSERIAL PRIMARY KEY,
			run_id          BIGINT NOT NULL REFERENCES scan_runs(id),
			symbol          TEXT NOT NULL,
			bar_date        DATE NOT NULL,
			price           DOUBLE PRECISION,
			volume          DOUBLE PRECISION,
			volume_ratio    DOUBLE PRECISION,
			rsi             DOUBLE PRECISION,
			macd            DOUBLE PRECISION,
			macd_signal     DOUBLE PRECISION,
			ema_20          DOUBLE PRECISION,
			ema_50          DOUBLE PRECISION,
			adx             DOUBLE PRECISION,
			oi_pattern      TEXT,
			score_volume    DOUBLE PRECISION,
			score_macd      DOUBLE PRECISION,
			score_rsi       DOUBLE PRECISION,
			score_ema_trend DOUBLE PRECISION,
			score_adx       DOUBLE PRECISION,
			score_oi        DOUBLE PRECISION,
			total_score     DOUBLE PRECISION NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stock_scores_symbol ON stock_scores(symbol, bar_date)`,
	}
	for _, s := range stmts {
		if _, err := r.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *PostgresRecorder) RecordScan(ctx context.Context, summary *model.ScanSummary) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var runID int64
	err = tx.QueryRow(ctx, `INSERT INTO scan_runs (started_at, finished_at, requested, scored, failed)
		VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		summary.StartedAt, summary.FinishedAt, summary.Requested, summary.Scored, len(summary.Failures),
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("insert scan run: %w", err)
	}

	batch := &pgx.Batch{}
	for i := range summary.Results {
		sr := &summary.Results[i]
		args := []any{
			runID, sr.Symbol, sr.Date, sr.Price, sr.Volume,
			sr.VolumeRatio, sr.RSI, sr.MACD, sr.MACDSignal, sr.EMA20, sr.EMA50, sr.ADX,
			string(sr.OIPattern),
		}
		args = append(args, factorValues(&sr.Scores)...)
		args = append(args, sr.TotalScore)
		batch.Queue(`INSERT INTO stock_scores
			(run_id, symbol, bar_date, price, volume, volume_ratio, rsi, macd, macd_signal,
			 ema_20, ema_50, adx, oi_pattern,
			 score_volume, score_macd, score_rsi, score_ema_trend, score_adx, score_oi,
			 total_score)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`, args...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("insert stock scores: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

func (r *PostgresRecorder) History(ctx context.Context, symbol string, limit int) ([]ScoreRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT run_id, symbol, bar_date, price, COALESCE(oi_pattern, ''), total_score
		FROM stock_scores WHERE symbol = $1 ORDER BY bar_date DESC, id DESC LIMIT $2`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []ScoreRecord
	for rows.Next() {
		var rec ScoreRecord
		var oi string
		if err := rows.Scan(&rec.RunID, &rec.Symbol, &rec.Date, &rec.Price, &oi, &rec.TotalScore); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		rec.OIPattern = model.OIPattern(oi)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresRecorder) Close() error {
	r.log.Info("closing postgres recorder")
	r.pool.Close()
	return nil
}
