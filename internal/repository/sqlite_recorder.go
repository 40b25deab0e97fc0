package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"ContraTrack/internal/domain/models"
	applogger "ContraTrack/pkg/logger"
	"ContraTrack/pkg/util"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder keeps the history of analysis runs in a SQLite file.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
	l  *applogger.Logger
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string, l *applogger.Logger) (*SQLiteRecorder, error) {
	if l == nil {
		l = applogger.Nop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, l: l}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	l.Info("sqlite recorder opened", applogger.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id            TEXT PRIMARY KEY,
			symbol            TEXT NOT NULL,
			rule              TEXT NOT NULL,
			lookup            TEXT NOT NULL,
			buy_1m_mean       TEXT,
			sell_1m_mean      TEXT,
			inverse_effective INTEGER NOT NULL,
			rule_verdict      INTEGER NOT NULL,
			buy_count         INTEGER NOT NULL,
			sell_count        INTEGER NOT NULL,
			computed_at       INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_ts ON analysis_runs(symbol, computed_at)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores a run. Re-recording a run id overwrites it.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, run models.AnalysisRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO analysis_runs (
			run_id, symbol, rule, lookup, buy_1m_mean, sell_1m_mean,
			inverse_effective, rule_verdict, buy_count, sell_count, computed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		util.NormalizeSymbol(run.Symbol),
		string(run.Rule),
		string(run.Lookup),
		run.BuyMonthMean,
		run.SellMonthMean,
		run.InverseEffective,
		run.RuleVerdict,
		run.BuyCount,
		run.SellCount,
		run.ComputedAt.UnixMilli(),
	)
	if err != nil {
		r.l.Error("sqlite record run error",
			applogger.String("table", "analysis_runs"),
			applogger.String("symbol", run.Symbol),
			applogger.Error(err),
		)
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs for symbol, newest first.
func (r *SQLiteRecorder) ListRuns(ctx context.Context, symbol string, limit int) ([]models.AnalysisRun, error) {
	if limit <= 0 {
		limit = 20
	}
	symbol = util.NormalizeSymbol(symbol)
	rows, err := r.db.QueryContext(ctx, `
		SELECT run_id, symbol, rule, lookup, buy_1m_mean, sell_1m_mean,
		       inverse_effective, rule_verdict, buy_count, sell_count, computed_at
		FROM analysis_runs
		WHERE symbol = ?
		ORDER BY computed_at DESC, run_id DESC
		LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]models.AnalysisRun, 0, limit)
	for rows.Next() {
		var (
			run        models.AnalysisRun
			rule, look string
			ts         int64
		)
		if err := rows.Scan(&run.RunID, &run.Symbol, &rule, &look, &run.BuyMonthMean, &run.SellMonthMean,
			&run.InverseEffective, &run.RuleVerdict, &run.BuyCount, &run.SellCount, &ts); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Rule = models.VerdictRule(rule)
		run.Lookup = models.LookupMode(look)
		run.ComputedAt = time.UnixMilli(ts).UTC()
		out = append(out, run)
	}
	return out, rows.Err()
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
