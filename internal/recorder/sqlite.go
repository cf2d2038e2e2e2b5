package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"FuturesSentinel/internal/model"
)

// SQLiteRecorder persists results to a SQLite database. Writes are
// serialized; reads run concurrently under WAL.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("sqlite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_results (
			symbol        TEXT    NOT NULL,
			bar_time      INTEGER NOT NULL,
			run_id        TEXT    NOT NULL,
			price         REAL    NOT NULL,
			price_change  REAL,
			bars          INTEGER,
			sma_short     REAL,
			sma           REAL,
			ema           REAL,
			rsi           REAL,
			macd          REAL,
			macd_signal   REAL,
			macd_hist     REAL,
			bb_upper      REAL,
			bb_middle     REAL,
			bb_lower      REAL,
			trend         INTEGER NOT NULL CHECK (trend IN (1, 2, 3)),
			action        TEXT    NOT NULL,
			confidence    REAL    NOT NULL CHECK (confidence >= 0 AND confidence <= 1),
			entry_price   REAL,
			target_price  REAL,
			stop_loss     REAL,
			risk_level    TEXT,
			elapsed_ms    INTEGER,
			updated_at    INTEGER NOT NULL,
			PRIMARY KEY (symbol, bar_time)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_bar_time ON analysis_results(bar_time)`,

		`CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id      TEXT    PRIMARY KEY,
			as_of       INTEGER NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			total       INTEGER NOT NULL,
			ok          INTEGER NOT NULL,
			failed      INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON analysis_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS run_failures (
			run_id  TEXT NOT NULL,
			symbol  TEXT NOT NULL,
			kind    TEXT NOT NULL,
			message TEXT,
			PRIMARY KEY (run_id, symbol)
		)`,

		`CREATE TABLE IF NOT EXISTS bars (
			symbol     TEXT    NOT NULL,
			bar_time   INTEGER NOT NULL,
			open       REAL    NOT NULL,
			high       REAL    NOT NULL,
			low        REAL    NOT NULL,
			close      REAL    NOT NULL,
			volume     REAL    NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (symbol, bar_time)
		)`,

		`CREATE TABLE IF NOT EXISTS indicator_history (
			symbol      TEXT    NOT NULL,
			bar_time    INTEGER NOT NULL,
			close       REAL    NOT NULL,
			sma_short   REAL,
			sma         REAL,
			ema         REAL,
			rsi         REAL,
			macd        REAL,
			macd_signal REAL,
			macd_hist   REAL,
			bb_upper    REAL,
			bb_middle   REAL,
			bb_lower    REAL,
			PRIMARY KEY (symbol, bar_time)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// round4 stores prices and indicators with four decimal places.
func round4(v float64) float64 {
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}

func round4Ptr(p *float64) any {
	if p == nil {
		return nil
	}
	return round4(*p)
}

const upsertResult = `INSERT INTO analysis_results
	(symbol, bar_time, run_id, price, price_change, bars,
	 sma_short, sma, ema, rsi, macd, macd_signal, macd_hist,
	 bb_upper, bb_middle, bb_lower,
	 trend, action, confidence, entry_price, target_price, stop_loss,
	 risk_level, elapsed_ms, updated_at)
	VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	ON CONFLICT(symbol, bar_time) DO UPDATE SET
		run_id = excluded.run_id,
		price = excluded.price,
		price_change = excluded.price_change,
		bars = excluded.bars,
		sma_short = excluded.sma_short,
		sma = excluded.sma,
		ema = excluded.ema,
		rsi = excluded.rsi,
		macd = excluded.macd,
		macd_signal = excluded.macd_signal,
		macd_hist = excluded.macd_hist,
		bb_upper = excluded.bb_upper,
		bb_middle = excluded.bb_middle,
		bb_lower = excluded.bb_lower,
		trend = excluded.trend,
		action = excluded.action,
		confidence = excluded.confidence,
		entry_price = excluded.entry_price,
		target_price = excluded.target_price,
		stop_loss = excluded.stop_loss,
		risk_level = excluded.risk_level,
		elapsed_ms = excluded.elapsed_ms,
		updated_at = excluded.updated_at`

// SaveAnalysis implements Recorder. Saving the same (symbol, timestamp)
// twice leaves a single row holding the latest values.
func (r *SQLiteRecorder) SaveAnalysis(ctx context.Context, res *model.AnalysisResult) error {
	if res == nil {
		return errors.New("nil analysis result")
	}
	if !res.Trend.Valid() {
		return fmt.Errorf("invalid trend %d", int(res.Trend))
	}
	row := RowFromResult(res)

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, upsertResult,
		row.Symbol, row.BarTime.Unix(), row.RunID, round4(row.Price), round4(row.PriceChange), row.Bars,
		round4Ptr(row.SMAShort), round4Ptr(row.SMA), round4Ptr(row.EMA), round4Ptr(row.RSI),
		round4Ptr(row.MACD), round4Ptr(row.MACDSignal), round4Ptr(row.MACDHist),
		round4Ptr(row.BBUpper), round4Ptr(row.BBMiddle), round4Ptr(row.BBLower),
		int(row.Trend), string(row.Action), row.Confidence,
		round4(row.Entry), round4(row.Target), round4(row.StopLoss),
		string(row.Risk), row.ElapsedMS, r.now().Unix(),
	)
	return err
}

// RecordRun implements Recorder. Re-recording a run replaces it.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, batch *model.BatchResult) error {
	if batch == nil {
		return errors.New("nil batch")
	}
	failures := batch.Failures()

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO analysis_runs
		(run_id, as_of, started_at, finished_at, total, ok, failed)
		VALUES (?,?,?,?,?,?,?)`,
		batch.RunID, batch.AsOf.Unix(), batch.StartedAt.Unix(), batch.FinishedAt.Unix(),
		len(batch.Entries), len(batch.Entries)-len(failures), len(failures),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_failures WHERE run_id = ?`, batch.RunID); err != nil {
		return fmt.Errorf("clear failures: %w", err)
	}
	for _, f := range failures {
		if _, err := tx.ExecContext(ctx, `INSERT INTO run_failures (run_id, symbol, kind, message) VALUES (?,?,?,?)`,
			batch.RunID, f.Symbol, string(f.Kind), f.Message); err != nil {
			return fmt.Errorf("insert failure %s: %w", f.Symbol, err)
		}
	}
	return tx.Commit()
}

const selectResult = `SELECT symbol, bar_time, run_id, price, price_change, bars,
	sma_short, sma, ema, rsi, macd, macd_signal, macd_hist,
	bb_upper, bb_middle, bb_lower,
	trend, action, confidence, entry_price, target_price, stop_loss,
	risk_level, elapsed_ms, updated_at
	FROM analysis_results`

// LatestResults implements Recorder.
func (r *SQLiteRecorder) LatestResults(ctx context.Context, limit int) ([]AnalysisRow, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.queryRows(ctx, selectResult+` a
		WHERE bar_time = (SELECT MAX(bar_time) FROM analysis_results b WHERE b.symbol = a.symbol)
		ORDER BY symbol LIMIT ?`, limit)
}

// History implements Recorder.
func (r *SQLiteRecorder) History(ctx context.Context, symbol string, limit int) ([]AnalysisRow, error) {
	if limit <= 0 {
		limit = 30
	}
	return r.queryRows(ctx, selectResult+` WHERE symbol = ? ORDER BY bar_time DESC LIMIT ?`, symbol, limit)
}

func (r *SQLiteRecorder) queryRows(ctx context.Context, query string, args ...any) ([]AnalysisRow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AnalysisRow
	for rows.Next() {
		var (
			row                 AnalysisRow
			barTime, updatedAt  int64
			trend               int
			action, risk        string
			priceChange         sql.NullFloat64
			bars, elapsed       sql.NullInt64
			entry, target, stop sql.NullFloat64
		)
		if err := rows.Scan(&row.Symbol, &barTime, &row.RunID, &row.Price, &priceChange, &bars,
			&row.SMAShort, &row.SMA, &row.EMA, &row.RSI, &row.MACD, &row.MACDSignal, &row.MACDHist,
			&row.BBUpper, &row.BBMiddle, &row.BBLower,
			&trend, &action, &row.Confidence, &entry, &target, &stop,
			&risk, &elapsed, &updatedAt); err != nil {
			return nil, err
		}
		row.BarTime = time.Unix(barTime, 0).UTC()
		row.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		row.PriceChange = priceChange.Float64
		row.Bars = int(bars.Int64)
		row.Trend = model.TrendType(trend)
		row.Action = model.Action(action)
		row.Risk = model.RiskLevel(risk)
		row.Entry, row.Target, row.StopLoss = entry.Float64, target.Float64, stop.Float64
		row.ElapsedMS = elapsed.Int64
		out = append(out, row)
	}
	return out, rows.Err()
}

// LastRun implements Recorder.
func (r *SQLiteRecorder) LastRun(ctx context.Context) (*RunRecord, error) {
	var (
		rec                     RunRecord
		asOf, started, finished int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT run_id, as_of, started_at, finished_at, total, ok, failed
		FROM analysis_runs ORDER BY started_at DESC, run_id DESC LIMIT 1`).
		Scan(&rec.RunID, &asOf, &started, &finished, &rec.Total, &rec.OK, &rec.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.AsOf = time.Unix(asOf, 0).UTC()
	rec.StartedAt = time.Unix(started, 0).UTC()
	rec.FinishedAt = time.Unix(finished, 0).UTC()

	rows, err := r.db.QueryContext(ctx, `SELECT symbol, kind, message FROM run_failures WHERE run_id = ? ORDER BY symbol`, rec.RunID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var f model.SymbolError
		var kind string
		var msg sql.NullString
		if err := rows.Scan(&f.Symbol, &kind, &msg); err != nil {
			return nil, err
		}
		f.Kind = model.ErrorKind(kind)
		f.Message = msg.String
		rec.Failures = append(rec.Failures, f)
	}
	return &rec, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	slog.Info("closing sqlite recorder")
	return r.db.Close()
}
