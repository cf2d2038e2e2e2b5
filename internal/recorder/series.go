package recorder

import (
	"context"
	"fmt"
	"slices"
	"time"

	"FuturesSentinel/internal/model"
)

const upsertBar = `INSERT INTO bars (symbol, bar_time, open, high, low, close, volume, updated_at)
	VALUES (?,?,?,?,?,?,?,?)
	ON CONFLICT(symbol, bar_time) DO UPDATE SET
		open = excluded.open,
		high = excluded.high,
		low = excluded.low,
		close = excluded.close,
		volume = excluded.volume,
		updated_at = excluded.updated_at`

const upsertIndicators = `INSERT INTO indicator_history
	(symbol, bar_time, close, sma_short, sma, ema, rsi, macd, macd_signal, macd_hist, bb_upper, bb_middle, bb_lower)
	VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
	ON CONFLICT(symbol, bar_time) DO UPDATE SET
		close = excluded.close,
		sma_short = excluded.sma_short,
		sma = excluded.sma,
		ema = excluded.ema,
		rsi = excluded.rsi,
		macd = excluded.macd,
		macd_signal = excluded.macd_signal,
		macd_hist = excluded.macd_hist,
		bb_upper = excluded.bb_upper,
		bb_middle = excluded.bb_middle,
		bb_lower = excluded.bb_lower`

// SaveSeries implements Recorder. Both tables are written in one transaction.
func (r *SQLiteRecorder) SaveSeries(ctx context.Context, symbol string, bars []model.Bar, sets []model.IndicatorSet) error {
	if len(sets) != 0 && len(sets) != len(bars) {
		return fmt.Errorf("%s: %d indicator sets for %d bars", symbol, len(sets), len(bars))
	}
	if len(bars) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	barStmt, err := tx.PrepareContext(ctx, upsertBar)
	if err != nil {
		return fmt.Errorf("prepare bars: %w", err)
	}
	defer barStmt.Close()

	now := r.now().Unix()
	for _, b := range bars {
		if _, err := barStmt.ExecContext(ctx, symbol, b.Time.Unix(),
			round4(b.Open), round4(b.High), round4(b.Low), round4(b.Close), b.Volume, now); err != nil {
			return fmt.Errorf("upsert bar %s: %w", b.Time.Format(time.DateOnly), err)
		}
	}

	if len(sets) > 0 {
		setStmt, err := tx.PrepareContext(ctx, upsertIndicators)
		if err != nil {
			return fmt.Errorf("prepare indicators: %w", err)
		}
		defer setStmt.Close()
		for _, s := range sets {
			if _, err := setStmt.ExecContext(ctx, symbol, s.Time.Unix(), round4(s.Close),
				round4Ptr(s.SMAShort.Ptr()), round4Ptr(s.SMA.Ptr()), round4Ptr(s.EMA.Ptr()), round4Ptr(s.RSI.Ptr()),
				round4Ptr(s.MACD.Value.Ptr()), round4Ptr(s.MACD.Signal.Ptr()), round4Ptr(s.MACD.Histogram.Ptr()),
				round4Ptr(s.Bollinger.Upper.Ptr()), round4Ptr(s.Bollinger.Middle.Ptr()), round4Ptr(s.Bollinger.Lower.Ptr()),
			); err != nil {
				return fmt.Errorf("upsert indicators %s: %w", s.Time.Format(time.DateOnly), err)
			}
		}
	}
	return tx.Commit()
}

// Bars implements Recorder.
func (r *SQLiteRecorder) Bars(ctx context.Context, symbol string, limit int) ([]model.Bar, error) {
	if limit <= 0 {
		limit = 120
	}
	rows, err := r.db.QueryContext(ctx, `SELECT bar_time, open, high, low, close, volume
		FROM bars WHERE symbol = ? ORDER BY bar_time DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Bar
	for rows.Next() {
		b := model.Bar{Symbol: symbol}
		var at int64
		if err := rows.Scan(&at, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.Time = time.Unix(at, 0).UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

// IndicatorHistory implements Recorder.
func (r *SQLiteRecorder) IndicatorHistory(ctx context.Context, symbol string, limit int) ([]model.IndicatorSet, error) {
	if limit <= 0 {
		limit = 120
	}
	rows, err := r.db.QueryContext(ctx, `SELECT bar_time, close, sma_short, sma, ema, rsi,
		macd, macd_signal, macd_hist, bb_upper, bb_middle, bb_lower
		FROM indicator_history WHERE symbol = ? ORDER BY bar_time DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.IndicatorSet
	for rows.Next() {
		var (
			s                    model.IndicatorSet
			at                   int64
			smaShort, sma, ema   *float64
			rsi                  *float64
			macd, signal, hist   *float64
			upper, middle, lower *float64
		)
		if err := rows.Scan(&at, &s.Close, &smaShort, &sma, &ema, &rsi,
			&macd, &signal, &hist, &upper, &middle, &lower); err != nil {
			return nil, err
		}
		s.Time = time.Unix(at, 0).UTC()
		s.SMAShort, s.SMA, s.EMA, s.RSI = model.FromPtr(smaShort), model.FromPtr(sma), model.FromPtr(ema), model.FromPtr(rsi)
		s.MACD = model.MACD{Value: model.FromPtr(macd), Signal: model.FromPtr(signal), Histogram: model.FromPtr(hist)}
		s.Bollinger = model.Bollinger{Upper: model.FromPtr(upper), Middle: model.FromPtr(middle), Lower: model.FromPtr(lower)}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}
