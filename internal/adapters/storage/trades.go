package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/xauscalp/internal/domain"
)

const tradeColumns = `
	id, signal_id, instrument, direction, entry_price, stop_loss, take_profit,
	status, confidence, exit_price, signal_time, entry_time, exit_time,
	pips, pnl, created_at`

// Create inserta un trade OPEN nuevo.
func (s *SQLiteStorage) Create(ctx context.Context, t domain.Trade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (`+tradeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.SignalID, t.Instrument, string(t.Direction),
		t.Entry, t.StopLoss, t.TakeProfit,
		string(t.Status), t.Confidence, nullFloat(t.ExitPrice),
		formatTime(t.SignalTime), formatTime(t.EntryTime), nullTime(t.ExitTime),
		nullFloat(t.Pips), nullFloat(t.PnL), formatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("storage.Create: insert trade %s: %w", t.ID, err)
	}
	return nil
}

// Update escribe estado y campos de salida. Niveles y entrada no se tocan.
func (s *SQLiteStorage) Update(ctx context.Context, t domain.Trade) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE trades SET status=?, exit_price=?, exit_time=?, pips=?, pnl=?
		WHERE id=?`,
		string(t.Status), nullFloat(t.ExitPrice), nullTime(t.ExitTime),
		nullFloat(t.Pips), nullFloat(t.PnL), t.ID,
	)
	if err != nil {
		return fmt.Errorf("storage.Update: trade %s: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage.Update: trade %s: %w", t.ID, ErrNotFound)
	}
	return nil
}

// CloseTrade cierra un trade OPEN y guarda la cuenta en la misma
// transacción. La guarda sobre OPEN hace que un segundo cierre no haga nada
// y devuelva domain.ErrTradeNotOpen.
func (s *SQLiteStorage) CloseTrade(ctx context.Context, t domain.Trade, account domain.AccountState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.CloseTrade: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE trades SET status=?, exit_price=?, exit_time=?, pips=?, pnl=?
		WHERE id=? AND status='OPEN'`,
		string(t.Status), nullFloat(t.ExitPrice), nullTime(t.ExitTime),
		nullFloat(t.Pips), nullFloat(t.PnL), t.ID,
	)
	if err != nil {
		return fmt.Errorf("storage.CloseTrade: update trade %s: %w", t.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage.CloseTrade: rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrTradeNotOpen
	}

	if err := saveAccount(ctx, tx, account, s.now()); err != nil {
		return fmt.Errorf("storage.CloseTrade: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.CloseTrade: commit: %w", err)
	}
	return nil
}

// GetTrade carga un trade por id.
func (s *SQLiteStorage) GetTrade(ctx context.Context, id string) (domain.Trade, error) {
	trades, err := s.queryTrades(ctx, `WHERE id = ?`, id)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("storage.GetTrade: %w", err)
	}
	if len(trades) == 0 {
		return domain.Trade{}, fmt.Errorf("storage.GetTrade: %s: %w", id, ErrNotFound)
	}
	return trades[0], nil
}

// ListOpenTrades devuelve los trades OPEN, del más antiguo al último.
func (s *SQLiteStorage) ListOpenTrades(ctx context.Context) ([]domain.Trade, error) {
	trades, err := s.queryTrades(ctx, `WHERE status = 'OPEN' ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListOpenTrades: %w", err)
	}
	return trades, nil
}

// ListClosedTrades devuelve los trades realizados ordenados por salida.
func (s *SQLiteStorage) ListClosedTrades(ctx context.Context) ([]domain.Trade, error) {
	trades, err := s.queryTrades(ctx,
		`WHERE status IN ('CLOSED_WIN', 'CLOSED_LOSE') ORDER BY exit_time, id`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListClosedTrades: %w", err)
	}
	return trades, nil
}

// CountOpenTrades cuenta los trades OPEN.
func (s *SQLiteStorage) CountOpenTrades(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trades WHERE status = 'OPEN'`).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage.CountOpenTrades: %w", err)
	}
	return n, nil
}

// CountTradesSince cuenta los trades creados desde since inclusive, en cualquier estado.
func (s *SQLiteStorage) CountTradesSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trades WHERE created_at >= ?`, formatTime(since)).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage.CountTradesSince: %w", err)
	}
	return n, nil
}

// SumLossSince suma el valor absoluto de las pérdidas realizadas desde since inclusive.
func (s *SQLiteStorage) SumLossSince(ctx context.Context, since time.Time) (float64, error) {
	var sum float64
	if err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(-pnl), 0) FROM trades
		WHERE pnl < 0 AND exit_time IS NOT NULL AND exit_time >= ?`,
		formatTime(since)).Scan(&sum); err != nil {
		return 0, fmt.Errorf("storage.SumLossSince: %w", err)
	}
	return domain.RoundCents(sum), nil
}

// GetTradeStats agrega todos los trades, los realizados en orden de salida.
func (s *SQLiteStorage) GetTradeStats(ctx context.Context) (domain.TradeStats, error) {
	trades, err := s.queryTrades(ctx, `ORDER BY COALESCE(exit_time, created_at), id`)
	if err != nil {
		return domain.TradeStats{}, fmt.Errorf("storage.GetTradeStats: %w", err)
	}
	return domain.ComputeStats(trades), nil
}

// queryTrades lee filas de trades filtradas por la cláusula dada.
func (s *SQLiteStorage) queryTrades(ctx context.Context, clause string, args ...any) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+tradeColumns+` FROM trades `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTrade(rows *sql.Rows) (domain.Trade, error) {
	var (
		t                              domain.Trade
		direction, status              string
		signalTime, entryTime, created string
		exitTime                       sql.NullString
		exitPrice, pips, pnl           sql.NullFloat64
	)
	if err := rows.Scan(
		&t.ID, &t.SignalID, &t.Instrument, &direction,
		&t.Entry, &t.StopLoss, &t.TakeProfit,
		&status, &t.Confidence, &exitPrice,
		&signalTime, &entryTime, &exitTime,
		&pips, &pnl, &created,
	); err != nil {
		return t, fmt.Errorf("scan trade: %w", err)
	}

	t.Direction = domain.Direction(direction)
	t.Status = domain.TradeStatus(status)

	var err error
	if t.SignalTime, err = parseTime(signalTime); err != nil {
		return t, fmt.Errorf("scan trade %s: signal_time: %w", t.ID, err)
	}
	if t.EntryTime, err = parseTime(entryTime); err != nil {
		return t, fmt.Errorf("scan trade %s: entry_time: %w", t.ID, err)
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return t, fmt.Errorf("scan trade %s: created_at: %w", t.ID, err)
	}
	if exitTime.Valid {
		at, err := parseTime(exitTime.String)
		if err != nil {
			return t, fmt.Errorf("scan trade %s: exit_time: %w", t.ID, err)
		}
		t.ExitTime = &at
	}
	if exitPrice.Valid {
		t.ExitPrice = &exitPrice.Float64
	}
	if pips.Valid {
		t.Pips = &pips.Float64
	}
	if pnl.Valid {
		t.PnL = &pnl.Float64
	}
	return t, nil
}

