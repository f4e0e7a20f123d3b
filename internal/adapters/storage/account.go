package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/xauscalp/internal/domain"
)

// execer lo cumplen *sql.DB y *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// LoadAccount devuelve la cuenta persistida, o found=false si aún no hay ninguna.
func (s *SQLiteStorage) LoadAccount(ctx context.Context) (domain.AccountState, bool, error) {
	var (
		a   domain.AccountState
		day string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT balance, daily_loss, trades_today, day
		FROM account_state WHERE id = 1`).Scan(&a.Balance, &a.DailyLoss, &a.TradesToday, &day)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AccountState{}, false, nil
	}
	if err != nil {
		return domain.AccountState{}, false, fmt.Errorf("storage.LoadAccount: %w", err)
	}
	if a.Day, err = parseTime(day); err != nil {
		return domain.AccountState{}, false, fmt.Errorf("storage.LoadAccount: day: %w", err)
	}
	return a, true, nil
}

// SaveAccount hace upsert de la única fila de cuenta.
func (s *SQLiteStorage) SaveAccount(ctx context.Context, a domain.AccountState) error {
	if err := saveAccount(ctx, s.db, a, s.now()); err != nil {
		return fmt.Errorf("storage.SaveAccount: %w", err)
	}
	return nil
}

func saveAccount(ctx context.Context, ex execer, a domain.AccountState, now time.Time) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO account_state (id, balance, daily_loss, trades_today, day, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			balance      = excluded.balance,
			daily_loss   = excluded.daily_loss,
			trades_today = excluded.trades_today,
			day          = excluded.day,
			updated_at   = excluded.updated_at`,
		a.Balance, a.DailyLoss, a.TradesToday, formatTime(a.Day), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}
