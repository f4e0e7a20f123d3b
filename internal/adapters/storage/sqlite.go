package storage

// sqlite.go: persistencia de trades y cuenta virtual.
//
//   - `trades`: una fila por trade; nunca se borra (analítica posterior).
//   - `account_state`: una sola fila (id = 1) con balance y contadores diarios.
//   - Los timestamps se guardan como texto UTC de ancho fijo para que las
//     comparaciones "desde medianoche" funcionen lexicográficamente.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound se devuelve cuando una búsqueda no encuentra filas.
var ErrNotFound = errors.New("storage: not found")

const schema = `
CREATE TABLE IF NOT EXISTS trades (
    id           TEXT PRIMARY KEY,
    signal_id    TEXT NOT NULL UNIQUE,
    instrument   TEXT NOT NULL,
    direction    TEXT NOT NULL,
    entry_price  REAL NOT NULL,
    stop_loss    REAL NOT NULL,
    take_profit  REAL NOT NULL,
    status       TEXT NOT NULL DEFAULT 'OPEN',
    confidence   REAL NOT NULL DEFAULT 0,
    exit_price   REAL,
    signal_time  TEXT NOT NULL,
    entry_time   TEXT NOT NULL,
    exit_time    TEXT,
    pips         REAL,
    pnl          REAL,
    created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_status  ON trades(status);
CREATE INDEX IF NOT EXISTS idx_trades_created ON trades(created_at);
CREATE INDEX IF NOT EXISTS idx_trades_exit    ON trades(exit_time);

CREATE TABLE IF NOT EXISTS account_state (
    id           INTEGER PRIMARY KEY CHECK (id = 1),
    balance      REAL    NOT NULL,
    daily_loss   REAL    NOT NULL DEFAULT 0,
    trades_today INTEGER NOT NULL DEFAULT 0,
    day          TEXT    NOT NULL,
    updated_at   TEXT    NOT NULL
);
`

// timeLayout es de ancho fijo para que los instantes se ordenen como texto.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	return &SQLiteStorage{db: db, now: time.Now}, nil
}

// Ping comprueba la conexión a la base de datos.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func nullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return formatTime(*t)
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
