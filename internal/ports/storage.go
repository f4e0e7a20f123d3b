package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/xauscalp/internal/domain"
)

// TradeRepository persiste los paper trades. Cada escritura es su propia transacción.
type TradeRepository interface {
	// Create inserta un trade nuevo. El signal id debe ser único.
	Create(ctx context.Context, trade domain.Trade) error

	// Update sobreescribe estado y campos de salida de un trade existente.
	Update(ctx context.Context, trade domain.Trade) error

	// CloseTrade aplica el cierre del trade y el estado de cuenta resultante
	// de forma atómica. Devuelve domain.ErrTradeNotOpen si el trade guardado
	// ya no está OPEN, sin tocar nada.
	CloseTrade(ctx context.Context, trade domain.Trade, account domain.AccountState) error

	// GetTrade carga un trade por id.
	GetTrade(ctx context.Context, id string) (domain.Trade, error)

	ListOpenTrades(ctx context.Context) ([]domain.Trade, error)

	// ListClosedTrades devuelve los trades realizados ordenados por salida.
	ListClosedTrades(ctx context.Context) ([]domain.Trade, error)

	CountOpenTrades(ctx context.Context) (int, error)

	// CountTradesSince cuenta los trades creados desde since inclusive.
	CountTradesSince(ctx context.Context, since time.Time) (int, error)

	// SumLossSince devuelve la suma absoluta de pérdidas realizadas desde
	// since inclusive, como número no negativo.
	SumLossSince(ctx context.Context, since time.Time) (float64, error)

	// GetTradeStats agrega todos los trades guardados.
	GetTradeStats(ctx context.Context) (domain.TradeStats, error)
}

// AccountStore persiste la cuenta virtual entre ejecuciones.
type AccountStore interface {
	// LoadAccount devuelve la cuenta guardada, o found=false en una base nueva.
	LoadAccount(ctx context.Context) (account domain.AccountState, found bool, err error)
	SaveAccount(ctx context.Context, account domain.AccountState) error
}

// Storage es toda la persistencia respaldada por una sola base de datos.
type Storage interface {
	TradeRepository
	AccountStore

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
