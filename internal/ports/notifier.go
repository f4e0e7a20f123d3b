package ports

import (
	"context"

	"github.com/alejandrodnm/xauscalp/internal/domain"
)

// Notifier presenta señales y cierres de trades al usuario.
// Cada implementación decide formato y entrega; quien llama no reintenta.
type Notifier interface {
	NotifySignal(ctx context.Context, sig domain.Signal) error
	NotifyTradeClosed(ctx context.Context, trade domain.Trade) error
}
