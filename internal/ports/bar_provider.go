package ports

import (
	"context"

	"github.com/alejandrodnm/xauscalp/internal/domain"
)

// BarProvider obtiene velas OHLCV normalizadas de una fuente de mercado.
type BarProvider interface {
	// Name identifica al proveedor en logs y métricas.
	Name() string

	// FetchBars devuelve hasta limit velas recientes de tf, de la más
	// antigua a la última, con timestamps UTC.
	FetchBars(ctx context.Context, tf domain.Timeframe, limit int) ([]domain.Bar, error)
}
