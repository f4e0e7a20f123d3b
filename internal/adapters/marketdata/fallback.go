package marketdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/xauscalp/internal/domain"
	"github.com/alejandrodnm/xauscalp/internal/metrics"
	"github.com/alejandrodnm/xauscalp/internal/ports"
)

// ErrNoData se devuelve cuando ningún proveedor trae velas.
var ErrNoData = errors.New("marketdata: no provider returned bars")

// Fallback prueba los proveedores en orden de prioridad y devuelve
// el primer resultado no vacío.
type Fallback struct {
	providers []ports.BarProvider
	metrics   *metrics.Metrics
}

// NewFallback crea la cadena. m puede ser nil.
func NewFallback(m *metrics.Metrics, providers ...ports.BarProvider) *Fallback {
	return &Fallback{providers: providers, metrics: m}
}

// Name implementa ports.BarProvider.
func (f *Fallback) Name() string { return "fallback" }

// FetchBars implementa ports.BarProvider.
func (f *Fallback) FetchBars(ctx context.Context, tf domain.Timeframe, limit int) ([]domain.Bar, error) {
	var errs []error
	for _, p := range f.providers {
		bars, err := p.FetchBars(ctx, tf, limit)
		if err == nil && len(bars) > 0 {
			f.checkBars(p.Name(), tf, bars)
			return bars, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("marketdata.Fallback.FetchBars: %w", ctx.Err())
		}
		if err == nil {
			err = fmt.Errorf("%s: empty response", p.Name())
		}
		f.metrics.ObserveFetchError(p.Name())
		slog.Warn("marketdata: provider failed", "provider", p.Name(), "timeframe", tf, "err", err)
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("marketdata.Fallback.FetchBars: %w", errors.Join(append([]error{ErrNoData}, errs...)...))
}

// checkBars cuenta las velas malformadas. No se descartan: los indicadores
// tratan esas posiciones como indefinidas.
func (f *Fallback) checkBars(provider string, tf domain.Timeframe, bars []domain.Bar) {
	bad := 0
	for _, b := range bars {
		if !b.Valid() {
			bad++
		}
	}
	if bad == 0 {
		return
	}
	f.metrics.ObserveMalformedBars(provider, bad)
	slog.Warn("marketdata: malformed bars", "provider", provider, "timeframe", tf, "count", bad)
}
