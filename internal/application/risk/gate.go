// Package risk decide si el pipeline puede buscar señales nuevas.
package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/xauscalp/internal/domain"
	"github.com/alejandrodnm/xauscalp/internal/ports"
)

// ReasonOK es el motivo cuando el gate está abierto.
const ReasonOK = "OK"

// Config contiene los límites de admisión.
type Config struct {
	MaxTradesPerDay  int
	DailyLossPercent float64 // sobre InitialBalance
	MaxConcurrent    int
	InitialBalance   float64
	EvaluationMode   bool // sin límite de trades diarios
}

// Gate aplica los límites diarios y de concurrencia. No guarda estado: cada
// llamada recalcula el día UTC desde el repositorio, así que el cambio de
// día ocurre a medianoche sin timer.
type Gate struct {
	repo ports.TradeRepository
	cfg  Config
	now  func() time.Time
}

// New crea un gate con el reloj del sistema.
func New(repo ports.TradeRepository, cfg Config) *Gate {
	return NewWithClock(repo, cfg, time.Now)
}

// NewWithClock crea un gate con un reloj explícito; el backtest lo mueve con
// la hora de las velas.
func NewWithClock(repo ports.TradeRepository, cfg Config, now func() time.Time) *Gate {
	return &Gate{repo: repo, cfg: cfg, now: now}
}

// MaxDailyLoss es la pérdida realizada que cierra el gate hasta el día siguiente.
func (g *Gate) MaxDailyLoss() float64 {
	return g.cfg.InitialBalance * g.cfg.DailyLossPercent / 100
}

// CanGenerateSignal indica si se puede generar una señal ahora. Un gate
// cerrado no es un error; err solo se devuelve si falla el repositorio.
func (g *Gate) CanGenerateSignal(ctx context.Context) (bool, string, error) {
	since := domain.StartOfDay(g.now())

	if !g.cfg.EvaluationMode {
		n, err := g.repo.CountTradesSince(ctx, since)
		if err != nil {
			return false, "", fmt.Errorf("risk.CanGenerateSignal: %w", err)
		}
		if n >= g.cfg.MaxTradesPerDay {
			return false, fmt.Sprintf("daily trade limit reached (%d/%d)", n, g.cfg.MaxTradesPerDay), nil
		}
	}

	loss, err := g.repo.SumLossSince(ctx, since)
	if err != nil {
		return false, "", fmt.Errorf("risk.CanGenerateSignal: %w", err)
	}
	if limit := g.MaxDailyLoss(); loss >= limit {
		return false, fmt.Sprintf("daily loss limit reached (%.2f/%.2f)", loss, limit), nil
	}

	open, err := g.repo.CountOpenTrades(ctx)
	if err != nil {
		return false, "", fmt.Errorf("risk.CanGenerateSignal: %w", err)
	}
	if open >= g.cfg.MaxConcurrent {
		return false, fmt.Sprintf("max concurrent trades reached (%d/%d)", open, g.cfg.MaxConcurrent), nil
	}

	return true, ReasonOK, nil
}

// TradesToday cuenta los trades abiertos desde medianoche UTC.
func (g *Gate) TradesToday(ctx context.Context) (int, error) {
	n, err := g.repo.CountTradesSince(ctx, domain.StartOfDay(g.now()))
	if err != nil {
		return 0, fmt.Errorf("risk.TradesToday: %w", err)
	}
	return n, nil
}
