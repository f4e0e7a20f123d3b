package fusion

import (
	"math"

	"github.com/alejandrodnm/xauscalp/internal/domain"
)

// Levels calcula stop-loss y take-profit para una entrada.
//
//	stop distance = max(DefaultSLPips*PipSize, atr*SLATRMultiplier) [+ spread]
//	target distance = stop distance * TPRiskReward
//
// Precios y R/R resultante se redondean a 2 decimales. Con un atr no
// positivo o no finito solo cuenta el stop por defecto.
func (e *Engine) Levels(dir domain.Direction, entry, atr, spread float64) (sl, tp, rr float64) {
	return levels(e.cfg, dir, entry, atr, spread)
}

func levels(cfg Config, dir domain.Direction, entry, atr, spread float64) (sl, tp, rr float64) {
	if math.IsNaN(atr) || math.IsInf(atr, 0) || atr < 0 {
		atr = 0
	}
	slDist := math.Max(cfg.DefaultSLPips*cfg.PipSize, atr*cfg.SLATRMultiplier)
	if cfg.SLSpreadBuffer && spread > 0 {
		slDist += spread
	}
	tpDist := slDist * cfg.TPRiskReward

	if dir == domain.DirectionBuy {
		sl, tp = entry-slDist, entry+tpDist
	} else {
		sl, tp = entry+slDist, entry-tpDist
	}
	if slDist > 0 {
		rr = domain.Round(tpDist/slDist, 2)
	}
	return domain.RoundPrice(sl), domain.RoundPrice(tp), rr
}
