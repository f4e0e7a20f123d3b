// Package fusion convierte las lecturas de indicadores de una ventana de dos
// timeframes en como mucho una propuesta de trade por tick.
package fusion

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/xauscalp/internal/domain"
	"github.com/alejandrodnm/xauscalp/internal/indicator"
)

// Engine puntúa ventanas y emite señales. Guarda la hora de la última señal
// aceptada por dirección para el cooldown; un Engine por sesión.
type Engine struct {
	cfg   Config
	newID func() string

	mu         sync.Mutex
	lastSignal map[domain.Direction]mark
}

// mark es la última señal aceptada de una dirección y la anterior.
type mark struct {
	id      string
	at      time.Time
	prev    time.Time
	hasPrev bool
}

// New crea un engine de fusion. La config no se valida aquí: config.Load ya
// lo hace.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:        cfg,
		newID:      func() string { return uuid.New().String() },
		lastSignal: make(map[domain.Direction]mark, 2),
	}
}

// Config devuelve los parámetros del engine.
func (e *Engine) Config() Config {
	return e.cfg
}

// readings son los valores de indicadores que mira una evaluación.
type readings struct {
	alignment domain.Alignment
	rsi       indicator.Value
	prevRSI   indicator.Value
	stochK    indicator.Value
	stochD    indicator.Value
	atr       indicator.Value
	avgATR    indicator.Value
	volume    indicator.Value
	avgVolume indicator.Value
}

// GenerateSignal evalúa la ventana. Devuelve una señal, o nil y el motivo
// del rechazo. Los rechazos son resultados normales, no errores.
func (e *Engine) GenerateSignal(w domain.Window) (*domain.Signal, Rejection) {
	cfg := e.cfg

	if n := w.Fast.Len(); n < cfg.MinBars() {
		return nil, reject(ReasonInsufficientData, "%d fast bars, need %d", n, cfg.MinBars())
	}

	r := e.read(w)
	var scores domain.Scores

	// tendencia
	trendDir, hasTrend := r.alignment.Direction()
	if hasTrend {
		scores.Trend = cfg.Weights.Trend
	}

	// momentum
	var momentumDir domain.Direction
	rsi, rsiOK := r.rsi.Get()
	prev, prevOK := r.prevRSI.Get()
	switch {
	case indicator.IsOversold(r.rsi, cfg.RSIOversold):
		if rsiOK && prevOK && rsi > prev {
			momentumDir = domain.DirectionBuy
		}
	case indicator.IsOverbought(r.rsi, cfg.RSIOverbought):
		if rsiOK && prevOK && rsi < prev {
			momentumDir = domain.DirectionSell
		}
	}
	if momentumDir != "" {
		scores.Momentum = cfg.Weights.Momentum
	}

	// confirmación
	var confirmDir domain.Direction
	k, kOK := r.stochK.Get()
	d, dOK := r.stochD.Get()
	switch {
	case indicator.IsOversold(r.stochK, cfg.StochOversold):
		if kOK && dOK && k > d {
			confirmDir = domain.DirectionBuy
		}
	case indicator.IsOverbought(r.stochK, cfg.StochOverbought):
		if kOK && dOK && k < d {
			confirmDir = domain.DirectionSell
		}
	}
	if confirmDir != "" {
		scores.Confirmation = cfg.Weights.Confirmation
	}

	// volatilidad
	atr, atrOK := r.atr.Get()
	avgATR, avgOK := r.avgATR.Get()
	if atrOK && avgOK && atr < 2*avgATR {
		scores.Volatility = cfg.Weights.Volatility
	}

	// volumen: un volumen actual malformado no puntúa
	vol, volOK := r.volume.Get()
	avgVol, avgVolOK := r.avgVolume.Get()
	if volOK && avgVolOK && indicator.IsVolumeSpike(vol, avgVol, cfg.VolumeMultiplier) {
		scores.Volume = cfg.Weights.Volume
	}

	// acuerdo de dirección
	if !hasTrend {
		return nil, reject(ReasonNoTrend, "slow timeframe EMAs %s", r.alignment)
	}
	if momentumDir == "" {
		return nil, reject(ReasonNoMomentum, "rsi %s prev %s", r.rsi, r.prevRSI)
	}
	if momentumDir != trendDir {
		return nil, reject(ReasonDirectionConflict, "trend %s momentum %s", trendDir, momentumDir)
	}
	if confirmDir != "" && confirmDir != trendDir {
		return nil, reject(ReasonDirectionConflict, "trend %s stochastic %s", trendDir, confirmDir)
	}
	dir := trendDir

	confidence := scores.Total()
	if confidence < cfg.MinConfidence {
		return nil, reject(ReasonLowConfidence, "confidence %.0f < %.0f", confidence, cfg.MinConfidence)
	}

	if wait, ok := e.cooling(dir, w.Time); ok {
		return nil, reject(ReasonCooldown, "%s cooldown, %s left", dir, wait.Round(time.Second))
	}

	if hour := w.Time.UTC().Hour(); cfg.SessionFilter {
		for _, win := range cfg.AvoidHours {
			if win.Contains(hour) {
				return nil, reject(ReasonSession, "hour %02d inside %s", hour, win)
			}
		}
	}

	spread := w.Spread()
	// epsilon absorbe el ruido de float cuando el spread cae justo en el límite
	if maxSpread := cfg.MaxSpreadPips * cfg.PipSize; spread > maxSpread+1e-9 {
		return nil, reject(ReasonSpread, "spread %.2f > %.2f", spread, maxSpread)
	}

	sl, tp, rr := levels(cfg, dir, w.Price, r.atr.Or(0), spread)

	sig := &domain.Signal{
		ID:         e.newID(),
		Direction:  dir,
		Entry:      w.Price,
		StopLoss:   sl,
		TakeProfit: tp,
		RiskReward: rr,
		Confidence: confidence,
		Time:       w.Time.UTC(),
		Snapshot: domain.Snapshot{
			Alignment: r.alignment,
			RSI:       r.rsi.Ptr(),
			PrevRSI:   r.prevRSI.Ptr(),
			StochK:    r.stochK.Ptr(),
			StochD:    r.stochD.Ptr(),
			ATR:       r.atr.Ptr(),
			AvgATR:    r.avgATR.Ptr(),
			Volume:    w.Fast.LastVolume(),
			AvgVolume: r.avgVolume.Ptr(),
			Spread:    spread,
			Scores:    scores,
		},
	}
	e.accept(sig)

	slog.Info("fusion: signal generated",
		"direction", sig.Direction,
		"entry", sig.Entry,
		"sl", sig.StopLoss,
		"tp", sig.TakeProfit,
		"confidence", sig.Confidence,
	)
	return sig, Rejection{}
}

func (e *Engine) read(w domain.Window) readings {
	cfg := e.cfg
	r := readings{
		alignment: indicator.EMAAlignment(w.Slow.Closes, cfg.EMAFast, cfg.EMAMed, cfg.EMASlow),
	}

	rsi := indicator.RSI(w.Fast.Closes, cfg.RSIPeriod)
	r.rsi, r.prevRSI = indicator.Last(rsi), indicator.Prev(rsi)

	k, d := indicator.Stochastic(w.Fast.Highs, w.Fast.Lows, w.Fast.Closes,
		cfg.StochPeriod, cfg.StochSmoothK, cfg.StochSmoothD)
	r.stochK, r.stochD = indicator.Last(k), indicator.Last(d)

	atr := indicator.ATR(w.Slow.Highs, w.Slow.Lows, w.Slow.Closes, cfg.ATRPeriod)
	r.atr = indicator.Last(atr)
	if mean, ok := indicator.MeanOfLast(atr, cfg.ATRAvgSamples); ok {
		r.avgATR = indicator.Some(mean)
	} else {
		r.avgATR = r.atr
	}

	if v := w.Fast.LastVolume(); v >= 0 {
		r.volume = indicator.Some(float64(v))
	}
	r.avgVolume = indicator.Last(indicator.VolumeSMA(w.Fast.Volumes, cfg.VolumeLookback))
	if !r.avgVolume.Valid() {
		r.avgVolume = r.volume
	}
	return r
}

// cooling indica si dir sigue en cooldown en now.
func (e *Engine) cooling(dir domain.Direction, now time.Time) (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	last, ok := e.lastSignal[dir]
	if !ok {
		return 0, false
	}
	if elapsed := now.Sub(last.at); elapsed < e.cfg.Cooldown {
		return e.cfg.Cooldown - elapsed, true
	}
	return 0, false
}

func (e *Engine) accept(sig *domain.Signal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := mark{id: sig.ID, at: sig.Time}
	if prev, ok := e.lastSignal[sig.Direction]; ok {
		m.prev, m.hasPrev = prev.at, true
	}
	e.lastSignal[sig.Direction] = m
}

// Revert deshace el cooldown registrado por sig cuando no se pudo
// persistir. Solo se puede revertir la última señal de cada dirección.
func (e *Engine) Revert(sig *domain.Signal) {
	if sig == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.lastSignal[sig.Direction]
	if !ok || m.id != sig.ID {
		return
	}
	if !m.hasPrev {
		delete(e.lastSignal, sig.Direction)
		return
	}
	e.lastSignal[sig.Direction] = mark{at: m.prev}
}
