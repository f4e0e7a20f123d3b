package engine

import "time"

const (
	StateRunning = "RUNNING"
	StateStopped = "STOPPED"
)

// Status es una foto del loop para el health check.
type Status struct {
	State     string
	StartedAt time.Time
	LastTick  time.Time // hora de vela del último tick correcto
	LastError string
	Ticks     int
	Signals   int
	Closed    int
}

// Running indica si Run está activo.
func (s Status) Running() bool {
	return s.State == StateRunning
}

// Uptime es cero si está parado.
func (s Status) Uptime(now time.Time) time.Duration {
	if !s.Running() || s.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(s.StartedAt)
}

// Status devuelve una copia del estado actual.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

func (e *Engine) setState(state string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status.State = state
	if state == StateRunning {
		e.status.StartedAt = time.Now().UTC()
	}
}

func (e *Engine) recordTick(res TickResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status.Ticks++
	e.status.LastTick = res.BarTime
	e.status.LastError = ""
	if res.Signal != nil {
		e.status.Signals++
	}
	e.status.Closed += len(res.Closed)
}

func (e *Engine) recordError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status.LastError = err.Error()
}
