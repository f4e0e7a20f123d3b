package domain

import "time"

// AccountState es la cuenta virtual de una sesión de estrategia.
// Solo el lifecycle manager la modifica.
type AccountState struct {
	Balance     float64
	DailyLoss   float64
	TradesToday int
	Day         time.Time // medianoche UTC a la que pertenecen los campos diarios
}

// NewAccountState crea una cuenta nueva anclada al día de now.
func NewAccountState(balance float64, now time.Time) AccountState {
	return AccountState{Balance: balance, Day: StartOfDay(now)}
}

// RollDay pone a cero los contadores diarios si now cae en un día UTC posterior.
func (a AccountState) RollDay(now time.Time) AccountState {
	day := StartOfDay(now)
	if day.After(a.Day) {
		a.Day = day
		a.DailyLoss = 0
		a.TradesToday = 0
	}
	return a
}

// Realize contabiliza el P/L de un trade cerrado. Las pérdidas también
// se acumulan en DailyLoss.
func (a AccountState) Realize(pnl float64, at time.Time) AccountState {
	a = a.RollDay(at)
	a.Balance = RoundCents(a.Balance + pnl)
	if pnl < 0 {
		a.DailyLoss = RoundCents(a.DailyLoss - pnl)
	}
	return a
}

// StartOfDay trunca t a medianoche UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
