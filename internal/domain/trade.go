package domain

import (
	"errors"
	"time"
)

// ErrTradeNotOpen se devuelve al intentar una transición sobre un trade
// que ya no está OPEN.
var ErrTradeNotOpen = errors.New("domain: trade is not open")

// TradeStatus es el estado de un paper trade.
type TradeStatus string

const (
	TradeStatusOpen       TradeStatus = "OPEN"
	TradeStatusClosedWin  TradeStatus = "CLOSED_WIN"
	TradeStatusClosedLose TradeStatus = "CLOSED_LOSE"
	TradeStatusCancelled  TradeStatus = "CANCELLED"
)

// Closed indica si el estado es un resultado realizado.
func (s TradeStatus) Closed() bool {
	return s == TradeStatusClosedWin || s == TradeStatusClosedLose
}

// Trade es una posición virtual abierta desde una Signal. Stop-loss y
// take-profit quedan fijos al crearla.
type Trade struct {
	ID         string
	SignalID   string
	Instrument string
	Direction  Direction
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	Status     TradeStatus
	Confidence float64
	ExitPrice  *float64
	SignalTime time.Time
	EntryTime  time.Time
	ExitTime   *time.Time
	Pips       *float64
	PnL        *float64
	CreatedAt  time.Time
}

// Hit compara price con los niveles del trade. La pérdida se comprueba
// antes que la ganancia: en un gap que cruza ambos se asume que salta el
// stop. Devuelve el estado y el precio del nivel, u ok=false si no se tocó
// ninguno.
func (t Trade) Hit(price float64) (status TradeStatus, exit float64, ok bool) {
	switch t.Direction {
	case DirectionBuy:
		if price <= t.StopLoss {
			return TradeStatusClosedLose, t.StopLoss, true
		}
		if price >= t.TakeProfit {
			return TradeStatusClosedWin, t.TakeProfit, true
		}
	case DirectionSell:
		if price >= t.StopLoss {
			return TradeStatusClosedLose, t.StopLoss, true
		}
		if price <= t.TakeProfit {
			return TradeStatusClosedWin, t.TakeProfit, true
		}
	}
	return "", 0, false
}

// Close devuelve una copia del trade cerrada con todos los campos de salida.
// El receptor no se modifica.
func (t Trade) Close(status TradeStatus, exit float64, at time.Time, pips, pnl float64) (Trade, error) {
	if t.Status != TradeStatusOpen {
		return t, ErrTradeNotOpen
	}
	if !status.Closed() {
		return t, errors.New("domain: close requires CLOSED_WIN or CLOSED_LOSE")
	}
	at = at.UTC()
	t.Status = status
	t.ExitPrice = &exit
	t.ExitTime = &at
	t.Pips = &pips
	t.PnL = &pnl
	return t, nil
}

// Cancel devuelve una copia del trade en estado CANCELLED.
func (t Trade) Cancel() (Trade, error) {
	if t.Status != TradeStatusOpen {
		return t, ErrTradeNotOpen
	}
	t.Status = TradeStatusCancelled
	return t, nil
}
