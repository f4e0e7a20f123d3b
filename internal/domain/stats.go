package domain

// TradeStats agrega el resultado de un conjunto de trades.
type TradeStats struct {
	Total         int // todos los trades, cualquier estado
	Open          int
	Wins          int
	Losses        int
	Cancelled     int
	WinRate       float64 // % de trades realizados ganadores
	TotalPips     float64
	TotalPnL      float64
	GrossProfit   float64
	GrossLoss     float64 // positivo
	ProfitFactor  float64 // 0 si no hay pérdidas
	AvgRiskReward float64
	MaxDrawdown   float64 // mayor caída pico-valle del P/L acumulado
}

// Closed devuelve el número de trades realizados.
func (s TradeStats) Closed() int {
	return s.Wins + s.Losses
}

// ComputeStats agrega los trades. Los realizados deben venir en orden de
// salida para que el drawdown tenga sentido.
func ComputeStats(trades []Trade) TradeStats {
	var (
		s      TradeStats
		rrSum  float64
		rrN    int
		equity float64
		peak   float64
	)
	s.Total = len(trades)
	for _, t := range trades {
		switch t.Status {
		case TradeStatusOpen:
			s.Open++
			continue
		case TradeStatusCancelled:
			s.Cancelled++
			continue
		case TradeStatusClosedWin:
			s.Wins++
		case TradeStatusClosedLose:
			s.Losses++
		}

		var pnl float64
		if t.PnL != nil {
			pnl = *t.PnL
		}
		if t.Pips != nil {
			s.TotalPips += *t.Pips
		}
		s.TotalPnL += pnl
		if t.Status == TradeStatusClosedWin {
			s.GrossProfit += pnl
		} else {
			s.GrossLoss += -pnl
		}

		equity += pnl
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > s.MaxDrawdown {
			s.MaxDrawdown = dd
		}

		if rr, ok := t.RiskReward(); ok {
			rrSum += rr
			rrN++
		}
	}

	if n := s.Closed(); n > 0 {
		s.WinRate = Round(float64(s.Wins)/float64(n)*100, 2)
	}
	if s.GrossLoss > 0 {
		s.ProfitFactor = Round(s.GrossProfit/s.GrossLoss, 2)
	}
	if rrN > 0 {
		s.AvgRiskReward = Round(rrSum/float64(rrN), 2)
	}
	s.TotalPips = Round(s.TotalPips, 2)
	s.TotalPnL = RoundCents(s.TotalPnL)
	s.GrossProfit = RoundCents(s.GrossProfit)
	s.GrossLoss = RoundCents(s.GrossLoss)
	s.MaxDrawdown = RoundCents(s.MaxDrawdown)
	return s
}

// RiskReward devuelve el reward/risk planeado según los niveles del trade.
func (t Trade) RiskReward() (float64, bool) {
	var risk, reward float64
	switch t.Direction {
	case DirectionBuy:
		risk, reward = t.Entry-t.StopLoss, t.TakeProfit-t.Entry
	case DirectionSell:
		risk, reward = t.StopLoss-t.Entry, t.Entry-t.TakeProfit
	}
	if risk <= 0 {
		return 0, false
	}
	return reward / risk, true
}
