package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/alejandrodnm/xauscalp/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier escribiendo a un io.Writer.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// NotifySignal imprime la señal con sus niveles y el desglose del score.
func (c *Console) NotifySignal(_ context.Context, sig domain.Signal) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "\n[%s] %s signal %s\n", sig.Time.Format("2006-01-02 15:04:05"), sig.Direction, shortID(sig.ID))

	table := tablewriter.NewWriter(c.out)
	table.Header("Entry", "Stop", "Target", "R/R", "Conf", "Spread")
	table.Append(
		price(sig.Entry),
		price(sig.StopLoss),
		price(sig.TakeProfit),
		fmt.Sprintf("%.2f", sig.RiskReward),
		fmt.Sprintf("%.0f%%", sig.Confidence),
		price(sig.Snapshot.Spread),
	)
	if err := table.Render(); err != nil {
		return fmt.Errorf("notify.Console: render signal: %w", err)
	}

	s := sig.Snapshot.Scores
	fmt.Fprintf(c.out, "  trend %.0f | momentum %.0f | confirmation %.0f | volatility %.0f | volume %.0f\n",
		s.Trend, s.Momentum, s.Confirmation, s.Volatility, s.Volume)
	fmt.Fprintf(c.out, "  ema %s | rsi %s | stoch %s/%s | atr %s\n",
		sig.Snapshot.Alignment, opt(sig.Snapshot.RSI), opt(sig.Snapshot.StochK), opt(sig.Snapshot.StochD), opt(sig.Snapshot.ATR))
	return nil
}

// NotifyTradeClosed imprime una línea con el resultado del trade.
func (c *Console) NotifyTradeClosed(_ context.Context, t domain.Trade) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var exit, pips, pnl float64
	if t.ExitPrice != nil {
		exit = *t.ExitPrice
	}
	if t.Pips != nil {
		pips = *t.Pips
	}
	if t.PnL != nil {
		pnl = *t.PnL
	}
	fmt.Fprintf(c.out, "[%s] %s %s %s -> %s  %+.1f pips  $%+.2f\n",
		exitTime(t), shortID(t.ID), t.Status, price(t.Entry), price(exit), pips, pnl)
	return nil
}

// PrintStats imprime el resumen agregado de un conjunto de trades.
func (c *Console) PrintStats(title string, s domain.TradeStats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "\n=== %s ===\n", title)

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value")
	table.Append("Total trades", fmt.Sprintf("%d", s.Total))
	table.Append("Open", fmt.Sprintf("%d", s.Open))
	table.Append("Wins", fmt.Sprintf("%d", s.Wins))
	table.Append("Losses", fmt.Sprintf("%d", s.Losses))
	table.Append("Cancelled", fmt.Sprintf("%d", s.Cancelled))
	table.Append("Win rate", fmt.Sprintf("%.2f%%", s.WinRate))
	table.Append("Total pips", fmt.Sprintf("%.1f", s.TotalPips))
	table.Append("Total P/L", fmt.Sprintf("$%.2f", s.TotalPnL))
	table.Append("Profit factor", fmt.Sprintf("%.2f", s.ProfitFactor))
	table.Append("Avg R/R", fmt.Sprintf("%.2f", s.AvgRiskReward))
	table.Append("Max drawdown", fmt.Sprintf("$%.2f", s.MaxDrawdown))
	table.Render()
}

// PrintTrades imprime una fila por trade.
func (c *Console) PrintTrades(trades []domain.Trade) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(trades) == 0 {
		fmt.Fprintln(c.out, "  no trades")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Dir", "Status", "Entry", "Stop", "Target", "Exit", "Pips", "P/L", "Opened")
	for _, t := range trades {
		exit, pips, pnl := "-", "-", "-"
		if t.ExitPrice != nil {
			exit = price(*t.ExitPrice)
		}
		if t.Pips != nil {
			pips = fmt.Sprintf("%+.1f", *t.Pips)
		}
		if t.PnL != nil {
			pnl = fmt.Sprintf("%+.2f", *t.PnL)
		}
		table.Append(
			shortID(t.ID),
			string(t.Direction),
			string(t.Status),
			price(t.Entry),
			price(t.StopLoss),
			price(t.TakeProfit),
			exit,
			pips,
			pnl,
			t.EntryTime.Format("01-02 15:04"),
		)
	}
	table.Render()
}

// --- helpers ---

func price(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func opt(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func exitTime(t domain.Trade) string {
	if t.ExitTime == nil {
		return "--:--:--"
	}
	return t.ExitTime.Format("15:04:05")
}
