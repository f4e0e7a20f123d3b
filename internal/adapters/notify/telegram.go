package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alejandrodnm/xauscalp/internal/domain"
)

const defaultTelegramBase = "https://api.telegram.org"

// Telegram envía señales y cierres por la Bot API.
type Telegram struct {
	http    *http.Client
	baseURL string
	token   string
	chatID  string
}

// NewTelegram crea un notificador de Telegram.
// Si baseURL está vacío usa la API de producción.
func NewTelegram(baseURL, token, chatID string) *Telegram {
	if baseURL == "" {
		baseURL = defaultTelegramBase
	}
	return &Telegram{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		chatID:  chatID,
	}
}

// NotifySignal envía la señal con entrada, niveles y confianza.
func (t *Telegram) NotifySignal(ctx context.Context, sig domain.Signal) error {
	icon := "🟢"
	if sig.Direction == domain.DirectionSell {
		icon = "🔴"
	}
	title := fmt.Sprintf("XAUUSD %s signal", sig.Direction)
	lines := []string{
		fmt.Sprintf("Entry: %.2f", sig.Entry),
		fmt.Sprintf("Stop loss: %.2f", sig.StopLoss),
		fmt.Sprintf("Take profit: %.2f", sig.TakeProfit),
		fmt.Sprintf("R/R: %.2f", sig.RiskReward),
		fmt.Sprintf("Confidence: %.0f%%", sig.Confidence),
		fmt.Sprintf("Time: %s UTC", sig.Time.UTC().Format("2006-01-02 15:04")),
		fmt.Sprintf("Signal: %s", sig.ID),
	}
	return t.send(ctx, icon, title, lines)
}

// NotifyTradeClosed envía el resultado de un trade cerrado.
func (t *Telegram) NotifyTradeClosed(ctx context.Context, tr domain.Trade) error {
	icon := "✅"
	if tr.Status != domain.TradeStatusClosedWin {
		icon = "❌"
	}
	title := fmt.Sprintf("XAUUSD %s %s", tr.Direction, tr.Status)
	lines := []string{fmt.Sprintf("Entry: %.2f", tr.Entry)}
	if tr.ExitPrice != nil {
		lines = append(lines, fmt.Sprintf("Exit: %.2f", *tr.ExitPrice))
	}
	if tr.Pips != nil {
		lines = append(lines, fmt.Sprintf("Pips: %+.1f", *tr.Pips))
	}
	if tr.PnL != nil {
		lines = append(lines, fmt.Sprintf("P/L: $%+.2f", *tr.PnL))
	}
	return t.send(ctx, icon, title, lines)
}

func (t *Telegram) send(ctx context.Context, icon, title string, lines []string) error {
	escaped := make([]string, len(lines))
	for i, l := range lines {
		escaped[i] = escapeMarkdown(l)
	}
	text := fmt.Sprintf("%s *%s*\n\n%s", icon, escapeMarkdown(title), strings.Join(escaped, "\n"))

	body, err := json.Marshal(map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "MarkdownV2",
	})
	if err != nil {
		return fmt.Errorf("notify.Telegram: marshal: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify.Telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("notify.Telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notify.Telegram: unexpected status %d: %s", resp.StatusCode, string(msg))
	}

	slog.Debug("telegram: message sent", "title", title)
	return nil
}

// escapeMarkdown escapa los caracteres especiales de MarkdownV2.
func escapeMarkdown(s string) string {
	const specials = "_*[]()~`>#+-=|{}.!\\"
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
