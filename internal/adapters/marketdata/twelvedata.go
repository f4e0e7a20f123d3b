package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/xauscalp/internal/domain"
)

const (
	defaultTwelveDataBase   = "https://api.twelvedata.com"
	defaultTwelveDataSymbol = "XAU/USD"

	// Plan gratuito: 8 req/min.
	twelveDataRatePerSec = 7.0 / 60.0

	twelveDataTimeLayout = "2006-01-02 15:04:05"
)

// TwelveData obtiene series temporales de api.twelvedata.com.
type TwelveData struct {
	client  *client
	baseURL string
	apiKey  string
	symbol  string
}

// NewTwelveData crea el proveedor. Si baseURL está vacío usa producción.
func NewTwelveData(baseURL, apiKey string, opts ...Option) *TwelveData {
	if baseURL == "" {
		baseURL = defaultTwelveDataBase
	}
	return &TwelveData{
		client:  newClient("twelvedata", twelveDataRatePerSec, 2, opts...),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		symbol:  defaultTwelveDataSymbol,
	}
}

// Name implementa ports.BarProvider.
func (t *TwelveData) Name() string { return "twelvedata" }

// La API devuelve los números como strings.
type twelveDataSeries struct {
	Status  string          `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Values  []twelveDataBar `json:"values"`
}

type twelveDataBar struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

// FetchBars devuelve las últimas limit velas, más antiguas primero.
func (t *TwelveData) FetchBars(ctx context.Context, tf domain.Timeframe, limit int) ([]domain.Bar, error) {
	if limit <= 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("symbol", t.symbol)
	q.Set("interval", fmt.Sprintf("%dmin", tf.Minutes()))
	q.Set("outputsize", strconv.Itoa(limit))
	q.Set("timezone", "UTC")
	q.Set("apikey", t.apiKey)

	var resp twelveDataSeries
	if err := t.client.getJSON(ctx, t.baseURL+"/time_series?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("marketdata.TwelveData.FetchBars: %w", err)
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("marketdata.TwelveData.FetchBars: status %q code %d: %s", resp.Status, resp.Code, resp.Message)
	}

	bars := make([]domain.Bar, 0, len(resp.Values))
	for _, v := range resp.Values {
		b, err := v.toBar()
		if err != nil {
			return nil, fmt.Errorf("marketdata.TwelveData.FetchBars: %w", err)
		}
		bars = append(bars, b)
	}
	sortBars(bars)
	return bars, nil
}

func (v twelveDataBar) toBar() (domain.Bar, error) {
	ts, err := time.ParseInLocation(twelveDataTimeLayout, v.Datetime, time.UTC)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parse datetime %q: %w", v.Datetime, err)
	}
	var b domain.Bar
	b.Time = ts
	for _, f := range []struct {
		raw string
		dst *float64
	}{{v.Open, &b.Open}, {v.High, &b.High}, {v.Low, &b.Low}, {v.Close, &b.Close}} {
		if *f.dst, err = strconv.ParseFloat(f.raw, 64); err != nil {
			return domain.Bar{}, fmt.Errorf("parse price %q: %w", f.raw, err)
		}
	}
	// Forex no trae volumen en todos los planes.
	if v.Volume != "" {
		vol, err := strconv.ParseFloat(v.Volume, 64)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("parse volume %q: %w", v.Volume, err)
		}
		b.Volume = int64(vol)
	}
	return b, nil
}

func sortBars(bars []domain.Bar) {
	slices.SortStableFunc(bars, func(a, b domain.Bar) int {
		return a.Time.Compare(b.Time)
	})
}
