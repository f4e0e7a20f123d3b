package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/xauscalp/internal/domain"
)

const (
	defaultPolygonBase   = "https://api.polygon.io"
	defaultPolygonTicker = "C:XAUUSD"

	// Plan gratuito: 5 req/min. Se deja margen.
	polygonRatePerSec = 4.0 / 60.0
	// El mercado de oro cierra el fin de semana: el rango debe cubrirlo.
	polygonMinLookback = 72 * time.Hour
)

// Polygon obtiene agregados de Polygon.io.
type Polygon struct {
	client  *client
	baseURL string
	apiKey  string
	ticker  string
	now     func() time.Time
}

// NewPolygon crea el proveedor. Si baseURL está vacío usa producción.
func NewPolygon(baseURL, apiKey string, opts ...Option) *Polygon {
	if baseURL == "" {
		baseURL = defaultPolygonBase
	}
	return &Polygon{
		client:  newClient("polygon", polygonRatePerSec, 2, opts...),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		ticker:  defaultPolygonTicker,
		now:     time.Now,
	}
}

// Name implementa ports.BarProvider.
func (p *Polygon) Name() string { return "polygon" }

type polygonAggs struct {
	Status       string       `json:"status"`
	ResultsCount int          `json:"resultsCount"`
	Error        string       `json:"error"`
	Results      []polygonBar `json:"results"`
}

type polygonBar struct {
	T int64   `json:"t"` // ms epoch, apertura de la vela
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

// FetchBars devuelve las últimas limit velas, más antiguas primero.
func (p *Polygon) FetchBars(ctx context.Context, tf domain.Timeframe, limit int) ([]domain.Bar, error) {
	if limit <= 0 {
		return nil, nil
	}

	to := p.now().UTC()
	lookback := time.Duration(limit) * tf.Duration() * 3
	if lookback < polygonMinLookback {
		lookback = polygonMinLookback
	}
	from := to.Add(-lookback)

	q := url.Values{}
	q.Set("adjusted", "true")
	q.Set("sort", "desc")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("apiKey", p.apiKey)
	u := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/%d/minute/%d/%d?%s",
		p.baseURL, url.PathEscape(p.ticker), tf.Minutes(), from.UnixMilli(), to.UnixMilli(), q.Encode())

	var resp polygonAggs
	if err := p.client.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("marketdata.Polygon.FetchBars: %w", err)
	}
	if resp.Status == "ERROR" || resp.Status == "NOT_AUTHORIZED" {
		return nil, fmt.Errorf("marketdata.Polygon.FetchBars: status %s: %s", resp.Status, resp.Error)
	}

	bars := make([]domain.Bar, 0, len(resp.Results))
	for _, r := range resp.Results {
		bars = append(bars, domain.Bar{
			Time:   time.UnixMilli(r.T).UTC(),
			Open:   r.O,
			High:   r.H,
			Low:    r.L,
			Close:  r.C,
			Volume: int64(r.V),
		})
	}
	sortBars(bars)
	return bars, nil
}
