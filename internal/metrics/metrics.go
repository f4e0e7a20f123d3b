// Package metrics expone los collectors Prometheus del pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "xauscalp"

// Metrics contiene todas las métricas del pipeline. Un *Metrics nil es
// válido y no registra nada.
type Metrics struct {
	reg *prometheus.Registry

	TicksTotal    prometheus.Counter
	TickErrors    prometheus.Counter
	TickDuration  prometheus.Histogram
	GateClosed    prometheus.Counter
	Rejections    *prometheus.CounterVec // labels: motivo
	SignalsTotal  *prometheus.CounterVec // labels: dirección
	TradesOpened  prometheus.Counter
	TradesClosed  *prometheus.CounterVec // labels: estado
	FetchErrors   *prometheus.CounterVec // labels: proveedor
	MalformedBars *prometheus.CounterVec // labels: proveedor
	NotifyDropped prometheus.Counter
	Balance       prometheus.Gauge
	DailyLoss     prometheus.Gauge
	LastTickUnix  prometheus.Gauge
}

// New registra y devuelve las métricas en un registry propio, junto con los
// collectors de runtime de Go y de proceso.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Ticks processed by the pipeline",
		}),
		TickErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tick_errors_total",
			Help:      "Ticks aborted by a fetch or repository error",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time to process one tick end to end",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		GateClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_gate_closed_total",
			Help:      "Ticks where the risk gate refused signal generation",
		}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_rejections_total",
			Help:      "Windows that produced no signal, by reason",
		}, []string{"reason"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_total",
			Help:      "Accepted signals by direction",
		}, []string{"direction"}),
		TradesOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_opened_total",
			Help:      "Paper trades opened",
		}),
		TradesClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_closed_total",
			Help:      "Paper trades closed by outcome",
		}, []string{"status"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Market data fetch failures by provider",
		}, []string{"provider"}),
		MalformedBars: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bars_malformed_total",
			Help:      "Bars with non-finite prices or negative volume, by provider",
		}, []string{"provider"}),
		NotifyDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dropped_total",
			Help:      "Notifications dropped because the delivery queue was full",
		}),
		Balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "account_balance",
			Help:      "Virtual account balance",
		}),
		DailyLoss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "account_daily_loss",
			Help:      "Realized loss since UTC midnight",
		}),
		LastTickUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_tick_timestamp_seconds",
			Help:      "Bar time of the last processed tick",
		}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.TicksTotal,
		m.TickErrors,
		m.TickDuration,
		m.GateClosed,
		m.Rejections,
		m.SignalsTotal,
		m.TradesOpened,
		m.TradesClosed,
		m.FetchErrors,
		m.MalformedBars,
		m.NotifyDropped,
		m.Balance,
		m.DailyLoss,
		m.LastTickUnix,
	)
	return m
}

// Registry devuelve el registry de las métricas.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler sirve el registry en el formato de exposición de Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveTick(barTime time.Time, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.TicksTotal.Inc()
	m.TickDuration.Observe(took.Seconds())
	if err != nil {
		m.TickErrors.Inc()
		return
	}
	m.LastTickUnix.Set(float64(barTime.Unix()))
}

func (m *Metrics) ObserveGateClosed() {
	if m == nil {
		return
	}
	m.GateClosed.Inc()
}

func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveSignal(direction string) {
	if m == nil {
		return
	}
	m.SignalsTotal.WithLabelValues(direction).Inc()
	m.TradesOpened.Inc()
}

func (m *Metrics) ObserveClose(status string) {
	if m == nil {
		return
	}
	m.TradesClosed.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveFetchError(provider string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(provider).Inc()
}

func (m *Metrics) ObserveMalformedBars(provider string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.MalformedBars.WithLabelValues(provider).Add(float64(n))
}

func (m *Metrics) ObserveNotifyDropped() {
	if m == nil {
		return
	}
	m.NotifyDropped.Inc()
}

func (m *Metrics) SetAccount(balance, dailyLoss float64) {
	if m == nil {
		return
	}
	m.Balance.Set(balance)
	m.DailyLoss.Set(dailyLoss)
}
