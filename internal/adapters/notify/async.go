package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/xauscalp/internal/domain"
	"github.com/alejandrodnm/xauscalp/internal/metrics"
	"github.com/alejandrodnm/xauscalp/internal/ports"
)

var (
	// ErrQueueFull se devuelve cuando el buffer está lleno y el evento se descarta.
	ErrQueueFull = errors.New("notify: queue full, event dropped")
	// ErrClosed se devuelve tras Close.
	ErrClosed = errors.New("notify: notifier closed")
)

const defaultDeliveryTimeout = 15 * time.Second

type job struct {
	kind    string
	deliver func(ctx context.Context) error
}

// Async desacopla la entrega del ciclo de decisión: encola y vuelve.
// Un único worker entrega en orden; si el buffer se llena el evento se descarta.
type Async struct {
	next    ports.Notifier
	queue   chan job
	timeout time.Duration
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsync arranca el worker. m puede ser nil.
func NewAsync(next ports.Notifier, buffer int, m *metrics.Metrics) *Async {
	if buffer <= 0 {
		buffer = 64
	}
	a := &Async{
		next:    next,
		queue:   make(chan job, buffer),
		timeout: defaultDeliveryTimeout,
		metrics: m,
	}
	a.wg.Add(1)
	go a.run()
	return a
}

// NotifySignal encola la señal.
func (a *Async) NotifySignal(_ context.Context, sig domain.Signal) error {
	return a.enqueue(job{kind: "signal", deliver: func(ctx context.Context) error {
		return a.next.NotifySignal(ctx, sig)
	}})
}

// NotifyTradeClosed encola el cierre.
func (a *Async) NotifyTradeClosed(_ context.Context, t domain.Trade) error {
	return a.enqueue(job{kind: "trade_closed", deliver: func(ctx context.Context) error {
		return a.next.NotifyTradeClosed(ctx, t)
	}})
}

// Close deja de aceptar eventos y espera a que se entreguen los pendientes.
func (a *Async) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()
	a.wg.Wait()
}

func (a *Async) enqueue(j job) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- j:
		return nil
	default:
		a.metrics.ObserveNotifyDropped()
		return ErrQueueFull
	}
}

func (a *Async) run() {
	defer a.wg.Done()
	for j := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := j.deliver(ctx); err != nil {
			slog.Warn("notify: delivery failed", "kind", j.kind, "err", err)
		}
		cancel()
	}
}

// Multi reparte cada evento a todos los notificadores.
type Multi []ports.Notifier

// NotifySignal entrega a todos y une los errores.
func (m Multi) NotifySignal(ctx context.Context, sig domain.Signal) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifySignal(ctx, sig); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifyTradeClosed entrega a todos y une los errores.
func (m Multi) NotifyTradeClosed(ctx context.Context, t domain.Trade) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyTradeClosed(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
