package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// errClient marca respuestas 4xx: no se reintentan.
var errClient = errors.New("client error")

// client es el HTTP client compartido por los proveedores REST,
// con rate limiting por proveedor y retries con backoff exponencial.
type client struct {
	http     *http.Client
	limiter  *rate.Limiter
	name     string
	baseWait time.Duration
}

// Option ajusta el client de un proveedor.
type Option func(*client)

// WithRateLimit fija las peticiones por segundo y el burst del proveedor.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRetryWait fija la espera base del backoff.
func WithRetryWait(d time.Duration) Option {
	return func(c *client) {
		c.baseWait = d
	}
}

func newClient(name string, perSecond float64, burst int, opts ...Option) *client {
	c := &client{
		http:     &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
		name:     name,
		baseWait: baseRetryWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON hace un GET con rate limiting y retries y decodifica en out.
func (c *client) getJSON(ctx context.Context, url string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil || attempt == maxRetries {
				return fmt.Errorf("request failed after %d attempts: %w", attempt+1, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("status %d after %d attempts", resp.StatusCode, attempt+1)
			}
			slog.Warn("marketdata: retrying", "provider", c.name, "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("%w %d: %s", errClient, resp.StatusCode, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.baseWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
