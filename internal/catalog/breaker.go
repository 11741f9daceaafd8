package catalog

import (
	"context"
	"errors"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"animehub/internal/httpx"
	"animehub/internal/logging"
	"animehub/internal/metrics"
)

// guard wraps every upstream call of one source in a circuit breaker and
// records its outcome.
type guard struct {
	source string
	cb     *gobreaker.CircuitBreaker[struct{}]
}

func newGuard(source string) *guard {
	name := source + "-api"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		// a 404 is an answer, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || isNotFound(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("[catalog] circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &guard{source: source, cb: cb}
}

// call runs fn through the breaker. The returned error is for the adapter
// to decide between empty and not-found; it has already been logged.
func (g *guard) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	_, err := g.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn(ctx)
	})

	switch {
	case err == nil:
		metrics.ObserveUpstream(g.source, op, "ok", start)
	case isNotFound(err):
		metrics.ObserveUpstream(g.source, op, "not_found", start)
		logging.Debug().Str("source", g.source).Str("op", op).Msg("[catalog] not found")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.ObserveUpstream(g.source, op, "rejected", start)
		logging.Warn().Str("source", g.source).Str("op", op).Err(err).Msg("[catalog] call rejected by breaker")
	default:
		metrics.ObserveUpstream(g.source, op, "error", start)
		logging.Warn().Str("source", g.source).Str("op", op).Err(err).Msg("[catalog] upstream call failed")
	}
	return err
}

func isNotFound(err error) bool {
	var herr *httpx.HTTPError
	return errors.As(err, &herr) && herr.StatusCode == http.StatusNotFound
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
