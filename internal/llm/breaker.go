package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/abhisek/inkling/internal/logger"
)

// BreakerProvider is a decorator that trips a circuit breaker when the
// provider fails repeatedly, failing fast instead of burning the request
// deadline on a known-bad backend.
type BreakerProvider struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker
}

// WithBreaker wraps a Provider with a circuit breaker.
func WithBreaker(p Provider, log *logger.Logger) Provider {
	st := gobreaker.Settings{
		Name:        "llm:" + p.ModelID(),
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("AI provider breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// Schema violations are the model misbehaving, not the
			// transport; they should not open the breaker.
			var inv *ErrInvalidResponse
			return errors.As(err, &inv)
		},
	}

	return &BreakerProvider{
		inner: p,
		cb:    gobreaker.NewCircuitBreaker(st),
	}
}

func (b *BreakerProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	out, err := b.cb.Execute(func() (any, error) {
		return b.inner.Generate(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &ErrBreakerOpen{Err: err}
		}
		return nil, err
	}
	return out.(*Response), nil
}

func (b *BreakerProvider) ModelID() string {
	return b.inner.ModelID()
}
