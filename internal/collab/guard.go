// Package collab wraps calls to external collaborators (translation, speech,
// messaging) with a timeout, a rate limit, bounded retry and a circuit breaker.
package collab

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker"

	"github.com/ppiankov/labsense/internal/model"
	"github.com/ppiankov/labsense/internal/worker"
)

// ErrOpen is returned while a collaborator's breaker is open
var ErrOpen = gobreaker.ErrOpenState

// Options configures a Guard
type Options struct {
	Name    string // collaborator name, used for the breaker and logs
	Target  string // limiter key: the collaborator URL or name
	Timeout time.Duration

	Retries int           // extra attempts after the first
	Backoff time.Duration // first retry delay, doubled each time

	BreakerFailures int // consecutive failures that open the breaker
	BreakerCooldown time.Duration

	Limiter *worker.Limiter
	Logger  zerolog.Logger
}

// Guard protects one collaborator. It is safe for concurrent use; batch
// workers share it so a failing collaborator trips once for the whole run.
type Guard struct {
	opts    Options
	breaker *gobreaker.CircuitBreaker
}

// NewGuard creates a guard
func NewGuard(opts Options) *Guard {
	if opts.BreakerFailures <= 0 {
		opts.BreakerFailures = 3
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = time.Minute
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}

	failures := uint32(opts.BreakerFailures)
	logger := opts.Logger

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("collaborator", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
		// a cancelled run says nothing about the collaborator's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Guard{opts: opts, breaker: breaker}
}

// FromConfig builds a guard from the shared HTTP settings
func FromConfig(name, target string, timeout time.Duration, cfg model.HTTPConfig, limiter *worker.Limiter, logger zerolog.Logger) *Guard {
	if timeout == 0 {
		timeout = cfg.Timeout
	}
	return NewGuard(Options{
		Name:            name,
		Target:          target,
		Timeout:         timeout,
		Retries:         cfg.Retries,
		Backoff:         cfg.RetryBackoff,
		BreakerFailures: cfg.BreakerFailures,
		BreakerCooldown: cfg.BreakerCooldown,
		Limiter:         limiter,
		Logger:          logger,
	})
}

// Name returns the collaborator name
func (g *Guard) Name() string {
	return g.opts.Name
}

// State reports the breaker state: closed, half-open or open
func (g *Guard) State() string {
	return g.breaker.State().String()
}

// Do calls fn with bounded retry. Each attempt waits for the limiter and
// gets its own timeout. Errors marked Permanent are not retried.
func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return g.run(ctx, g.opts.Retries, fn)
}

// Once calls fn exactly one time, still limited, timed and breaker-protected.
// Delivery uses this: a retried message could reach the patient twice.
func (g *Guard) Once(ctx context.Context, fn func(ctx context.Context) error) error {
	return g.run(ctx, 0, fn)
}

func (g *Guard) run(ctx context.Context, retries int, fn func(ctx context.Context) error) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		attempt := 0
		backoff := retry.WithMaxRetries(uint64(retries), retry.NewExponential(g.opts.Backoff))

		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			attempt++
			if attempt > 1 {
				g.opts.Logger.Debug().Str("collaborator", g.opts.Name).Int("attempt", attempt).Msg("retrying")
			}

			err := g.attempt(ctx, fn)
			if err == nil {
				return nil
			}

			var permanent *permanentError
			if errors.As(err, &permanent) || errors.Is(err, context.Canceled) {
				return err
			}
			return retry.RetryableError(err)
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", g.opts.Name, unwrapPermanent(err))
	}
	return nil
}

func (g *Guard) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if g.opts.Limiter != nil {
		if err := g.opts.Limiter.Wait(ctx, g.opts.Target); err != nil {
			return Permanent(fmt.Errorf("rate limit wait: %w", err))
		}
	}

	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	return fn(ctx)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks an error as not worth retrying, e.g. an HTTP 4xx
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func unwrapPermanent(err error) error {
	var permanent *permanentError
	if errors.As(err, &permanent) && permanent == err {
		return permanent.err
	}
	return err
}
