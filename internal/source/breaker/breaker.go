// Package breaker guards a transaction source with a circuit breaker so a
// failing backend is not hit by every request.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"rewards/internal/core"
	"rewards/internal/log"
	"rewards/internal/source"
)

// Settings tunes when the breaker opens.
type Settings struct {
	// Failures is the number of consecutive failed loads that opens the circuit (default: 5)
	Failures uint32

	// OpenTimeout is how long the circuit stays open before a trial load (default: 30s)
	OpenTimeout time.Duration

	// OnStateChange is called after every transition, e.g. to export metrics.
	OnStateChange func(from, to string)
}

// Source decorates another source. It keeps the wrapped source's name so
// cache keys and metric labels do not change.
type Source struct {
	next source.TransactionSource
	cb   *gobreaker.CircuitBreaker
}

var _ source.TransactionSource = (*Source)(nil)

func New(next source.TransactionSource, s Settings, logger *log.Logger) *Source {
	if s.Failures == 0 {
		s.Failures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSource)

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.Failures
		},
		IsSuccessful: func(err error) bool {
			// The caller giving up says nothing about the source.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Source circuit changed state", log.FieldSource, name, "from", from.String(), "to", to.String())
			if s.OnStateChange != nil {
				s.OnStateChange(from.String(), to.String())
			}
		},
	})
	return &Source{next: next, cb: cb}
}

func (s *Source) Name() string { return s.next.Name() }

// State returns "closed", "half-open" or "open".
func (s *Source) State() string { return s.cb.State().String() }

// Load delegates to the wrapped source unless the circuit is open, in which
// case it fails fast with source.ErrSourceUnavailable.
func (s *Source) Load(ctx context.Context) ([]core.Transaction, error) {
	res, err := s.cb.Execute(func() (any, error) {
		return s.next.Load(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s: %v", source.ErrSourceUnavailable, s.Name(), err)
		}
		return nil, err
	}
	return res.([]core.Transaction), nil
}
