// Package resilience guards calls to the optional external dependencies of
// searchserver (Redis, PostgreSQL, Kafka): a circuit breaker that stops
// hammering a dependency after repeated failures, and retry with exponential
// backoff for connection setup. Nothing in the search core uses it.
package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by Breaker.Do while the circuit is open.
var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig controls when a breaker trips and how long it stays open.
// Zero values take defaults.
type BreakerConfig struct {
	FailureThreshold int
	ResetTimeout     time.Duration
	HalfOpenMaxCalls int
}

func defaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// Breaker trips open after FailureThreshold consecutive failures. Once
// ResetTimeout has passed it lets HalfOpenMaxCalls calls through; a successful
// trial call closes it again and a failed one re-opens it.
type Breaker struct {
	name   string
	cfg    BreakerConfig
	logger *slog.Logger
	now    func() time.Time

	mu             sync.Mutex
	state          State
	failures       int
	openedAt       time.Time
	trialsInFlight int
}

func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	defaults := defaultBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = defaults.ResetTimeout
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = defaults.HalfOpenMaxCalls
	}
	return &Breaker{
		name:   name,
		cfg:    cfg,
		logger: slog.Default().With("component", "circuit-breaker", "dependency", name),
		now:    time.Now,
	}
}

// Do runs fn unless the circuit is open, and records its outcome.
func (b *Breaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateOpen:
		waited := b.now().Sub(b.openedAt)
		if waited < b.cfg.ResetTimeout {
			return fmt.Errorf("%w: %s (retry in %v)", ErrOpen, b.name, b.cfg.ResetTimeout-waited)
		}
		b.state = StateHalfOpen
		b.trialsInFlight = 0
		b.logger.Info("circuit half-open")
		fallthrough
	case StateHalfOpen:
		if b.trialsInFlight >= b.cfg.HalfOpenMaxCalls {
			return fmt.Errorf("%w: %s (trial call in flight)", ErrOpen, b.name)
		}
		b.trialsInFlight++
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		if b.state == StateHalfOpen {
			b.logger.Info("circuit closed")
		}
		b.state = StateClosed
		b.failures = 0
		b.trialsInFlight = 0
		return
	}
	b.failures++
	switch {
	case b.state == StateHalfOpen:
		b.trip()
	case b.state == StateClosed && b.failures >= b.cfg.FailureThreshold:
		b.trip()
	}
}

func (b *Breaker) trip() {
	b.state = StateOpen
	b.openedAt = b.now()
	b.logger.Warn("circuit opened", "consecutive_failures", b.failures, "threshold", b.cfg.FailureThreshold)
}
