// Package resilience implements the CircuitBreaker, retry-with-backoff,
// graceful degradation ladder, and health monitor described in spec.md
// §4.I, built on the same generic internal/fsm state machine used by the
// VAD engine.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/voicetranslate/streamcore/internal/fsm"
)

// BreakerState is one of the three CircuitBreaker states.
type BreakerState string

const (
	Closed   BreakerState = "closed"
	Open     BreakerState = "open"
	HalfOpen BreakerState = "half_open"
)

// breakerEvent drives BreakerState transitions. Whether a failure trips the
// breaker depends on a consecutive-failure counter outside the FSM's
// purview (mirroring how internal/vad counts consecutive frames before
// firing a Promoted/Committed event), so success/failure are pre-classified
// into threshold-crossing events before being fired.
type breakerEvent string

const (
	eventFailureBelowThreshold breakerEvent = "failure_below_threshold"
	eventFailureTripped        breakerEvent = "failure_tripped"
	eventProbeSuccess          breakerEvent = "probe_success"
	eventProbeFailure          breakerEvent = "probe_failure"
	eventRecoveryTimer         breakerEvent = "recovery_timer"
)

var breakerTransitions = fsm.NewTable([]fsm.Transition[BreakerState, breakerEvent]{
	{From: Closed, Event: eventFailureBelowThreshold, To: Closed},
	{From: Closed, Event: eventFailureTripped, To: Open},
	{From: Open, Event: eventRecoveryTimer, To: HalfOpen},
	{From: HalfOpen, Event: eventProbeSuccess, To: Closed},
	{From: HalfOpen, Event: eventProbeFailure, To: Open},
})

// ErrCircuitOpen is returned by Call when the breaker is open and no
// fallback was supplied.
var ErrCircuitOpen = errors.New("resilience: circuit open")

// BreakerConfig controls trip/recovery thresholds.
type BreakerConfig struct {
	Name             string
	FailureThreshold int           // consecutive failures before tripping Closed -> Open
	RecoveryTimeout  time.Duration // how long Open waits before allowing a HalfOpen probe
	HalfOpenMaxCalls int           // probe calls allowed in HalfOpen before a verdict
}

// CircuitBreaker wraps calls to a possibly-failing collaborator, tripping
// open after consecutive failures and probing for recovery after a cooldown
// (spec.md §4.I). Thread-safety is per-breaker; transitions are guarded by
// a single mutex so they are atomic with respect to concurrent Call(s).
type CircuitBreaker struct {
	cfg     BreakerConfig
	machine *fsm.Machine[BreakerState, breakerEvent]

	mu               sync.Mutex
	consecFailures   int
	openedAt         time.Time
	halfOpenAttempts int
	halfOpenFailed   bool
}

// NewCircuitBreaker constructs a breaker starting Closed.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}
	return &CircuitBreaker{
		cfg:     cfg,
		machine: fsm.NewMachine(breakerTransitions, Closed),
	}
}

// State reports the current breaker state, resolving an elapsed Open
// recovery timeout into HalfOpen as a side effect.
func (b *CircuitBreaker) State(now time.Time) BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeEnterHalfOpenLocked(now)
	return b.machine.State()
}

func (b *CircuitBreaker) maybeEnterHalfOpenLocked(now time.Time) {
	if b.machine.State() != Open {
		return
	}
	if now.Sub(b.openedAt) < b.cfg.RecoveryTimeout {
		return
	}
	if err := b.machine.Fire(eventRecoveryTimer); err == nil {
		b.halfOpenAttempts = 0
		b.halfOpenFailed = false
	}
}

// Call executes fn under breaker protection at time now. If the breaker is
// Open and fallback is non-nil, fallback runs instead and its result is
// returned as-is; if fallback is nil, ErrCircuitOpen is returned without
// calling fn.
func (b *CircuitBreaker) Call(ctx context.Context, now time.Time, fn func(context.Context) error, fallback func(context.Context) error) error {
	b.mu.Lock()
	b.maybeEnterHalfOpenLocked(now)
	state := b.machine.State()

	if state == Open {
		b.mu.Unlock()
		if fallback != nil {
			return fallback(ctx)
		}
		return ErrCircuitOpen
	}

	if state == HalfOpen {
		if b.halfOpenAttempts >= b.cfg.HalfOpenMaxCalls {
			b.mu.Unlock()
			if fallback != nil {
				return fallback(ctx)
			}
			return ErrCircuitOpen
		}
		b.halfOpenAttempts++
	}
	b.mu.Unlock()

	err := fn(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	switch state {
	case HalfOpen:
		if err != nil {
			b.halfOpenFailed = true
			_ = b.machine.Fire(eventProbeFailure)
			b.openedAt = now
			return err
		}
		if b.halfOpenAttempts >= b.cfg.HalfOpenMaxCalls && !b.halfOpenFailed {
			_ = b.machine.Fire(eventProbeSuccess)
			b.consecFailures = 0
		}
		return nil
	default: // Closed
		if err != nil {
			b.consecFailures++
			if b.consecFailures >= b.cfg.FailureThreshold {
				_ = b.machine.Fire(eventFailureTripped)
				b.openedAt = now
			} else {
				_ = b.machine.Fire(eventFailureBelowThreshold)
			}
			return err
		}
		b.consecFailures = 0
		return nil
	}
}

// Name returns the breaker's configured name, used as a metrics label.
func (b *CircuitBreaker) Name() string { return b.cfg.Name }
