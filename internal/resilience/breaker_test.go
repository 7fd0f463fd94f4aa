package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	b := NewCircuitBreaker(BreakerConfig{FailureThreshold: 2, RecoveryTimeout: time.Second})
	now := time.Unix(0, 0)
	fail := func(context.Context) error { return errBoom }

	require.Error(t, b.Call(context.Background(), now, fail, nil))
	require.Equal(t, Closed, b.State(now))

	require.Error(t, b.Call(context.Background(), now, fail, nil))
	require.Equal(t, Open, b.State(now))
}

func TestBreakerOpenFastFailsWithoutFallback(t *testing.T) {
	b := NewCircuitBreaker(BreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Hour})
	now := time.Unix(0, 0)
	calls := 0
	fail := func(context.Context) error { calls++; return errBoom }

	require.Error(t, b.Call(context.Background(), now, fail, nil))
	require.Equal(t, 1, calls)

	err := b.Call(context.Background(), now, fail, nil)
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.Equal(t, 1, calls, "fn must not run while open")
}

func TestBreakerOpenInvokesFallback(t *testing.T) {
	b := NewCircuitBreaker(BreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Hour})
	now := time.Unix(0, 0)
	fail := func(context.Context) error { return errBoom }
	fallbackCalled := false
	fallback := func(context.Context) error { fallbackCalled = true; return nil }

	require.Error(t, b.Call(context.Background(), now, fail, nil))
	require.NoError(t, b.Call(context.Background(), now, fail, fallback))
	require.True(t, fallbackCalled)
}

func TestBreakerEntersHalfOpenAfterRecoveryTimeoutAndClosesOnSuccess(t *testing.T) {
	b := NewCircuitBreaker(BreakerConfig{FailureThreshold: 1, RecoveryTimeout: 10 * time.Second, HalfOpenMaxCalls: 1})
	start := time.Unix(0, 0)
	fail := func(context.Context) error { return errBoom }
	succeed := func(context.Context) error { return nil }

	require.Error(t, b.Call(context.Background(), start, fail, nil))
	require.Equal(t, Open, b.State(start))

	later := start.Add(11 * time.Second)
	require.Equal(t, HalfOpen, b.State(later))

	require.NoError(t, b.Call(context.Background(), later, succeed, nil))
	require.Equal(t, Closed, b.State(later))
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewCircuitBreaker(BreakerConfig{FailureThreshold: 1, RecoveryTimeout: 10 * time.Second, HalfOpenMaxCalls: 1})
	start := time.Unix(0, 0)
	fail := func(context.Context) error { return errBoom }

	require.Error(t, b.Call(context.Background(), start, fail, nil))
	later := start.Add(11 * time.Second)
	require.Equal(t, HalfOpen, b.State(later))

	require.Error(t, b.Call(context.Background(), later, fail, nil))
	require.Equal(t, Open, b.State(later))
}
