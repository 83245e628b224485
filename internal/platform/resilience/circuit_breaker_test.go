package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	breaker := NewCircuitBreaker(3, time.Minute, 1)

	for i := 0; i < 3; i++ {
		if err := breaker.Allow(); err != nil {
			t.Fatalf("expected closed breaker to allow, got %v", err)
		}
		breaker.RecordFailure()
	}

	if err := breaker.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen after threshold, got %v", err)
	}
	if breaker.State() != CircuitStateOpen {
		t.Fatalf("expected open state, got %s", breaker.State())
	}
}

func TestCircuitBreaker_SuccessResetsFailureStreak(t *testing.T) {
	breaker := NewCircuitBreaker(3, time.Minute, 1)

	breaker.RecordFailure()
	breaker.RecordFailure()
	breaker.RecordSuccess()
	breaker.RecordFailure()
	breaker.RecordFailure()

	if err := breaker.Allow(); err != nil {
		t.Fatalf("expected breaker still closed after interleaved success, got %v", err)
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	breaker := NewCircuitBreaker(1, 10*time.Second, 1)

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	breaker.now = func() time.Time { return current }

	breaker.RecordFailure()
	if err := breaker.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open breaker, got %v", err)
	}

	// After the open timeout a single probe is allowed through.
	current = current.Add(11 * time.Second)
	if err := breaker.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if err := breaker.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected second concurrent probe to be refused, got %v", err)
	}

	breaker.RecordSuccess()
	if breaker.State() != CircuitStateClosed {
		t.Fatalf("expected closed after successful probe, got %s", breaker.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	breaker := NewCircuitBreaker(1, 10*time.Second, 1)

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	breaker.now = func() time.Time { return current }

	breaker.RecordFailure()
	current = current.Add(11 * time.Second)
	if err := breaker.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}

	breaker.RecordFailure()
	if err := breaker.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected reopened breaker, got %v", err)
	}
}

func TestSingleFlight_SharesResultAcrossWaiters(t *testing.T) {
	var flight SingleFlight

	value, err, shared := flight.Do("key", func() (any, error) {
		return 42, nil
	})
	if err != nil || shared {
		t.Fatalf("expected direct call, got err=%v shared=%t", err, shared)
	}
	if value.(int) != 42 {
		t.Fatalf("expected 42, got %v", value)
	}
}
