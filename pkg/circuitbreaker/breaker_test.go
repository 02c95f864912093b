package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBreakerTripsAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker("test", Config{
		MaxRequests:      1,
		Timeout:          20 * time.Millisecond,
		FailureThreshold: 2,
		SuccessThreshold: 1,
	})

	fail := func() error { return errors.New("boom") }
	ok := func() error { return nil }
	ctx := context.Background()

	if err := cb.Execute(ctx, fail); err == nil {
		t.Fatal("expected failure to propagate")
	}
	if err := cb.Execute(ctx, fail); err == nil {
		t.Fatal("expected failure to propagate")
	}
	if got := cb.State(); got != StateOpen {
		t.Fatalf("expected open after threshold, got %v", got)
	}

	if err := cb.Execute(ctx, ok); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	if err := cb.Execute(ctx, ok); err != nil {
		t.Fatalf("expected half-open probe to succeed, got %v", err)
	}
	if got := cb.State(); got != StateClosed {
		t.Fatalf("expected closed after successful probe, got %v", got)
	}
}

func TestBreakerHonorsContext(t *testing.T) {
	cb := NewCircuitBreaker("test", Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := cb.Execute(ctx, func() error {
		calls++
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no calls on a cancelled context, got %d", calls)
	}
}
