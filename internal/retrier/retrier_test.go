package retrier

import (
	"context"
	"errors"
	"testing"
	"time"
)

type tempError struct{}

func (tempError) Error() string   { return "transient" }
func (tempError) Temporary() bool { return true }

func TestRunRetriesTemporaryErrors(t *testing.T) {
	r, err := New(3, time.Millisecond, 10*time.Millisecond, 2.0, 0, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	attempts := 0
	err = r.Run(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return tempError{}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestRunStopsOnPermanentError(t *testing.T) {
	r, err := New(5, time.Millisecond, 10*time.Millisecond, 2.0, 0, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	permanent := errors.New("bad request")
	attempts := 0
	err = r.Run(context.Background(), func() error {
		attempts++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("err = %v, want permanent error", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestRunExhaustsAttemptBudget(t *testing.T) {
	r, err := New(2, time.Millisecond, 10*time.Millisecond, 2.0, 0, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	attempts := 0
	err = r.Run(context.Background(), func() error {
		attempts++
		return tempError{}
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	r, err := New(10, 50*time.Millisecond, time.Second, 2.0, 0, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = r.Run(ctx, func() error { return tempError{} })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name        string
		maxAttempts int
		baseDelay   time.Duration
		factor      float64
		jitter      float64
		want        error
	}{
		{"zero attempts", 0, time.Millisecond, 2.0, 0, ErrInvalidMaxAttempts},
		{"tiny base delay", 3, time.Nanosecond, 2.0, 0, ErrInvalidBaseDelay},
		{"sub-one factor", 3, time.Millisecond, 0.5, 0, ErrInvalidFactor},
		{"jitter above one", 3, time.Millisecond, 2.0, 1.5, ErrInvalidJitter},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.maxAttempts, tc.baseDelay, time.Second, tc.factor, tc.jitter, nil)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}
