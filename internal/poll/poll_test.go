package poll

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestUntil_ReadyImmediately(t *testing.T) {
	n, err := UntilCount(context.Background(), time.Hour, func() (bool, error) {
		return true, nil
	})
	if err != nil {
		t.Fatalf("UntilCount() error = %v, want nil", err)
	}
	if n != 1 {
		t.Errorf("attempts = %d, want 1", n)
	}
}

func TestUntil_ReadyAfterAttempts(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
	}{
		{name: "sleeping", interval: time.Millisecond},
		{name: "spinning", interval: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			n, err := UntilCount(context.Background(), tt.interval, func() (bool, error) {
				calls++
				return calls == 5, nil
			})
			if err != nil {
				t.Fatalf("UntilCount() error = %v, want nil", err)
			}
			if n != 5 {
				t.Errorf("attempts = %d, want 5", n)
			}
		})
	}
}

func TestUntil_ErrorsMeanNotYet(t *testing.T) {
	calls := 0
	err := Until(context.Background(), time.Millisecond, func() (bool, error) {
		calls++
		if calls < 3 {
			return false, errors.New("bus busy")
		}
		return true, nil
	})
	if err != nil {
		t.Fatalf("Until() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestUntil_Deadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := Until(ctx, time.Millisecond, func() (bool, error) { return false, nil })
	if !errors.Is(err, ErrDeadline) {
		t.Fatalf("Until() error = %v, want ErrDeadline", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Until() returned after %v, want close to 30ms", elapsed)
	}
}

func TestUntil_DeadlineCarriesLastError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Until(ctx, 0, func() (bool, error) { return false, errors.New("no ack") })
	if !errors.Is(err, ErrDeadline) {
		t.Fatalf("Until() error = %v, want ErrDeadline", err)
	}
	if !strings.Contains(err.Error(), "no ack") {
		t.Errorf("Until() error = %q, want it to mention the last condition error", err)
	}
}

func TestUntil_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Until(ctx, time.Millisecond, func() (bool, error) { return false, nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Until() error = %v, want context.Canceled", err)
	}
}

func TestUntil_AlreadyDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := UntilCount(ctx, time.Millisecond, func() (bool, error) { return true, nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("UntilCount() error = %v, want context.Canceled", err)
	}
	if n != 0 {
		t.Errorf("attempts = %d, want 0 for a finished context", n)
	}
}
