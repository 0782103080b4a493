package retry

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	p := Policy{Attempts: 3, Delay: time.Millisecond}

	got, err := Do(context.Background(), p, discard(), "flaky", func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if got != 42 {
		t.Errorf("Do() = %d, want 42", got)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	p := Policy{Attempts: 4, Delay: time.Millisecond}
	sentinel := errors.New("boom")

	_, err := Do(context.Background(), p, discard(), "hopeless", func(context.Context) (string, error) {
		calls++
		return "", sentinel
	})
	if err == nil {
		t.Fatal("Do() expected error after exhaustion")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("Do() error = %v, want wrapped %v", err, sentinel)
	}
	if calls != 4 {
		t.Errorf("fn called %d times, want exactly 4", calls)
	}
}

func TestDo_FirstAttemptSuccess(t *testing.T) {
	calls := 0
	p := Policy{Attempts: 3, Delay: time.Hour} // delay must never be hit

	got, err := Do(context.Background(), p, discard(), "steady", func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if got != "ok" || calls != 1 {
		t.Errorf("Do() = %q after %d calls, want %q after 1", got, calls, "ok")
	}
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{}, discard(), "op", func(context.Context) (int, error) {
		calls++
		return 1, nil
	})
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestDo_ContextCanceledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Attempts: 5, Delay: time.Minute}
	calls := 0

	_, err := Do(ctx, p, discard(), "canceled", func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("fail then cancel")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestRun_PropagatesError(t *testing.T) {
	sentinel := errors.New("nope")
	err := Run(context.Background(), Policy{Attempts: 2, Delay: time.Millisecond}, discard(), "op",
		func(context.Context) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Errorf("Run() error = %v, want wrapped %v", err, sentinel)
	}
}
