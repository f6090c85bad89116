package retry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/buswatch/internal/core/apperr"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestPolicy_Delay(t *testing.T) {
	p := Policy{
		MaxAttempts:   10,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}

	// Attempt 0 runs immediately
	if d := p.Delay(0); d != 0 {
		t.Errorf("expected 0, got %v", d)
	}

	// Attempt 1: 100ms*2^1 = 200ms
	if d := p.Delay(1); d != 200*time.Millisecond {
		t.Errorf("expected 200ms, got %v", d)
	}

	// Attempt 2: 100ms*2^2 = 400ms
	if d := p.Delay(2); d != 400*time.Millisecond {
		t.Errorf("expected 400ms, got %v", d)
	}

	// Attempt 10: capped at MaxDelay
	if d := p.Delay(10); d != time.Second {
		t.Errorf("expected 1s, got %v", d)
	}
}

func TestPolicy_DelayMonotonic(t *testing.T) {
	policies := []Policy{
		DefaultPolicy,
		{MaxAttempts: 3, InitialDelay: time.Second, MaxDelay: 500 * time.Millisecond, BackoffFactor: 3},
		{MaxAttempts: 3, InitialDelay: 10 * time.Millisecond, MaxDelay: time.Minute, BackoffFactor: 1.0},
		{MaxAttempts: 3, InitialDelay: 0, MaxDelay: time.Second, BackoffFactor: 1.7},
	}

	for _, p := range policies {
		prev := p.Delay(0)
		if prev != 0 {
			t.Errorf("%+v: expected zero delay for attempt 0, got %v", p, prev)
		}
		for k := 1; k < 50; k++ {
			d := p.Delay(k)
			if d < prev {
				t.Errorf("%+v: delay decreased at attempt %d: %v < %v", p, k, d, prev)
			}
			if d > p.MaxDelay {
				t.Errorf("%+v: delay %v exceeds max %v", p, d, p.MaxDelay)
			}
			prev = d
		}
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), "test", fastPolicy(3), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 1 {
		t.Errorf("expected ok after 1 call, got %q after %d", got, calls)
	}
}

func TestDo_RetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), "test", fastPolicy(5), func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("connection refused")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 || calls != 3 {
		t.Errorf("expected 42 after 3 calls, got %d after %d", got, calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), "test", fastPolicy(4), func(ctx context.Context) (int, error) {
		calls++
		return 0, apperr.New(apperr.ServiceUnavailable, "attempt %d", calls)
	})
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}

	var classified *apperr.Error
	if !errors.As(err, &classified) {
		t.Fatalf("expected classified error, got %v", err)
	}
	if classified.Kind != apperr.ServiceUnavailable {
		t.Errorf("expected ServiceUnavailable, got %v", classified.Kind)
	}
	if classified.Message != "attempt 4" {
		t.Errorf("expected last error to be returned, got %q", classified.Message)
	}
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), "test", fastPolicy(5), func(ctx context.Context) (int, error) {
		calls++
		return 0, apperr.New(apperr.NotFound, "invalid member")
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestDo_ClassifiesRawErrors(t *testing.T) {
	_, err := Do(context.Background(), "test", fastPolicy(2), func(ctx context.Context) (int, error) {
		return 0, errors.New("dial unix /run/user/1000/bus: no such file or directory")
	})
	if apperr.KindOf(err) != apperr.BadGateway {
		t.Errorf("expected BadGateway, got %v", err)
	}
}

func TestDo_SingleAttempt(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), "test", fastPolicy(1), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("timeout")
	})
	if err == nil || calls != 1 {
		t.Errorf("expected one failing call, got %d calls, err=%v", calls, err)
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, BackoffFactor: 1}

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, "test", policy, func(ctx context.Context) (int, error) {
			calls++
			return 0, errors.New("timeout")
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestDo_LogsEveryAttempt(t *testing.T) {
	logs := captureLogs(t)

	calls := 0
	_, err := Do(context.Background(), "log test", fastPolicy(3), func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, apperr.New(apperr.BadGateway, "flaky")
		}
		return calls, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var attempts []string
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		if strings.Contains(line, "outcome=") {
			attempts = append(attempts, line)
		}
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempt records, got %d: %v", len(attempts), attempts)
	}
	for i, want := range []string{"attempt=1", "attempt=2"} {
		if !strings.Contains(attempts[i], want) || !strings.Contains(attempts[i], `operation="log test"`) {
			t.Errorf("record %d missing %s or operation: %s", i, want, attempts[i])
		}
	}
	if !strings.Contains(attempts[0], "outcome=transient") {
		t.Errorf("expected transient outcome, got %s", attempts[0])
	}
	if !strings.Contains(attempts[1], "outcome=success") {
		t.Errorf("expected success outcome, got %s", attempts[1])
	}
}

func TestDo_LogsFirstAttemptSuccess(t *testing.T) {
	logs := captureLogs(t)

	if _, err := Do(context.Background(), "once", fastPolicy(3), func(ctx context.Context) (bool, error) {
		return true, nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := logs.String()
	if !strings.Contains(out, "Operation succeeded") || !strings.Contains(out, "attempt=1") || !strings.Contains(out, "outcome=success") {
		t.Errorf("expected a success record for attempt 1, got %q", out)
	}
}
