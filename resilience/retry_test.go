package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestRetry_Success(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), func(context.Context) error {
		attempts++
		return nil
	}, fastConfig(3), nil)

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestRetry_FailureThenSuccess(t *testing.T) {
	attempts := 0
	retries := 0
	cfg := fastConfig(5)
	cfg.OnRetry = func(int, error) { retries++ }
	err := Retry(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	}, cfg, nil)

	if err != nil {
		t.Errorf("Expected no error after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if retries != 2 {
		t.Errorf("Expected 2 retry callbacks, got %d", retries)
	}
}

func TestRetry_MaxAttempts(t *testing.T) {
	persistent := errors.New("persistent error")
	attempts := 0
	err := Retry(context.Background(), func(context.Context) error {
		attempts++
		return persistent
	}, fastConfig(2), nil)

	if !errors.Is(err, ErrMaxAttempts) {
		t.Errorf("Expected ErrMaxAttempts, got %v", err)
	}
	if !errors.Is(err, persistent) {
		t.Errorf("Expected last error to be wrapped, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestRetry_NonRetryable(t *testing.T) {
	attempts := 0
	fatal := errors.New("no such table")
	err := Retry(context.Background(), func(context.Context) error {
		attempts++
		return fatal
	}, fastConfig(5), IsRetryable)

	if err != fatal {
		t.Errorf("Expected non-retryable error returned as is, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(10)
	cfg.InitialBackoff = time.Hour
	cfg.MaxBackoff = time.Hour
	attempts := 0
	err := Retry(ctx, func(context.Context) error {
		attempts++
		cancel()
		return NewRetryableError(errors.New("busy"))
	}, cfg, IsRetryable)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{10, time.Second},
	}
	for _, tt := range tests {
		got := CalculateBackoff(tt.attempt, 100*time.Millisecond, time.Second, 2)
		if got != tt.want {
			t.Errorf("CalculateBackoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
