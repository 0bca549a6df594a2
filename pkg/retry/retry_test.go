package retry

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.MaxAttempts != 3 {
		t.Errorf("expected MaxAttempts=3, got %d", config.MaxAttempts)
	}
	if config.OperationName != "operation" {
		t.Errorf("expected OperationName=operation, got %q", config.OperationName)
	}
}

func TestEBusyConfig(t *testing.T) {
	config := EBusyConfig("remove-subsystem")
	if config.MaxAttempts != 6 {
		t.Errorf("expected MaxAttempts=6, got %d", config.MaxAttempts)
	}
	if config.InitialBackoff != config.MaxBackoff {
		t.Errorf("expected fixed-interval backoff, got initial=%v max=%v", config.InitialBackoff, config.MaxBackoff)
	}
	if config.RetryableFunc == nil || !config.RetryableFunc(fmt.Errorf("wrap: %w", syscall.EBUSY)) {
		t.Error("expected RetryableFunc to accept wrapped EBUSY")
	}
}

func TestWithRetry_Success(t *testing.T) {
	config := Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 10 * time.Millisecond, BackoffMultiplier: 2.0}

	calls := 0
	result, err := WithRetry(context.Background(), config, func() (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil || result != "ok" || calls != 1 {
		t.Fatalf("unexpected result=%q err=%v calls=%d", result, err, calls)
	}
}

func TestWithRetry_EventualSuccessOnEBusy(t *testing.T) {
	config := EBusyConfig("remove-namespace")
	config.InitialBackoff = time.Millisecond
	config.MaxBackoff = time.Millisecond

	calls := 0
	err := WithRetryNoResult(context.Background(), config, func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("remove failed: %w", syscall.EBUSY)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetry_NonRetryableStopsImmediately(t *testing.T) {
	config := EBusyConfig("remove-port")
	config.InitialBackoff = time.Millisecond
	config.MaxBackoff = time.Millisecond

	calls := 0
	err := WithRetryNoResult(context.Background(), config, func() error {
		calls++
		return syscall.ENOENT
	})
	if !errors.Is(err, syscall.ENOENT) {
		t.Fatalf("expected ENOENT to be returned unretried, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", calls)
	}
}

func TestWithRetry_AllAttemptsFail(t *testing.T) {
	config := Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 10 * time.Millisecond, BackoffMultiplier: 2.0, OperationName: "failing-op"}

	calls := 0
	_, err := WithRetry(context.Background(), config, func() (string, error) {
		calls++
		return "", fmt.Errorf("wrap: %w", syscall.EBUSY)
	})
	if !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Errorf("expected ErrMaxRetriesExceeded, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetry_ContextCanceledBeforeStart(t *testing.T) {
	config := Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 10 * time.Millisecond, BackoffMultiplier: 2.0}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := WithRetry(ctx, config, func() (string, error) {
		calls++
		return "unreachable", nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected 0 calls, got %d", calls)
	}
}

func TestIsEBusy(t *testing.T) {
	if !IsEBusy(fmt.Errorf("remove %q: %w", "/sys/x", syscall.EBUSY)) {
		t.Error("expected wrapped EBUSY to be detected")
	}
	if IsEBusy(syscall.ENOENT) {
		t.Error("expected ENOENT not to be treated as EBUSY")
	}
	if IsEBusy(nil) {
		t.Error("expected nil not to be treated as EBUSY")
	}
}
