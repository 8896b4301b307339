package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(attempts int) Config {
	return Config{MaxAttempts: attempts, Delay: 5 * time.Millisecond}
}

func TestDo_Success(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(3), func(attempt int) error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestDo_SuccessAfterRetry(t *testing.T) {
	var seen []int
	err := Do(context.Background(), fastConfig(3), func(attempt int) error {
		seen = append(seen, attempt)
		if attempt < 3 {
			return errors.New("HTTP 502")
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if len(seen) != 3 || seen[0] != 1 || seen[2] != 3 {
		t.Errorf("unexpected attempt numbers %v", seen)
	}
}

func TestDo_MaxAttemptsExceeded(t *testing.T) {
	testErr := errors.New("connection refused")
	attempts := 0
	err := Do(context.Background(), fastConfig(3), func(attempt int) error {
		attempts++
		return testErr
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, testErr) {
		t.Errorf("expected wrapped testErr, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestDo_FixedDelay(t *testing.T) {
	cfg := Config{MaxAttempts: 3, Delay: 20 * time.Millisecond}

	start := time.Now()
	_ = Do(context.Background(), cfg, func(attempt int) error {
		return errors.New("fail")
	})
	elapsed := time.Since(start)

	// two pauses between three attempts, none after the last
	if elapsed < 40*time.Millisecond {
		t.Errorf("expected at least 40ms of delay, got %v", elapsed)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("delay grew unexpectedly: %v", elapsed)
	}
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	attempts := 0
	_ = Do(context.Background(), Config{MaxAttempts: 0}, func(attempt int) error {
		attempts++
		return errors.New("fail")
	})

	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestDo_ContextCanceledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 3, Delay: time.Second}

	attempts := 0
	err := Do(ctx, cfg, func(attempt int) error {
		attempts++
		cancel()
		return errors.New("fail")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", attempts)
	}
}

func TestPresets(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		attempts int
		delay    time.Duration
	}{
		{"resource fetch", ResourceFetchConfig(), 3, 2 * time.Second},
		{"text fetch", TextFetchConfig(), 1, 2 * time.Second},
		{"feed parse", FeedParseConfig(), 3, 2 * time.Second},
		{"mail send", MailSendConfig(), 3, 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cfg.MaxAttempts != tt.attempts {
				t.Errorf("MaxAttempts = %d, want %d", tt.cfg.MaxAttempts, tt.attempts)
			}
			if tt.cfg.Delay != tt.delay {
				t.Errorf("Delay = %v, want %v", tt.cfg.Delay, tt.delay)
			}
			if err := tt.cfg.Validate(); err != nil {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := (Config{MaxAttempts: 0, Delay: time.Second}).Validate(); err == nil {
		t.Error("expected error for zero attempts")
	}
	if err := (Config{MaxAttempts: 1, Delay: -time.Second}).Validate(); err == nil {
		t.Error("expected error for negative delay")
	}
	if err := (Config{MaxAttempts: 1, Delay: 0}).Validate(); err != nil {
		t.Errorf("expected zero delay to be valid, got %v", err)
	}
}

func TestDo_PermanentStopsRetrying(t *testing.T) {
	testErr := errors.New("circuit breaker is open")
	attempts := 0
	err := Do(context.Background(), fastConfig(3), func(attempt int) error {
		attempts++
		return Permanent(testErr)
	})

	if err != testErr {
		t.Errorf("expected the unwrapped error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestPermanent_Nil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}
