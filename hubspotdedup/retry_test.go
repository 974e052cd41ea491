package hubspotdedup

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func fastPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}
}

func rateLimitErr() error {
	return &APIError{Operation: "search contacts", StatusCode: http.StatusTooManyRequests, Status: "429 Too Many Requests"}
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("some error"), false},
		{"429", rateLimitErr(), true},
		{"wrapped 429", errors.Join(errors.New("context"), rateLimitErr()), true},
		{"exhausted retries", errors.Join(ErrRateLimitExceeded, rateLimitErr()), true},
		{"500", &APIError{StatusCode: http.StatusInternalServerError}, false},
		{"unauthorized", &APIError{StatusCode: http.StatusUnauthorized}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimited(tt.err); got != tt.want {
				t.Errorf("IsRateLimited() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	if p.MaxRetries != 8 {
		t.Errorf("MaxRetries = %d, want 8", p.MaxRetries)
	}
	if p.BaseDelay != 2*time.Second {
		t.Errorf("BaseDelay = %v, want 2s", p.BaseDelay)
	}
}

func TestRetry_Success(t *testing.T) {
	callCount := 0
	result, err := retry(context.Background(), fastPolicy(3), nil, func() (string, error) {
		callCount++
		return "success", nil
	})

	if err != nil {
		t.Errorf("retry() error = %v, want nil", err)
	}
	if result != "success" {
		t.Errorf("retry() result = %v, want success", result)
	}
	if callCount != 1 {
		t.Errorf("retry() called %d times, want 1", callCount)
	}
}

func TestRetry_RateLimited(t *testing.T) {
	callCount := 0
	var delays []time.Duration

	result, err := retry(context.Background(), fastPolicy(3), func(attempt int, d time.Duration, err error) {
		if attempt != len(delays)+1 {
			t.Errorf("notify attempt = %d, want %d", attempt, len(delays)+1)
		}
		delays = append(delays, d)
	}, func() (string, error) {
		callCount++
		if callCount < 3 {
			return "", rateLimitErr()
		}
		return "success", nil
	})

	if err != nil {
		t.Errorf("retry() error = %v, want nil", err)
	}
	if result != "success" {
		t.Errorf("retry() result = %v, want success", result)
	}
	if callCount != 3 {
		t.Errorf("retry() called %d times, want 3", callCount)
	}
	if len(delays) != 2 {
		t.Fatalf("notify called %d times, want 2", len(delays))
	}
	if delays[0] != time.Millisecond || delays[1] != 2*time.Millisecond {
		t.Errorf("delays = %v, want [1ms 2ms]", delays)
	}
}

func TestRetry_NonRetryableError(t *testing.T) {
	callCount := 0
	unauthorized := &APIError{Operation: "get contact", StatusCode: http.StatusUnauthorized}

	_, err := retry(context.Background(), fastPolicy(3), nil, func() (string, error) {
		callCount++
		return "", unauthorized
	})

	if err != unauthorized {
		t.Errorf("retry() error = %v, want %v", err, unauthorized)
	}
	if callCount != 1 {
		t.Errorf("retry() called %d times, want 1 (no retry for non-429)", callCount)
	}
}

func TestRetry_MaxRetries(t *testing.T) {
	callCount := 0

	_, err := retry(context.Background(), fastPolicy(2), nil, func() (string, error) {
		callCount++
		return "", rateLimitErr()
	})

	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("retry() error = %v, want ErrRateLimitExceeded", err)
	}
	if !IsRateLimited(err) {
		t.Error("exhausted retry error should still unwrap to the 429")
	}
	// maxRetries=2 means 3 attempts total (initial + 2 retries)
	if callCount != 3 {
		t.Errorf("retry() called %d times, want 3", callCount)
	}
}

func TestRetry_DelayCappedAtMax(t *testing.T) {
	var delays []time.Duration
	_, _ = retry(context.Background(), fastPolicy(6), func(attempt int, d time.Duration, err error) {
		delays = append(delays, d)
	}, func() (int, error) {
		return 0, rateLimitErr()
	})

	for _, d := range delays {
		if d > 5*time.Millisecond {
			t.Errorf("delay %v exceeds max delay", d)
		}
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	callCount := 0

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	policy := RetryPolicy{MaxRetries: 10, BaseDelay: 20 * time.Millisecond, MaxDelay: time.Second}
	_, err := retry(ctx, policy, nil, func() (string, error) {
		callCount++
		return "", rateLimitErr()
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("retry() error = %v, want context.Canceled", err)
	}
	if callCount >= 10 {
		t.Errorf("retry() called %d times, should have been cancelled early", callCount)
	}
}

func TestRetry_ZeroRetries(t *testing.T) {
	callCount := 0

	_, err := retry(context.Background(), fastPolicy(0), nil, func() (string, error) {
		callCount++
		return "", rateLimitErr()
	})

	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("retry() error = %v, want ErrRateLimitExceeded", err)
	}
	if callCount != 1 {
		t.Errorf("retry() called %d times, want 1", callCount)
	}
}

func TestRetry_HonorsRetryAfter(t *testing.T) {
	tests := []struct {
		name       string
		retryAfter time.Duration
		want       []time.Duration
	}{
		{"shorter than backoff", 500 * time.Microsecond, []time.Duration{time.Millisecond, 2 * time.Millisecond}},
		{"longer than backoff", 3 * time.Millisecond, []time.Duration{3 * time.Millisecond, 3 * time.Millisecond}},
		{"capped at max delay", time.Minute, []time.Duration{5 * time.Millisecond, 5 * time.Millisecond}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var delays []time.Duration
			callCount := 0

			_, err := retry(context.Background(), fastPolicy(2), func(attempt int, d time.Duration, err error) {
				delays = append(delays, d)
			}, func() (string, error) {
				callCount++
				if callCount <= 2 {
					return "", &APIError{StatusCode: http.StatusTooManyRequests, RetryAfter: tt.retryAfter}
				}
				return "ok", nil
			})

			if err != nil {
				t.Fatalf("retry() error = %v", err)
			}
			if len(delays) != len(tt.want) {
				t.Fatalf("delays = %v, want %v", delays, tt.want)
			}
			for i := range delays {
				if delays[i] != tt.want[i] {
					t.Errorf("delay[%d] = %v, want %v", i, delays[i], tt.want[i])
				}
			}
		})
	}
}
