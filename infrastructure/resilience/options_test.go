package resilience

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/felixgeelhaar/chartforge/domain/config"
)

func TestOptions(t *testing.T) {
	t.Parallel()

	c := DefaultExecutorConfig()
	for _, opt := range []Option{
		WithMaxConcurrent(20),
		WithCircuitBreakerThreshold(10),
		WithCircuitBreakerTimeout(60 * time.Second),
		WithRetryAttempts(5),
		WithRetryDelay(200 * time.Millisecond),
		WithTimeout(90 * time.Second),
	} {
		opt(&c)
	}

	if c.MaxConcurrent != 20 {
		t.Errorf("MaxConcurrent = %d, want 20", c.MaxConcurrent)
	}
	if c.CircuitBreakerThreshold != 10 {
		t.Errorf("CircuitBreakerThreshold = %d, want 10", c.CircuitBreakerThreshold)
	}
	if c.CircuitBreakerTimeout != 60*time.Second {
		t.Errorf("CircuitBreakerTimeout = %v, want 60s", c.CircuitBreakerTimeout)
	}
	if c.RetryMaxAttempts != 5 {
		t.Errorf("RetryMaxAttempts = %d, want 5", c.RetryMaxAttempts)
	}
	if c.RetryInitialDelay != 200*time.Millisecond {
		t.Errorf("RetryInitialDelay = %v, want 200ms", c.RetryInitialDelay)
	}
	if c.DefaultTimeout != 90*time.Second {
		t.Errorf("DefaultTimeout = %v, want 90s", c.DefaultTimeout)
	}
}

func TestNewExecutorWithOptions(t *testing.T) {
	t.Parallel()

	executor := NewExecutorWithOptions(WithMaxConcurrent(1), WithMaxConcurrent(2))
	out, err := executor.Render(context.Background(), func(ctx context.Context) ([]byte, error) {
		return []byte("ok"), nil
	})
	if err != nil || string(out) != "ok" {
		t.Errorf("Render() = %q, %v", out, err)
	}
}

func TestConfigFrom(t *testing.T) {
	t.Parallel()

	r := config.Default().Resilience
	c := ConfigFrom(r, 5*time.Second)
	if c.MaxConcurrent != 4 || c.RetryMaxAttempts != 3 || c.CircuitBreakerThreshold != 5 {
		t.Errorf("ConfigFrom(defaults) = %+v", c)
	}
	if c.DefaultTimeout != 5*time.Second {
		t.Errorf("DefaultTimeout = %v, want 5s", c.DefaultTimeout)
	}

	c = ConfigFrom(config.ResilienceConfig{}, 0)
	if c.RetryMaxAttempts != 1 {
		t.Errorf("RetryMaxAttempts = %d, want 1 when retry disabled", c.RetryMaxAttempts)
	}
	if c.CircuitBreakerThreshold != math.MaxInt32 {
		t.Errorf("CircuitBreakerThreshold = %d, want MaxInt32 when disabled", c.CircuitBreakerThreshold)
	}
	if c.DefaultTimeout != 30*time.Second {
		t.Errorf("DefaultTimeout = %v, want default", c.DefaultTimeout)
	}
}
