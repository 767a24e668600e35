package resilience

import (
	"math"
	"time"

	"github.com/felixgeelhaar/chartforge/domain/config"
)

// Option adjusts an ExecutorConfig.
type Option func(*ExecutorConfig)

func WithMaxConcurrent(n int) Option {
	return func(c *ExecutorConfig) { c.MaxConcurrent = n }
}

func WithCircuitBreakerThreshold(n int) Option {
	return func(c *ExecutorConfig) { c.CircuitBreakerThreshold = n }
}

func WithCircuitBreakerTimeout(d time.Duration) Option {
	return func(c *ExecutorConfig) { c.CircuitBreakerTimeout = d }
}

// WithRetryAttempts counts the first try, so 1 disables retries.
func WithRetryAttempts(n int) Option {
	return func(c *ExecutorConfig) { c.RetryMaxAttempts = n }
}

func WithRetryDelay(d time.Duration) Option {
	return func(c *ExecutorConfig) { c.RetryInitialDelay = d }
}

// WithTimeout bounds each render and each remote call.
func WithTimeout(d time.Duration) Option {
	return func(c *ExecutorConfig) { c.DefaultTimeout = d }
}

// NewExecutorWithOptions applies opts to the defaults.
func NewExecutorWithOptions(opts ...Option) *Executor {
	cfg := DefaultExecutorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewExecutor(cfg)
}

// ConfigFrom maps the resilience section of a config file. A disabled
// pattern gets limits high enough never to trigger.
func ConfigFrom(r config.ResilienceConfig, timeout time.Duration) ExecutorConfig {
	c := DefaultExecutorConfig()
	if timeout > 0 {
		c.DefaultTimeout = timeout
	}
	if r.Bulkhead.Enabled {
		c.MaxConcurrent = r.Bulkhead.MaxConcurrent
	} else {
		c.MaxConcurrent = 1024
	}
	if r.CircuitBreaker.Enabled {
		c.CircuitBreakerThreshold = r.CircuitBreaker.Threshold
		if d := r.CircuitBreaker.Timeout.Duration(); d > 0 {
			c.CircuitBreakerTimeout = d
		}
	} else {
		c.CircuitBreakerThreshold = math.MaxInt32
	}
	if r.Retry.Enabled {
		c.RetryMaxAttempts = r.Retry.MaxAttempts
		if d := r.Retry.InitialDelay.Duration(); d > 0 {
			c.RetryInitialDelay = d
		}
		if r.Retry.Multiplier > 0 {
			c.RetryBackoffMultiplier = r.Retry.Multiplier
		}
	} else {
		c.RetryMaxAttempts = 1
	}
	return c
}
