// Package resilience guards chart rendering and remote calls with fortify.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// Remote call targets. Each has its own circuit breaker, so a database
// that keeps failing does not block publishing.
const (
	TargetArtifacts = "artifacts"
	TargetSource    = "source:" // followed by the source kind
)

// RenderFunc produces encoded chart bytes.
type RenderFunc func(ctx context.Context) ([]byte, error)

// Executor bounds concurrent renders with a bulkhead and runs remote calls
// through a per-target circuit breaker, retrying idempotent ones.
type Executor struct {
	cfg      ExecutorConfig
	bulkhead bulkhead.Bulkhead[[]byte]
	retry    retry.Retry[any]

	mu       sync.Mutex
	breakers map[string]circuitbreaker.CircuitBreaker[any]
}

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	// MaxConcurrent caps renders in flight.
	MaxConcurrent int

	// CircuitBreakerThreshold is the consecutive failures that open a
	// target's circuit; CircuitBreakerTimeout is how long it stays open.
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration

	RetryMaxAttempts       int
	RetryInitialDelay      time.Duration
	RetryBackoffMultiplier float64

	// DefaultTimeout bounds one render or remote call.
	DefaultTimeout time.Duration
}

func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxConcurrent:           4,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
		RetryMaxAttempts:        3,
		RetryInitialDelay:       100 * time.Millisecond,
		RetryBackoffMultiplier:  2.0,
		DefaultTimeout:          30 * time.Second,
	}
}

// NewExecutor replaces non-positive limits with the defaults.
func NewExecutor(cfg ExecutorConfig) *Executor {
	def := DefaultExecutorConfig()
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.CircuitBreakerThreshold <= 0 {
		cfg.CircuitBreakerThreshold = def.CircuitBreakerThreshold
	}
	if cfg.RetryMaxAttempts <= 0 {
		cfg.RetryMaxAttempts = 1
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = def.DefaultTimeout
	}

	return &Executor{
		cfg:      cfg,
		bulkhead: bulkhead.New[[]byte](bulkhead.Config{MaxConcurrent: cfg.MaxConcurrent}),
		retry: retry.New[any](retry.Config{
			MaxAttempts:   cfg.RetryMaxAttempts,
			InitialDelay:  cfg.RetryInitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    cfg.RetryBackoffMultiplier,
		}),
		breakers: make(map[string]circuitbreaker.CircuitBreaker[any]),
	}
}

func NewDefaultExecutor() *Executor {
	return NewExecutor(DefaultExecutorConfig())
}

func (e *Executor) breaker(target string) circuitbreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cb, ok := e.breakers[target]; ok {
		return cb
	}
	threshold := uint32(e.cfg.CircuitBreakerThreshold) // #nosec G115 -- positive, checked in NewExecutor
	cb := circuitbreaker.New[any](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    e.cfg.CircuitBreakerTimeout,
		Timeout:     e.cfg.CircuitBreakerTimeout,
		ReadyToTrip: func(c circuitbreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
	})
	e.breakers[target] = cb
	return cb
}

// Render runs fn in the bulkhead under the default timeout. A chart
// renders the same way every time, so failures are not retried.
func (e *Executor) Render(ctx context.Context, fn RenderFunc) ([]byte, error) {
	return e.bulkhead.Execute(ctx, func(ctx context.Context) ([]byte, error) {
		ctx, cancel := context.WithTimeout(ctx, e.cfg.DefaultTimeout)
		defer cancel()
		return fn(ctx)
	})
}

// call runs fn against target under the default timeout.
func (e *Executor) call(ctx context.Context, target string, idempotent bool, fn func(context.Context) (any, error)) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.DefaultTimeout)
	defer cancel()

	return e.breaker(target).Execute(ctx, func(ctx context.Context) (any, error) {
		if !idempotent {
			return fn(ctx)
		}
		return e.retry.Do(ctx, fn)
	})
}

// Do runs a remote operation against target. Idempotent operations are
// retried with backoff before the failure counts against the breaker.
func Do[T any](ctx context.Context, e *Executor, target string, idempotent bool, fn func(context.Context) (T, error)) (T, error) {
	out, err := e.call(ctx, target, idempotent, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}

// State reports the circuit of target. Targets never called are closed.
func (e *Executor) State(target string) circuitbreaker.State {
	return e.breaker(target).State()
}
