package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/feral-file/ff-token-scanner/internal/logger"
)

// ErrClosed is returned for requests submitted after Close
var ErrClosed = errors.New("rate limit proxy is closed")

// RequestFunc performs the actual upstream request
type RequestFunc func(ctx context.Context) (interface{}, error)

type requestResult struct {
	value interface{}
	err   error
}

// ProviderConfig is the rate budget of one upstream provider
type ProviderConfig struct {
	RequestsPerSecond float64
	Burst             int
	// MaxQueueTime bounds how long a request may wait for a token
	MaxQueueTime time.Duration
}

// QueueTimeFor returns a MaxQueueTime long enough for the last of concurrency
// callers sharing one bucket to get its token, with twice the headroom and never
// below floor.
func QueueTimeFor(rps float64, burst, concurrency int, floor time.Duration) time.Duration {
	if rps <= 0 {
		return floor
	}
	waiting := concurrency - max(burst, 1)
	if waiting <= 0 {
		return floor
	}
	wait := time.Duration(2 * float64(waiting) / rps * float64(time.Second))
	return max(wait, floor)
}

// Config holds the proxy configuration
type Config struct {
	Providers    map[string]ProviderConfig
	MaxWorkers   int
	MaxQueueSize int
}

// Proxy throttles requests per provider and caps overall in-flight requests
//
//go:generate mockgen -source=proxy.go -destination=../mocks/ratelimit_proxy.go -package=mocks -mock_names=Proxy=MockRateLimitProxy
type Proxy interface {
	// Request waits for a token of providerName and runs fn
	Request(ctx context.Context, providerName string, fn RequestFunc) (interface{}, error)

	// Close stops accepting requests and waits for in-flight ones
	Close() error
}

type proxy struct {
	pool      pond.ResultPool[*requestResult]
	limiters  map[string]*providerLimiter
	closed    atomic.Bool
	closeOnce sync.Once
}

type providerLimiter struct {
	name    string
	config  ProviderConfig
	limiter *rate.Limiter
}

// NewProxy creates a proxy with one token bucket per configured provider
func NewProxy(cfg Config) (Proxy, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	limiters := make(map[string]*providerLimiter, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		limiters[name] = &providerLimiter{
			name:    name,
			config:  pc,
			limiter: rate.NewLimiter(rate.Limit(pc.RequestsPerSecond), pc.Burst),
		}
	}

	logger.Info("Rate limit proxy initialized",
		zap.Int("max_workers", cfg.MaxWorkers),
		zap.Int("max_queue_size", cfg.MaxQueueSize),
		zap.Int("providers", len(cfg.Providers)),
	)

	return &proxy{
		pool:     pond.NewResultPool[*requestResult](cfg.MaxWorkers, pond.WithQueueSize(cfg.MaxQueueSize)),
		limiters: limiters,
	}, nil
}

// Request runs fn through p with a typed result. A nil proxy runs fn directly.
func Request[T any](ctx context.Context, p Proxy, providerName string, fn func(ctx context.Context) (T, error)) (T, error) {
	if p == nil {
		return fn(ctx)
	}

	var zero T
	result, err := p.Request(ctx, providerName, func(ctx context.Context) (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, nil
	}
	return typed, nil
}

func (p *proxy) Request(ctx context.Context, providerName string, fn RequestFunc) (interface{}, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}

	limiter, ok := p.limiters[providerName]
	if !ok {
		return nil, fmt.Errorf("provider '%s' not configured", providerName)
	}

	// A full queue surfaces as pond.ErrQueueFull from Wait
	task := p.pool.Submit(func() *requestResult {
		value, err := p.execute(ctx, limiter, fn)
		return &requestResult{value: value, err: err}
	})

	result, err := task.Wait()
	if err != nil {
		return nil, fmt.Errorf("provider '%s': %w", providerName, err)
	}
	return result.value, result.err
}

// execute waits for a token then runs fn. The wait is bounded by MaxQueueTime,
// the request itself only by ctx.
func (p *proxy) execute(ctx context.Context, limiter *providerLimiter, fn RequestFunc) (interface{}, error) {
	waitCtx, cancel := context.WithTimeout(ctx, limiter.config.MaxQueueTime)
	defer cancel()

	if err := limiter.limiter.Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Rate limit token wait exceeded",
			zap.String("provider", limiter.name),
			zap.Duration("max_queue_time", limiter.config.MaxQueueTime),
		)
		return nil, fmt.Errorf("provider '%s': rate limit wait: %w", limiter.name, err)
	}

	return fn(ctx)
}

func (p *proxy) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		logger.Info("Shutting down rate limit proxy")
		err = p.pool.Stop().Wait()
	})
	return err
}

func validateConfig(cfg *Config) error {
	if len(cfg.Providers) == 0 {
		return fmt.Errorf("at least one provider must be configured")
	}

	for name, provider := range cfg.Providers {
		if provider.RequestsPerSecond <= 0 {
			return fmt.Errorf("provider %s: requests_per_second must be positive", name)
		}
		if provider.Burst <= 0 {
			provider.Burst = max(int(provider.RequestsPerSecond), 1)
		}
		if provider.MaxQueueTime <= 0 {
			provider.MaxQueueTime = time.Minute
		}
		cfg.Providers[name] = provider
	}

	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 16
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 1000
	}
	return nil
}
