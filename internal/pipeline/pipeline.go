// Package pipeline assembles a scanner and its collaborators from configuration.
// Both the scanner program and the API server (when it embeds a scanner) build
// through here.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/ff-token-scanner/internal/adapter"
	"github.com/feral-file/ff-token-scanner/internal/config"
	"github.com/feral-file/ff-token-scanner/internal/detector"
	"github.com/feral-file/ff-token-scanner/internal/enrich"
	"github.com/feral-file/ff-token-scanner/internal/lock"
	"github.com/feral-file/ff-token-scanner/internal/logger"
	"github.com/feral-file/ff-token-scanner/internal/messaging"
	"github.com/feral-file/ff-token-scanner/internal/metrics"
	"github.com/feral-file/ff-token-scanner/internal/probe"
	"github.com/feral-file/ff-token-scanner/internal/providers/ethereum"
	"github.com/feral-file/ff-token-scanner/internal/providers/jetstream"
	"github.com/feral-file/ff-token-scanner/internal/providers/vendors/coingecko"
	"github.com/feral-file/ff-token-scanner/internal/providers/vendors/tokensniffer"
	"github.com/feral-file/ff-token-scanner/internal/ratelimit"
	"github.com/feral-file/ff-token-scanner/internal/registry"
	"github.com/feral-file/ff-token-scanner/internal/scanner"
	"github.com/feral-file/ff-token-scanner/internal/store"
)

// Adapters are the outside-world constructors a pipeline is built from
type Adapters struct {
	EthDialer adapter.EthClientDialer
	NatsJS    adapter.NatsJetStream
	FS        adapter.FileSystem
	Clock     adapter.Clock
	NewRedis  func(addr, password string, db int) adapter.RedisClient
	// NewHTTP is optional; the default retries 429s and network errors with backoff
	NewHTTP func(cfg config.EnrichConfig) adapter.HTTPClient
}

// DefaultAdapters returns the production adapters
func DefaultAdapters() Adapters {
	return Adapters{
		EthDialer: adapter.NewEthClientDialer(),
		NatsJS:    adapter.NewNatsJetStream(),
		FS:        adapter.NewFileSystem(),
		Clock:     adapter.NewClock(),
		NewRedis:  adapter.NewRedisClient,
	}
}

// Pipeline is a ready scanner plus the resources it holds open
type Pipeline struct {
	Scanner scanner.Scanner
	closers []func()
}

// Close releases resources in reverse order of acquisition
func (p *Pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
	p.closers = nil
}

func (p *Pipeline) onClose(fn func()) {
	p.closers = append(p.closers, fn)
}

// Build dials the chain, loads the ignore list and wires the optional
// publisher and lock. NATS and Redis are skipped when their address is empty.
func Build(ctx context.Context, cfg config.PipelineConfig, st store.Store, m *metrics.Metrics, a Adapters) (_ *Pipeline, err error) {
	p := &Pipeline{}
	defer func() {
		if err != nil {
			p.Close()
		}
	}()

	// Chain
	ethClient, err := a.EthDialer.Dial(ctx, cfg.Chain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial chain RPC: %w", err)
	}
	p.onClose(ethClient.Close)

	chain, err := ethereum.NewClient(cfg.Chain.ChainID, ethClient, cfg.Chain.CallTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create chain client: %w", err)
	}
	if err := chain.VerifyChainID(ctx); err != nil {
		return nil, err
	}
	logger.InfoCtx(ctx, "Connected to chain RPC",
		zap.String("chain", string(chain.Chain())),
		zap.String("name", cfg.Chain.Name))

	// Ignore list
	ignoreList := registry.NewIgnoreList(nil)
	if cfg.IgnoreListPath != "" {
		ignoreList, err = registry.NewIgnoreListLoader(a.FS).Load(cfg.IgnoreListPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load ignore list %s: %w", cfg.IgnoreListPath, err)
		}
		logger.InfoCtx(ctx, "Loaded ignore list",
			zap.String("path", cfg.IgnoreListPath),
			zap.Int("entries", ignoreList.Len()))
	} else {
		logger.WarnCtx(ctx, "Ignore list path not configured, every new contract will be probed")
	}

	// Enrichment. Each scan worker enriches one token at a time, so at most
	// PoolSize callers queue on a provider bucket.
	limiter, err := ratelimit.NewProxy(ratelimit.Config{
		Providers: map[string]ratelimit.ProviderConfig{
			enrich.ProviderRisk: {
				RequestsPerSecond: cfg.TokenSniffer.RequestsPerSecond,
				Burst:             cfg.TokenSniffer.Burst,
				MaxQueueTime: ratelimit.QueueTimeFor(cfg.TokenSniffer.RequestsPerSecond,
					cfg.TokenSniffer.Burst, cfg.Worker.WorkerPoolSize, cfg.Enrich.Timeout),
			},
			enrich.ProviderMarket: {
				RequestsPerSecond: cfg.CoinGecko.RequestsPerSecond,
				Burst:             cfg.CoinGecko.Burst,
				MaxQueueTime: ratelimit.QueueTimeFor(cfg.CoinGecko.RequestsPerSecond,
					cfg.CoinGecko.Burst, cfg.Worker.WorkerPoolSize, cfg.Enrich.Timeout),
			},
		},
		MaxWorkers:   cfg.Enrich.MaxWorkers,
		MaxQueueSize: cfg.Worker.WorkerQueueSize * 2,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit proxy: %w", err)
	}
	p.onClose(func() {
		if err := limiter.Close(); err != nil {
			logger.Warn("failed to close rate limit proxy", zap.Error(err))
		}
	})

	newHTTP := a.NewHTTP
	if newHTTP == nil {
		newHTTP = func(c config.EnrichConfig) adapter.HTTPClient {
			return adapter.NewHTTPClient(c.HTTPTimeout, adapter.RetryPolicy{})
		}
	}
	httpClient := newHTTP(cfg.Enrich)

	if cfg.TokenSniffer.APIKey == "" {
		logger.WarnCtx(ctx, "Risk service API key not configured, every token will be stored as Unknown")
	}
	risk := tokensniffer.NewClient(httpClient, cfg.TokenSniffer.URL, cfg.TokenSniffer.APIKey)
	market := coingecko.NewClient(httpClient, cfg.CoinGecko.URL, cfg.CoinGecko.APIKey, cfg.CoinGecko.Platform)
	enricher := enrich.NewEnricher(risk, market, limiter, cfg.Enrich.Timeout)

	// Events
	publisher := messaging.NewNoopPublisher()
	if cfg.NATS.URL != "" {
		publisher, err = jetstream.NewPublisher(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
			ChainName:      cfg.Chain.Name,
		}, a.NatsJS)
		if err != nil {
			return nil, err
		}
		p.onClose(publisher.Close)
	} else {
		logger.InfoCtx(ctx, "NATS not configured, discovery events are not published")
	}

	// Lock
	locker := lock.NewNoopLocker()
	if cfg.Redis.Addr != "" {
		redisClient := a.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		p.onClose(func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("failed to close redis client", zap.Error(err))
			}
		})
		if err := redisClient.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		locker = lock.NewRedisLocker(redisClient, "")
		logger.InfoCtx(ctx, "Scan lock enabled", zap.String("addr", cfg.Redis.Addr))
	}

	p.Scanner = scanner.New(scanner.Config{
		Chain:      chain.Chain(),
		Interval:   cfg.Scanner.Interval,
		WindowSize: cfg.Scanner.WindowSize,
		PoolSize:   cfg.Worker.WorkerPoolSize,
		QueueSize:  cfg.Worker.WorkerQueueSize,
		LockTTL:    cfg.Redis.LockTTL,
	}, scanner.Dependencies{
		Chain:      chain,
		Detector:   detector.New(chain),
		Prober:     probe.New(chain),
		Enricher:   enricher,
		Store:      st,
		IgnoreList: ignoreList,
		Locker:     locker,
		Publisher:  publisher,
		Metrics:    m,
		Clock:      a.Clock,
	})

	return p, nil
}
