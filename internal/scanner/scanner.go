// Package scanner drives the discovery pipeline. A pass walks a trailing window
// of recent blocks, detects created contracts, skips known ones and hands the
// rest to a bounded worker pool that probes, enriches and stores each token.
package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/feral-file/ff-token-scanner/internal/adapter"
	"github.com/feral-file/ff-token-scanner/internal/detector"
	"github.com/feral-file/ff-token-scanner/internal/domain"
	"github.com/feral-file/ff-token-scanner/internal/enrich"
	"github.com/feral-file/ff-token-scanner/internal/lock"
	"github.com/feral-file/ff-token-scanner/internal/logger"
	"github.com/feral-file/ff-token-scanner/internal/messaging"
	"github.com/feral-file/ff-token-scanner/internal/metrics"
	"github.com/feral-file/ff-token-scanner/internal/probe"
	"github.com/feral-file/ff-token-scanner/internal/providers/ethereum"
	"github.com/feral-file/ff-token-scanner/internal/registry"
	"github.com/feral-file/ff-token-scanner/internal/store"
	"github.com/feral-file/ff-token-scanner/internal/store/schema"
)

const (
	DefaultInterval   = 60 * time.Second
	DefaultWindowSize = 5
	DefaultPoolSize   = 4
	DefaultQueueSize  = 256
	DefaultLockTTL    = 5 * time.Minute

	// bookkeepingTimeout bounds the scan run and cursor writes after a pass
	bookkeepingTimeout = 10 * time.Second
)

// ErrScanInProgress is returned by TryScan when another pass holds the guard or the lock
var ErrScanInProgress = errors.New("scan already in progress")

const (
	stateIdle int32 = iota
	stateScanning
)

// Config holds configuration for the scanner
type Config struct {
	Chain      domain.Chain
	Interval   time.Duration // Time between periodic passes
	WindowSize uint64        // Most recent blocks inspected per pass
	PoolSize   int           // Concurrent candidate workers
	QueueSize  int           // Candidates waiting for a worker
	LockTTL    time.Duration // Expiry of the distributed scan lock
}

// Dependencies are the collaborators of a scanner. Locker, Publisher, IgnoreList,
// Metrics and Clock are optional.
type Dependencies struct {
	Chain      ethereum.Client
	Detector   detector.Detector
	Prober     probe.Prober
	Enricher   *enrich.Enricher
	Store      store.Store
	IgnoreList registry.IgnoreList
	Locker     lock.Locker
	Publisher  messaging.Publisher
	Metrics    *metrics.Metrics
	Clock      adapter.Clock
}

// Scanner runs scan passes under a single-flight guard
//
//go:generate mockgen -source=scanner.go -destination=../mocks/scanner.go -package=mocks -mock_names=Scanner=MockScanner
type Scanner interface {
	// Run runs a pass immediately, then one per interval until ctx is done or Stop is called
	Run(ctx context.Context) error
	// Stop ends Run and waits for triggered passes
	Stop(ctx context.Context) error
	// TryScan runs one pass now, or returns ErrScanInProgress without waiting
	TryScan(ctx context.Context) (*schema.ScanRun, error)
	// Trigger starts a pass in the background unless one is running
	Trigger()
}

type scanner struct {
	config Config
	deps   Dependencies

	state atomic.Int32

	rootCtx    context.Context
	rootCancel context.CancelFunc
	triggered  sync.WaitGroup
	stopOnce   sync.Once
	stopCh     chan struct{}
}

// New creates a scanner
func New(cfg Config, deps Dependencies) Scanner {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.WindowSize == 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultPoolSize
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}

	if deps.Locker == nil {
		deps.Locker = lock.NewNoopLocker()
	}
	if deps.Publisher == nil {
		deps.Publisher = messaging.NewNoopPublisher()
	}
	if deps.IgnoreList == nil {
		deps.IgnoreList = registry.NewIgnoreList(nil)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Clock == nil {
		deps.Clock = adapter.NewClock()
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	return &scanner{
		config:     cfg,
		deps:       deps,
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
		stopCh:     make(chan struct{}),
	}
}

func (s *scanner) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting token scanner",
		zap.String("chain", string(s.config.Chain)),
		zap.Duration("interval", s.config.Interval),
		zap.Uint64("window_size", s.config.WindowSize),
		zap.Int("pool_size", s.config.PoolSize),
	)

	for {
		if _, err := s.TryScan(ctx); err != nil {
			switch {
			case errors.Is(err, ErrScanInProgress):
				logger.DebugCtx(ctx, "Scan pass skipped, another pass is running")
			case errors.Is(err, context.Canceled):
			default:
				logger.ErrorCtx(ctx, err)
			}
		}

		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Token scanner stopping due to context cancellation")
			return nil
		case <-s.stopCh:
			logger.InfoCtx(ctx, "Token scanner stop requested")
			return nil
		case <-s.deps.Clock.After(s.config.Interval):
		}
	}
}

func (s *scanner) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.rootCancel()
	})

	done := make(chan struct{})
	go func() {
		s.triggered.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Token scanner stop interrupted by context timeout")
		return ctx.Err()
	}
}

func (s *scanner) Trigger() {
	if s.state.Load() != stateIdle || s.rootCtx.Err() != nil {
		return
	}

	s.triggered.Add(1)
	go func() {
		defer s.triggered.Done()
		if _, err := s.TryScan(s.rootCtx); err != nil &&
			!errors.Is(err, ErrScanInProgress) && !errors.Is(err, context.Canceled) {
			logger.Error(err, zap.String("source", "trigger"))
		}
	}()
}

func (s *scanner) TryScan(ctx context.Context) (run *schema.ScanRun, err error) {
	if !s.state.CompareAndSwap(stateIdle, stateScanning) {
		s.deps.Metrics.Passes.WithLabelValues(metrics.PassInProgress).Inc()
		return nil, ErrScanInProgress
	}
	defer s.state.Store(stateIdle)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scan pass panicked: %v", r)
			s.deps.Metrics.Passes.WithLabelValues(metrics.PassFailed).Inc()
		}
	}()

	release, err := s.deps.Locker.Acquire(ctx, "scan:"+string(s.config.Chain), s.config.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLockHeld) {
			s.deps.Metrics.Passes.WithLabelValues(metrics.PassLockHeld).Inc()
			return nil, ErrScanInProgress
		}
		s.deps.Metrics.Passes.WithLabelValues(metrics.PassFailed).Inc()
		return nil, fmt.Errorf("failed to acquire scan lock: %w", err)
	}
	defer release()

	run, err = s.pass(ctx)
	if err != nil {
		s.deps.Metrics.Passes.WithLabelValues(metrics.PassFailed).Inc()
		return run, err
	}
	s.deps.Metrics.Passes.WithLabelValues(metrics.PassCompleted).Inc()
	return run, nil
}

// passCounters are updated by workers
type passCounters struct {
	notTokens     atomic.Int32
	tokensStored  atomic.Int32
	storeFailures atomic.Int32
}

// pass walks the window newest first. Block and receipt failures are counted,
// not fatal; only cancellation or a failed head lookup aborts.
func (s *scanner) pass(ctx context.Context) (*schema.ScanRun, error) {
	startTime := s.deps.Clock.Now()

	latest, err := s.deps.Chain.LatestBlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest block number: %w", err)
	}

	from := windowStart(latest, s.config.WindowSize)
	run := &schema.ScanRun{
		ID:        ulid.MustNewDefault(startTime).String(),
		Chain:     string(s.config.Chain),
		StartedAt: startTime,
		FromBlock: from,
		ToBlock:   latest,
	}

	logger.InfoCtx(ctx, "Starting scan pass",
		zap.String("run_id", run.ID),
		zap.Uint64("from_block", from),
		zap.Uint64("to_block", latest))

	pool := pond.NewPool(s.config.PoolSize, pond.WithQueueSize(s.config.QueueSize), pond.WithContext(ctx))

	var (
		counters      passCounters
		skippedBlocks = []uint64{}
		queued        = make(map[string]struct{})
		passErr       error
	)

	for n := latest; ; n-- {
		if err := ctx.Err(); err != nil {
			passErr = err
			break
		}

		block, err := s.deps.Chain.BlockWithTransactions(ctx, n)
		if err != nil {
			if ctx.Err() != nil {
				passErr = ctx.Err()
				break
			}
			logger.WarnCtx(ctx, "skipping block, fetch failed", zap.Uint64("block", n), zap.Error(err))
			skippedBlocks = append(skippedBlocks, n)
		} else {
			result, err := s.deps.Detector.Detect(ctx, block)
			run.ReceiptsSkipped += result.SkippedReceipts
			if err != nil {
				passErr = err
				break
			}
			run.BlocksScanned++

			for _, candidate := range result.Candidates {
				run.Candidates++
				if !s.admit(ctx, candidate, queued, &counters) {
					run.KnownSkipped++
					continue
				}
				pool.Submit(func() {
					s.process(ctx, candidate, &counters)
				})
			}
		}

		if n == from {
			break
		}
	}

	pool.StopAndWait()

	run.BlocksSkipped = len(skippedBlocks)
	run.NotTokens = int(counters.notTokens.Load())
	run.TokensStored = int(counters.tokensStored.Load())
	run.StoreFailures = int(counters.storeFailures.Load())
	run.FinishedAt = s.deps.Clock.Now()
	if blocks, err := json.Marshal(skippedBlocks); err == nil {
		run.SkippedBlocks = datatypes.JSON(blocks)
	}
	if passErr != nil {
		msg := passErr.Error()
		run.Error = &msg
	}

	s.finish(ctx, run, passErr == nil)

	logger.InfoCtx(ctx, "Scan pass completed",
		zap.String("run_id", run.ID),
		zap.Duration("duration", s.deps.Clock.Since(startTime)),
		zap.Int("blocks_scanned", run.BlocksScanned),
		zap.Int("blocks_skipped", run.BlocksSkipped),
		zap.Int("receipts_skipped", run.ReceiptsSkipped),
		zap.Int("candidates", run.Candidates),
		zap.Int("known_skipped", run.KnownSkipped),
		zap.Int("not_tokens", run.NotTokens),
		zap.Int("tokens_stored", run.TokensStored),
		zap.Int("store_failures", run.StoreFailures),
		zap.Uint64("gap_blocks", run.GapBlocks),
	)

	return run, passErr
}

// admit reports whether a candidate should be probed. Ignored, stored and
// already queued addresses are rejected. A failed existence check rejects too.
func (s *scanner) admit(ctx context.Context, candidate detector.Candidate, queued map[string]struct{}, counters *passCounters) bool {
	address := domain.NormalizeAddress(candidate.Address)

	if _, ok := queued[address]; ok {
		return false
	}
	if s.deps.IgnoreList.IsIgnored(s.config.Chain, address) {
		return false
	}

	exists, err := s.deps.Store.Exists(ctx, address)
	if err != nil {
		counters.storeFailures.Add(1)
		s.deps.Metrics.StoreFailures.Inc()
		logger.ErrorCtx(ctx, fmt.Errorf("failed to check token existence: %w", err), zap.String("address", address))
		return false
	}
	if exists {
		return false
	}

	queued[address] = struct{}{}
	return true
}

// process probes, enriches and stores one candidate
func (s *scanner) process(ctx context.Context, candidate detector.Candidate, counters *passCounters) {
	address := domain.NormalizeAddress(candidate.Address)

	token, err := s.deps.Prober.Probe(ctx, address)
	if err != nil {
		if errors.Is(err, probe.ErrNotToken) {
			counters.notTokens.Add(1)
			logger.DebugCtx(ctx, "Candidate is not a token", zap.String("address", address), zap.Error(err))
			return
		}
		logger.WarnCtx(ctx, "Probe aborted", zap.String("address", address), zap.Error(err))
		return
	}

	risk, err := s.deps.Enricher.Assess(ctx, address)
	if err != nil {
		s.deps.Metrics.EnrichmentFailures.WithLabelValues(enrich.ProviderRisk).Inc()
	}

	market, err := s.deps.Enricher.Market(ctx, address)
	if err != nil && !errors.Is(err, enrich.ErrNoMarketData) {
		s.deps.Metrics.EnrichmentFailures.WithLabelValues(enrich.ProviderMarket).Inc()
	}

	record, err := s.deps.Store.UpsertToken(ctx, Assemble(token, risk, market))
	if err != nil {
		counters.storeFailures.Add(1)
		s.deps.Metrics.StoreFailures.Inc()
		logger.ErrorCtx(ctx, fmt.Errorf("failed to store token: %w", err), zap.String("address", address))
		return
	}

	counters.tokensStored.Add(1)
	s.deps.Metrics.TokensStored.Inc()
	s.deps.Metrics.TokensByStatus.WithLabelValues(string(record.Status)).Inc()

	logger.InfoCtx(ctx, "Token discovered",
		zap.String("address", record.ContractAddress),
		zap.String("symbol", record.Symbol),
		zap.String("status", string(record.Status)))

	event := NewDiscoveredEvent(s.config.Chain, record, candidate, s.deps.Clock.Now())
	if err := s.deps.Publisher.PublishTokenDiscovered(ctx, event); err != nil {
		s.deps.Metrics.PublishFailures.Inc()
		logger.WarnCtx(ctx, "failed to publish token discovered event", zap.String("address", address), zap.Error(err))
	}
}

// finish persists the run and, when the window was fully walked, advances the cursor
func (s *scanner) finish(ctx context.Context, run *schema.ScanRun, complete bool) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
	defer cancel()

	m := s.deps.Metrics
	m.BlocksScanned.Add(float64(run.BlocksScanned))
	m.BlocksSkipped.Add(float64(run.BlocksSkipped))
	m.ReceiptsSkipped.Add(float64(run.ReceiptsSkipped))
	m.Candidates.Add(float64(run.Candidates))
	m.KnownSkipped.Add(float64(run.KnownSkipped))
	m.NotTokens.Add(float64(run.NotTokens))

	chain := string(s.config.Chain)
	if complete {
		head, err := s.deps.Store.GetBlockCursor(ctx, chain)
		if err != nil {
			logger.WarnCtx(ctx, "failed to read scan head", zap.Error(err))
		} else if gap := gapBlocks(head, run.FromBlock); gap > 0 {
			run.GapBlocks = gap
			m.GapBlocks.Add(float64(gap))
			logger.WarnCtx(ctx, "blocks fell outside the scan window",
				zap.Uint64("previous_head", head),
				zap.Uint64("from_block", run.FromBlock),
				zap.Uint64("gap_blocks", gap))
		}

		if err := s.deps.Store.SetBlockCursor(ctx, chain, run.ToBlock); err != nil {
			logger.WarnCtx(ctx, "failed to advance scan head", zap.Error(err))
		} else {
			m.ScanHead.Set(float64(run.ToBlock))
		}
		m.ScanDuration.Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())
	}

	if err := s.deps.Store.CreateScanRun(ctx, run); err != nil {
		logger.WarnCtx(ctx, "failed to record scan run", zap.String("run_id", run.ID), zap.Error(err))
	}
}

// windowStart returns the first block of a window ending at latest, clamped at 0
func windowStart(latest, size uint64) uint64 {
	if size == 0 || latest+1 < size {
		return 0
	}
	return latest - size + 1
}

// gapBlocks counts blocks between the previous head and the window start.
// A zero head means no pass has completed yet.
func gapBlocks(head, from uint64) uint64 {
	if head == 0 || from <= head+1 {
		return 0
	}
	return from - head - 1
}
