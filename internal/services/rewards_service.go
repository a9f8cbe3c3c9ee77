package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"rewards/internal/cache"
	"rewards/internal/core"
	"rewards/internal/log"
	"rewards/internal/metrics"
	"rewards/internal/source"
)

// SnapshotCache labels the transaction snapshot cache in metrics.
const SnapshotCache = "transactions"

// Aggregation views, used as metric labels.
const (
	ViewMonthly      = "monthly"
	ViewTotals       = "totals"
	ViewTransactions = "transactions"
	ViewStats        = "stats"
)

// ErrInvalidSort is returned for unknown sort parameters.
var ErrInvalidSort = errors.New("invalid sort")

// RowOrder selects the ordering of transaction rows.
type RowOrder int

const (
	RowsInputOrder RowOrder = iota
	RowsPriceAscending
	RowsPriceDescending
)

// ParseRowOrder accepts "", "price" and "-price".
func ParseRowOrder(s string) (RowOrder, error) {
	switch strings.TrimSpace(s) {
	case "":
		return RowsInputOrder, nil
	case "price", "+price":
		return RowsPriceAscending, nil
	case "-price":
		return RowsPriceDescending, nil
	default:
		return RowsInputOrder, fmt.Errorf("%w: unknown transactions sort %q", ErrInvalidSort, s)
	}
}

// RewardsServiceConfig holds configuration for the rewards service
type RewardsServiceConfig struct {
	// Location resolves transaction dates into months (default: time.Local)
	Location *time.Location

	// Timeout bounds one source load plus aggregation (default: 5s)
	Timeout time.Duration

	// CacheSize and CacheTTL size the snapshot cache when Cache is nil
	CacheSize int
	CacheTTL  time.Duration
}

// DefaultRewardsServiceConfig returns sensible defaults
func DefaultRewardsServiceConfig() RewardsServiceConfig {
	return RewardsServiceConfig{
		Location:  time.Local,
		Timeout:   5 * time.Second,
		CacheSize: 16,
		CacheTTL:  30 * time.Second,
	}
}

// RewardsService loads transactions from a source and serves the reward views.
// Loaded snapshots are cached per source; every request aggregates its own copy.
type RewardsService struct {
	source  source.TransactionSource
	engine  *core.Engine
	cache   *cache.LRUCache[[]core.Transaction]
	loads   singleflight.Group
	metrics *metrics.Metrics
	logger  *log.Logger
	events  *log.StructuredLogger
	timeout time.Duration
}

// NewRewardsService wires the service. metrics may be nil.
func NewRewardsService(src source.TransactionSource, cfg RewardsServiceConfig, logger *log.Logger, m *metrics.Metrics) *RewardsService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRewardsServiceConfig().Timeout
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentRewards)
	return &RewardsService{
		source:  src,
		engine:  core.NewEngine(cfg.Location),
		cache:   cache.NewLRUCache[[]core.Transaction](cfg.CacheSize, cfg.CacheTTL),
		metrics: m,
		logger:  logger,
		events:  log.NewStructuredLogger(logger),
		timeout: cfg.Timeout,
	}
}

// Engine returns the engine used for aggregation.
func (s *RewardsService) Engine() *core.Engine { return s.engine }

// Cache exposes the snapshot cache so it can be registered for cleanup.
func (s *RewardsService) Cache() *cache.LRUCache[[]core.Transaction] { return s.cache }

// SourceName identifies the configured source.
func (s *RewardsService) SourceName() string { return s.source.Name() }

// Summary returns every view for the transactions dated within r.
func (s *RewardsService) Summary(ctx context.Context, r core.DateRange) (core.Summary, error) {
	if err := r.Validate(); err != nil {
		return core.Summary{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	txs, err := s.load(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	return s.summarize(ctx, s.source.Name(), txs, r)
}

// Compute runs every view over caller supplied transactions, bypassing the source.
func (s *RewardsService) Compute(ctx context.Context, txs []core.Transaction, r core.DateRange) (core.Summary, error) {
	if err := r.Validate(); err != nil {
		return core.Summary{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.summarize(ctx, "request", slices.Clone(txs), r)
}

// Monthly returns the per-customer monthly breakdown.
func (s *RewardsService) Monthly(ctx context.Context, r core.DateRange) ([]core.CustomerMonthlyAggregate, error) {
	selected, err := s.selected(ctx, r)
	if err != nil {
		return nil, err
	}
	var out []core.CustomerMonthlyAggregate
	s.observe(ViewMonthly, func() { out = s.engine.AggregateMonthlyRewards(selected) })
	return out, nil
}

// Totals returns all-time customer totals ordered by key.
func (s *RewardsService) Totals(ctx context.Context, r core.DateRange, key core.TotalsSortKey) ([]core.CustomerTotal, error) {
	selected, err := s.selected(ctx, r)
	if err != nil {
		return nil, err
	}
	var out []core.CustomerTotal
	s.observe(ViewTotals, func() { out = core.SortTotals(s.engine.BuildTotalRewards(selected), key) })
	return out, nil
}

// Transactions returns one display row per transaction.
func (s *RewardsService) Transactions(ctx context.Context, r core.DateRange, order RowOrder) ([]core.TransactionRow, error) {
	selected, err := s.selected(ctx, r)
	if err != nil {
		return nil, err
	}
	var rows []core.TransactionRow
	s.observe(ViewTransactions, func() {
		rows = s.engine.BuildTransactionRows(selected)
		switch order {
		case RowsPriceAscending:
			rows = core.SortRowsByPrice(rows, false)
		case RowsPriceDescending:
			rows = core.SortRowsByPrice(rows, true)
		}
	})
	return rows, nil
}

// Ready reports whether the source can currently be loaded.
func (s *RewardsService) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.load(ctx)
	return err
}

// Invalidate drops cached snapshots so the next request reloads the source.
func (s *RewardsService) Invalidate(ctx context.Context) int {
	n := s.cache.Purge()
	s.logger.InfoContext(ctx, "Snapshot cache invalidated", log.FieldOperation, log.OpInvalidate, "removed", n)
	return n
}

func (s *RewardsService) selected(ctx context.Context, r core.DateRange) ([]core.Transaction, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	txs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	selected := s.engine.FilterTransactions(txs, r)
	s.record(ctx, s.engine.Inspect(selected))
	return selected, nil
}

// load returns a private copy of the source's transactions. Concurrent
// misses for the same source share one Load call.
func (s *RewardsService) load(ctx context.Context) ([]core.Transaction, error) {
	key := s.source.Name()
	if txs, ok := s.cache.Get(key); ok {
		if s.metrics != nil {
			s.metrics.IncrCacheHit(SnapshotCache)
		}
		return slices.Clone(txs), nil
	}
	if s.metrics != nil {
		s.metrics.IncrCacheMiss(SnapshotCache)
	}

	ch := s.loads.DoChan(key, func() (any, error) {
		// The shared load must not die with whichever caller started it.
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		start := time.Now()
		txs, err := s.source.Load(lctx)
		if err != nil {
			if s.metrics != nil {
				s.metrics.IncrSourceError(key)
			}
			s.events.LogError(lctx, "Transaction source load failed", err, log.ComponentSource, log.OpLoad, log.NewFields().WithSource(key))
			return nil, err
		}
		s.cache.Set(key, txs)
		s.logger.Debug("Transactions loaded", log.FieldSource, key, log.FieldTransactions, len(txs), log.FieldDuration, time.Since(start).Milliseconds())
		return txs, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]core.Transaction)), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("load %s: %w", key, ctx.Err())
	}
}

func (s *RewardsService) summarize(ctx context.Context, name string, txs []core.Transaction, r core.DateRange) (core.Summary, error) {
	selected := s.engine.FilterTransactions(txs, r)

	var summary core.Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.observe(ViewMonthly, func() { summary.Monthly = s.engine.AggregateMonthlyRewards(selected) })
		return gctx.Err()
	})
	g.Go(func() error {
		s.observe(ViewTotals, func() { summary.Totals = s.engine.BuildTotalRewards(selected) })
		return gctx.Err()
	})
	g.Go(func() error {
		s.observe(ViewTransactions, func() { summary.Transactions = s.engine.BuildTransactionRows(selected) })
		return gctx.Err()
	})
	g.Go(func() error {
		s.observe(ViewStats, func() { summary.Stats = s.engine.Inspect(selected) })
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return core.Summary{}, fmt.Errorf("aggregate: %w", err)
	}

	s.record(ctx, summary.Stats)
	st := summary.Stats
	s.events.LogRewardsComputed(ctx, name, r.Key(), len(summary.Totals),
		st.Transactions, st.InvalidAmounts, st.NonPositiveAmounts, st.InvalidDates, st.UnknownCustomers)
	return summary, nil
}

func (s *RewardsService) observe(view string, fn func()) {
	start := time.Now()
	fn()
	if s.metrics != nil {
		s.metrics.ObserveAggregation(view, time.Since(start))
	}
}

func (s *RewardsService) record(ctx context.Context, st core.InputStats) {
	if s.metrics != nil {
		s.metrics.AddTransactions(st.Transactions)
		s.metrics.AddInputIssues(metrics.KindInvalidAmount, st.InvalidAmounts)
		s.metrics.AddInputIssues(metrics.KindNonPositive, st.NonPositiveAmounts)
		s.metrics.AddInputIssues(metrics.KindInvalidDate, st.InvalidDates)
		s.metrics.AddInputIssues(metrics.KindUnknownCustomer, st.UnknownCustomers)
	}
	if st.InvalidAmounts > 0 || st.InvalidDates > 0 {
		s.logger.DebugContext(ctx, "Transactions with unreadable values",
			log.NewFields().WithInputQuality(st.Transactions, st.InvalidAmounts, st.NonPositiveAmounts, st.InvalidDates, st.UnknownCustomers).ToSlice()...)
	}
}
