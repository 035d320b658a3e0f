// Package lease implements the acquisition orchestrator. It sequences
// validation, consumer resolution, expiry cleanup, and storage-side
// selection, and fans completed operations out to registered callbacks.
package lease

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/justapithecus/pharos/log"
	"github.com/justapithecus/pharos/storage"
	"github.com/justapithecus/pharos/types"
)

// DefaultConsumerName identifies acquisitions that do not name a consumer.
const DefaultConsumerName = "default"

// ErrInvalidRequest indicates a malformed acquisition request (missing pool,
// non-positive duration, invalid filters, unknown strategy).
var ErrInvalidRequest = errors.New("invalid lease request")

// AcquireCallback observes completed acquisition attempts, including
// exhaustion (event.Lease == nil). Returning an error aborts the remaining
// callback chain and surfaces to the caller.
type AcquireCallback func(ctx context.Context, event *types.AcquireEvent) error

// ReleaseCallback observes lease releases.
type ReleaseCallback func(ctx context.Context, event *types.ReleaseEvent) error

// Manager coordinates lease acquisition and release against a storage
// adapter. Safe for concurrent use.
type Manager struct {
	store  storage.Store
	logger *log.Logger
	now    func() time.Time

	defaultConsumer string

	mu        sync.Mutex
	onAcquire []AcquireCallback
	onRelease []ReleaseCallback
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger. Defaults to a no-op logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithDefaultConsumer overrides the consumer name used when a request
// leaves Consumer empty.
func WithDefaultConsumer(name string) Option {
	return func(m *Manager) {
		m.defaultConsumer = name
	}
}

// WithClock overrides the manager's time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// New creates a Manager over the given storage adapter.
func New(store storage.Store, opts ...Option) *Manager {
	m := &Manager{
		store:           store,
		logger:          log.NewNop(),
		now:             time.Now,
		defaultConsumer: DefaultConsumerName,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnAcquire registers a callback invoked after every acquisition attempt,
// in registration order, outside any storage critical section.
func (m *Manager) OnAcquire(cb AcquireCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onAcquire = append(m.onAcquire, cb)
}

// OnRelease registers a callback invoked after every release.
func (m *Manager) OnRelease(cb ReleaseCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRelease = append(m.onRelease, cb)
}

// AcquireRequest describes a single acquisition attempt.
type AcquireRequest struct {
	// Pool names the pool to lease from. Required.
	Pool string

	// Consumer identifies the acquiring party. Empty means the manager's
	// default consumer.
	Consumer string

	// Duration is the lease lifetime. Must be positive.
	Duration time.Duration

	// Filters restricts the candidate set. Nil matches everything.
	Filters *types.Filters

	// Strategy selects the ordering policy. Empty means first_available.
	Strategy types.Strategy
}

func (r *AcquireRequest) validate() error {
	if r.Pool == "" {
		return fmt.Errorf("%w: pool name is required", ErrInvalidRequest)
	}
	if r.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidRequest, r.Duration)
	}
	if err := r.Filters.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, err)
	}
	if r.Strategy != "" && !r.Strategy.Valid() {
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidRequest, r.Strategy)
	}
	return nil
}

// Acquire attempts to lease a proxy from the requested pool.
//
// Expired leases are swept before selection so stale holds never block a
// viable acquisition. Returns (nil, nil) when the pool has no eligible
// proxy; storage failures and callback failures are returned as errors.
func (m *Manager) Acquire(ctx context.Context, req AcquireRequest) (*types.Lease, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	consumerName := req.Consumer
	if consumerName == "" {
		consumerName = m.defaultConsumer
	}

	started := m.now()

	consumerID, err := m.store.EnsureConsumer(ctx, consumerName)
	if err != nil {
		return nil, fmt.Errorf("ensure consumer %q: %w", consumerName, err)
	}

	swept, err := m.store.CleanupExpired(ctx)
	if err != nil {
		return nil, fmt.Errorf("cleanup expired leases: %w", err)
	}
	if swept > 0 {
		m.logger.Debug("swept expired leases", zap.Int("count", swept), zap.String("pool", req.Pool))
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = types.StrategyFirstAvailable
	}
	if !storage.Supports(m.store.Capabilities(), strategy) {
		m.logger.Warn("strategy unsupported by adapter, falling back",
			zap.String("requested", string(strategy)),
			zap.String("fallback", string(types.StrategyFirstAvailable)))
		strategy = types.StrategyFirstAvailable
	}

	lease, err := m.store.FindAndLease(ctx, req.Pool, req.Filters, strategy, consumerID, req.Duration)
	if err != nil {
		return nil, fmt.Errorf("find and lease from pool %q: %w", req.Pool, err)
	}

	completed := m.now()
	event := &types.AcquireEvent{
		Lease:        lease,
		PoolName:     req.Pool,
		ConsumerName: consumerName,
		Filters:      req.Filters,
		Strategy:     strategy,
		StartedAt:    started,
		CompletedAt:  completed,
		DurationMs:   completed.Sub(started).Milliseconds(),
		ExpiredSwept: swept,
		PoolStats:    m.poolStats(ctx, req.Pool),
	}

	if lease == nil {
		m.logger.Info("pool exhausted",
			zap.String("pool", req.Pool),
			zap.String("consumer", consumerName),
			zap.String("strategy", string(strategy)))
	} else {
		m.logger.Info("lease acquired",
			zap.String("pool", req.Pool),
			zap.String("consumer", consumerName),
			zap.String("lease_id", lease.ID.String()),
			zap.String("proxy_id", lease.ProxyID.String()))
	}

	if err := m.notifyAcquire(ctx, event); err != nil {
		return lease, err
	}
	return lease, nil
}

// Release terminates the lease and notifies release callbacks. Releasing a
// nil, unknown, or already-terminal lease is a no-op.
func (m *Manager) Release(ctx context.Context, lease *types.Lease) error {
	if lease == nil {
		return nil
	}

	if err := m.store.ReleaseLease(ctx, lease); err != nil {
		return fmt.Errorf("release lease %s: %w", lease.ID, err)
	}

	released := m.now()
	event := &types.ReleaseEvent{
		Lease:           lease,
		PoolName:        lease.PoolName,
		ReleasedAt:      released,
		LeaseDurationMs: released.Sub(lease.AcquiredAt).Milliseconds(),
		PoolStats:       m.poolStats(ctx, lease.PoolName),
	}

	m.logger.Info("lease released",
		zap.String("pool", lease.PoolName),
		zap.String("lease_id", lease.ID.String()))

	return m.notifyRelease(ctx, event)
}

// CleanupExpired sweeps overdue leases on demand. Acquire already sweeps
// before every selection; this entry point serves periodic maintenance.
func (m *Manager) CleanupExpired(ctx context.Context) (int, error) {
	return m.store.CleanupExpired(ctx)
}

// PoolStats reports an aggregate snapshot of the named pool.
func (m *Manager) PoolStats(ctx context.Context, poolName string) (*types.PoolStats, error) {
	return m.store.GetPoolStats(ctx, poolName)
}

// WithLease acquires a lease, runs fn with it, and releases the lease
// exactly once regardless of how fn returns. The release also runs when fn
// panics. Exhaustion is not an error: fn receives a nil lease and decides
// for itself, and no release happens.
func (m *Manager) WithLease(ctx context.Context, req AcquireRequest, fn func(ctx context.Context, lease *types.Lease) error) (err error) {
	lease, err := m.Acquire(ctx, req)
	if err != nil {
		return err
	}

	if lease != nil {
		defer func() {
			if releaseErr := m.Release(ctx, lease); releaseErr != nil && err == nil {
				err = releaseErr
			}
		}()
	}

	return fn(ctx, lease)
}

// poolStats fetches stats for event payloads. Stats failures degrade to a
// nil snapshot rather than failing the operation.
func (m *Manager) poolStats(ctx context.Context, poolName string) *types.PoolStats {
	stats, err := m.store.GetPoolStats(ctx, poolName)
	if err != nil {
		m.logger.Debug("pool stats unavailable", zap.String("pool", poolName), zap.Error(err))
		return nil
	}
	return stats
}

func (m *Manager) notifyAcquire(ctx context.Context, event *types.AcquireEvent) error {
	m.mu.Lock()
	callbacks := make([]AcquireCallback, len(m.onAcquire))
	copy(callbacks, m.onAcquire)
	m.mu.Unlock()

	for _, cb := range callbacks {
		if err := cb(ctx, event); err != nil {
			return fmt.Errorf("acquire callback: %w", err)
		}
	}
	return nil
}

func (m *Manager) notifyRelease(ctx context.Context, event *types.ReleaseEvent) error {
	m.mu.Lock()
	callbacks := make([]ReleaseCallback, len(m.onRelease))
	copy(callbacks, m.onRelease)
	m.mu.Unlock()

	for _, cb := range callbacks {
		if err := cb(ctx, event); err != nil {
			return fmt.Errorf("release callback: %w", err)
		}
	}
	return nil
}
