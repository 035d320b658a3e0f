package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justapithecus/pharos/selector"
	"github.com/justapithecus/pharos/types"
)

// MemoryStore is the thread-safe in-memory reference adapter.
//
// It implements every selector strategy and serves as the contract
// reference for other adapters: all mutation happens under a single mutex,
// giving the atomicity the Store contract requires. Intended for tests,
// development, and single-process deployments.
type MemoryStore struct {
	mu sync.Mutex

	pools       map[uuid.UUID]*memPool
	poolsByName map[string]uuid.UUID
	proxyPools  map[uuid.UUID]uuid.UUID // proxy ID -> pool ID

	consumersByName map[string]uuid.UUID
	consumerNames   map[uuid.UUID]string

	leases map[uuid.UUID]*types.Lease

	// Round-robin cursors: last-selected proxy ID keyed by (pool, strategy).
	cursors map[cursorKey]uuid.UUID

	now func() time.Time
}

type memPool struct {
	pool    types.Pool
	proxies map[uuid.UUID]*types.Proxy
}

type cursorKey struct {
	poolID   uuid.UUID
	strategy types.Strategy
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithNow overrides the store's time source. Used by tests to drive lease
// expiry deterministically.
func WithNow(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		pools:           make(map[uuid.UUID]*memPool),
		poolsByName:     make(map[string]uuid.UUID),
		proxyPools:      make(map[uuid.UUID]uuid.UUID),
		consumersByName: make(map[string]uuid.UUID),
		consumerNames:   make(map[uuid.UUID]string),
		leases:          make(map[uuid.UUID]*types.Lease),
		cursors:         make(map[cursorKey]uuid.UUID),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- Seeding (provisioning is outside the core; these feed tests and bootstrap) ---

// AddPool registers a pool. Pool names are unique.
func (s *MemoryStore) AddPool(pool types.Pool) error {
	if pool.Name == "" {
		return fmt.Errorf("pool name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.poolsByName[pool.Name]; exists {
		return fmt.Errorf("pool %q already exists", pool.Name)
	}
	if pool.ID == uuid.Nil {
		pool.ID = uuid.New()
	}
	s.poolsByName[pool.Name] = pool.ID
	s.pools[pool.ID] = &memPool{
		pool:    pool,
		proxies: make(map[uuid.UUID]*types.Proxy),
	}
	return nil
}

// AddProxy registers a proxy under its pool.
func (s *MemoryStore) AddProxy(proxy *types.Proxy) error {
	if err := proxy.Validate(); err != nil {
		return fmt.Errorf("add proxy: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pool, ok := s.pools[proxy.PoolID]
	if !ok {
		return fmt.Errorf("add proxy: %w: %s", ErrPoolNotFound, proxy.PoolID)
	}

	cp := proxy.Clone()
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	if cp.CheckedAt.IsZero() {
		cp.CheckedAt = s.now()
	}
	pool.proxies[cp.ID] = cp
	s.proxyPools[cp.ID] = proxy.PoolID
	return nil
}

// AddConsumer registers a consumer with a fixed identity.
func (s *MemoryStore) AddConsumer(consumer types.Consumer) error {
	if consumer.Name == "" {
		return fmt.Errorf("consumer name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if consumer.ID == uuid.Nil {
		consumer.ID = uuid.New()
	}
	s.consumersByName[consumer.Name] = consumer.ID
	s.consumerNames[consumer.ID] = consumer.Name
	return nil
}

// ListProxies returns copies of every proxy in the named pool.
func (s *MemoryStore) ListProxies(poolName string) ([]*types.Proxy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	poolID, ok := s.poolsByName[poolName]
	if !ok {
		return nil, fmt.Errorf("list proxies: %w: %s", ErrPoolNotFound, poolName)
	}

	pool := s.pools[poolID]
	proxies := make([]*types.Proxy, 0, len(pool.proxies))
	for _, p := range pool.proxies {
		proxies = append(proxies, p.Clone())
	}
	return proxies, nil
}

// GetProxy returns a copy of the proxy, or nil if unknown.
func (s *MemoryStore) GetProxy(id uuid.UUID) *types.Proxy {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findProxyLocked(id)
	if p == nil {
		return nil
	}
	return p.Clone()
}

// --- Store contract ---

// EnsureConsumer returns the ID of the named consumer, creating it if needed.
func (s *MemoryStore) EnsureConsumer(_ context.Context, name string) (uuid.UUID, error) {
	if name == "" {
		return uuid.Nil, fmt.Errorf("consumer name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.consumersByName[name]; ok {
		return id, nil
	}
	id := uuid.New()
	s.consumersByName[name] = id
	s.consumerNames[id] = name
	return id, nil
}

// FindAndLease atomically selects an eligible proxy and creates a lease.
// The whole operation runs under the store mutex, so capacity checks and
// round-robin cursor advances are serialized with respect to each other.
func (s *MemoryStore) FindAndLease(_ context.Context, poolName string, filters *types.Filters, strategy types.Strategy, consumerID uuid.UUID, duration time.Duration) (*types.Lease, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("lease duration must be positive, got %s", duration)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	poolID, ok := s.poolsByName[poolName]
	if !ok {
		// Unknown pool behaves as an empty one: no candidate, not an error.
		return nil, nil
	}
	pool := s.pools[poolID]

	if _, ok := s.consumerNames[consumerID]; !ok {
		return nil, fmt.Errorf("find and lease: %w: %s", ErrConsumerNotFound, consumerID)
	}

	all := make([]*types.Proxy, 0, len(pool.proxies))
	for _, p := range pool.proxies {
		all = append(all, p)
	}

	candidates := selector.Eligible(all, filters)
	key := cursorKey{poolID: poolID, strategy: strategy}

	picked, err := selector.Pick(strategy, candidates, s.cursors[key])
	if err != nil {
		return nil, err
	}
	if picked == nil {
		return nil, nil
	}

	if strategy == types.StrategyRoundRobin {
		s.cursors[key] = picked.ID
	}

	now := s.now()
	lease := &types.Lease{
		ID:         uuid.New(),
		ProxyID:    picked.ID,
		ConsumerID: consumerID,
		PoolID:     poolID,
		PoolName:   pool.pool.Name,
		Status:     types.LeaseStatusActive,
		AcquiredAt: now,
		ExpiresAt:  now.Add(duration),
	}

	picked.CurrentLeases++
	s.leases[lease.ID] = lease

	return lease.Clone(), nil
}

// ReleaseLease marks the lease released and decrements the proxy counter.
// Unknown or already-terminal leases are a no-op.
func (s *MemoryStore) ReleaseLease(_ context.Context, lease *types.Lease) error {
	if lease == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.leases[lease.ID]
	if !ok || stored.Status != types.LeaseStatusActive {
		return nil
	}

	s.terminateLeaseLocked(stored, types.LeaseStatusReleased)
	return nil
}

// CleanupExpired transitions every overdue active lease to expired.
func (s *MemoryStore) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := 0
	for _, lease := range s.leases {
		if lease.Status != types.LeaseStatusActive || lease.ExpiresAt.After(now) {
			continue
		}
		s.terminateLeaseLocked(lease, types.LeaseStatusExpired)
		count++
	}
	return count, nil
}

// GetPoolStats computes an aggregate snapshot for the named pool.
func (s *MemoryStore) GetPoolStats(_ context.Context, poolName string) (*types.PoolStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	poolID, ok := s.poolsByName[poolName]
	if !ok {
		return nil, fmt.Errorf("pool stats: %w: %s", ErrPoolNotFound, poolName)
	}
	pool := s.pools[poolID]

	stats := &types.PoolStats{
		PoolName:    pool.pool.Name,
		CollectedAt: s.now(),
	}
	for _, p := range pool.proxies {
		stats.TotalProxies++
		if p.Status == types.ProxyStatusActive {
			stats.ActiveProxies++
		}
		if p.Leasable() {
			stats.AvailableProxies++
		}
		if p.CurrentLeases > 0 {
			stats.LeasedProxies++
		}
		stats.TotalLeases += p.CurrentLeases
	}
	return stats, nil
}

// ApplyCheckResult updates the probed proxy in place. A missing proxy is
// reported as (nil, nil) so health sweeps can skip deleted inventory.
func (s *MemoryStore) ApplyCheckResult(_ context.Context, result *types.CheckResult) (*types.Proxy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findProxyLocked(result.ProxyID)
	if p == nil {
		return nil, nil
	}

	p.Status = result.Status
	p.LatencyMs = result.LatencyMs
	if result.CheckedAt.IsZero() {
		p.CheckedAt = s.now()
	} else {
		p.CheckedAt = result.CheckedAt
	}
	return p.Clone(), nil
}

// Capabilities lists the strategies the memory adapter supports natively.
func (s *MemoryStore) Capabilities() []types.Strategy {
	return []types.Strategy{
		types.StrategyFirstAvailable,
		types.StrategyLeastUsed,
		types.StrategyRoundRobin,
	}
}

// terminateLeaseLocked moves an active lease to a terminal status and
// decrements the owning proxy's counter. Caller must hold mu.
func (s *MemoryStore) terminateLeaseLocked(lease *types.Lease, status types.LeaseStatus) {
	now := s.now()
	lease.Status = status
	lease.ReleasedAt = &now

	if p := s.findProxyLocked(lease.ProxyID); p != nil && p.CurrentLeases > 0 {
		p.CurrentLeases--
	}
}

// findProxyLocked resolves a proxy by ID. Caller must hold mu.
func (s *MemoryStore) findProxyLocked(id uuid.UUID) *types.Proxy {
	poolID, ok := s.proxyPools[id]
	if !ok {
		return nil
	}
	pool, ok := s.pools[poolID]
	if !ok {
		return nil
	}
	return pool.proxies[id]
}

// Verify MemoryStore implements the storage contract.
var _ Store = (*MemoryStore)(nil)
