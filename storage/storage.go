// Package storage defines the persistence boundary for the Pharos core.
//
// The core never mutates proxies or leases directly: every correctness-
// critical mutation (select-and-lease, release, cursor advance, expiry
// sweep) happens inside an adapter's critical section. Adapters must
// provide row-level locking or compare-and-swap semantics so that two
// concurrent acquisitions against a capacity-constrained proxy cannot both
// succeed once capacity is exhausted, and two concurrent round-robin
// selections never advance from the same stale cursor value.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/justapithecus/pharos/types"
)

// Store is the storage boundary contract implemented by persistence adapters.
type Store interface {
	// EnsureConsumer returns the ID of the named consumer, creating it if
	// necessary. Idempotent.
	EnsureConsumer(ctx context.Context, name string) (uuid.UUID, error)

	// FindAndLease atomically selects an eligible proxy from the named pool
	// using the given strategy and creates an active lease for it.
	// Returns (nil, nil) when no eligible candidate exists; an unknown pool
	// is treated as an empty one. Capacity enforcement and round-robin
	// cursor consistency are the adapter's responsibility.
	FindAndLease(ctx context.Context, poolName string, filters *types.Filters, strategy types.Strategy, consumerID uuid.UUID, duration time.Duration) (*types.Lease, error)

	// ReleaseLease marks the lease released and decrements the proxy's
	// active-lease counter. Releasing an unknown or already-terminal lease
	// is a no-op.
	ReleaseLease(ctx context.Context, lease *types.Lease) error

	// CleanupExpired transitions every overdue active lease to expired and
	// returns the number of leases transitioned. Idempotent.
	CleanupExpired(ctx context.Context) (int, error)

	// GetPoolStats computes an aggregate snapshot for the named pool.
	GetPoolStats(ctx context.Context, poolName string) (*types.PoolStats, error)

	// ApplyCheckResult atomically updates the probed proxy's status,
	// checked-at timestamp, and observed latency. Returns (nil, nil) when
	// the proxy no longer exists.
	ApplyCheckResult(ctx context.Context, result *types.CheckResult) (*types.Proxy, error)

	// Capabilities lists the selector strategies this adapter supports
	// natively. first_available is mandatory; an adapter asked for an
	// unsupported strategy must fall back to first_available.
	Capabilities() []types.Strategy
}

// Supports reports whether the capability list includes the strategy.
func Supports(capabilities []types.Strategy, strategy types.Strategy) bool {
	for _, c := range capabilities {
		if c == strategy {
			return true
		}
	}
	return false
}
