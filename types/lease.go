package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Pool is a named grouping of proxies sharing selection scope.
// Identity is immutable once created.
type Pool struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}

// Consumer is the named identity of a lease holder.
type Consumer struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// LeaseStatus is the lifecycle status of a lease.
type LeaseStatus string

const (
	LeaseStatusActive   LeaseStatus = "active"
	LeaseStatusReleased LeaseStatus = "released"
	LeaseStatusExpired  LeaseStatus = "expired"
)

// Lease is a time-bounded claim on a proxy by a consumer.
// Leases transition from active to released (explicit release) or
// expired (cleanup sweep) and are never resurrected.
type Lease struct {
	ID         uuid.UUID   `json:"id"`
	ProxyID    uuid.UUID   `json:"proxy_id"`
	ConsumerID uuid.UUID   `json:"consumer_id"`
	PoolID     uuid.UUID   `json:"pool_id"`
	PoolName   string      `json:"pool_name"`
	Status     LeaseStatus `json:"status"`
	AcquiredAt time.Time   `json:"acquired_at"`
	ExpiresAt  time.Time   `json:"expires_at"`
	ReleasedAt *time.Time  `json:"released_at,omitempty"`
}

// Validate validates lease invariants.
func (l *Lease) Validate() error {
	if !l.ExpiresAt.After(l.AcquiredAt) {
		return fmt.Errorf("lease expires_at must be after acquired_at")
	}
	switch l.Status {
	case LeaseStatusActive, LeaseStatusReleased, LeaseStatusExpired:
		return nil
	default:
		return fmt.Errorf("invalid lease status %q", l.Status)
	}
}

// Clone returns a deep copy of the lease.
func (l *Lease) Clone() *Lease {
	cp := *l
	if l.ReleasedAt != nil {
		t := *l.ReleasedAt
		cp.ReleasedAt = &t
	}
	return &cp
}
