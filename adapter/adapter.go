// Package adapter defines the lease-event adapter boundary.
//
// Adapters publish lease lifecycle notifications to downstream systems
// (workers watching pool pressure, billing, dashboards). The embedding
// application owns adapter lifecycle; the core only invokes Publish
// through registered callbacks.
package adapter

import (
	"context"
	"time"

	"github.com/justapithecus/pharos/lease"
	"github.com/justapithecus/pharos/types"
)

// Event types carried in LeaseEvent.EventType.
const (
	EventLeaseAcquired = "lease_acquired"
	EventLeaseReleased = "lease_released"
	EventPoolExhausted = "pool_exhausted"
)

// LeaseEvent is the payload published for every lease lifecycle change.
type LeaseEvent struct {
	EventType string `json:"event_type"`
	Pool      string `json:"pool"`
	Consumer  string `json:"consumer,omitempty"`
	Strategy  string `json:"strategy,omitempty"`

	LeaseID   string `json:"lease_id,omitempty"`
	ProxyID   string `json:"proxy_id,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"` // ISO 8601

	Timestamp  string `json:"timestamp"` // ISO 8601
	DurationMs int64  `json:"duration_ms"`

	// Pool pressure snapshot at event time; absent when stats were
	// unavailable.
	TotalProxies     *int `json:"total_proxies,omitempty"`
	AvailableProxies *int `json:"available_proxies,omitempty"`
	LeasedProxies    *int `json:"leased_proxies,omitempty"`
}

// Adapter publishes lease events to a downstream system.
// Implementations must be safe for concurrent use.
type Adapter interface {
	// Publish sends a lease event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *LeaseEvent) error

	// Close releases adapter resources.
	Close() error
}

// Attach registers the adapter on the manager's callback chain: every
// acquisition (hit or exhaustion) and release is published. Publish
// failures propagate to the triggering Acquire/Release caller.
func Attach(m *lease.Manager, a Adapter) {
	m.OnAcquire(func(ctx context.Context, event *types.AcquireEvent) error {
		return a.Publish(ctx, FromAcquire(event))
	})
	m.OnRelease(func(ctx context.Context, event *types.ReleaseEvent) error {
		return a.Publish(ctx, FromRelease(event))
	})
}

// FromAcquire converts an acquisition outcome into the wire payload.
func FromAcquire(event *types.AcquireEvent) *LeaseEvent {
	le := &LeaseEvent{
		EventType:  EventPoolExhausted,
		Pool:       event.PoolName,
		Consumer:   event.ConsumerName,
		Strategy:   string(event.Strategy),
		Timestamp:  event.CompletedAt.UTC().Format(time.RFC3339Nano),
		DurationMs: event.DurationMs,
	}
	if event.Lease != nil {
		le.EventType = EventLeaseAcquired
		le.LeaseID = event.Lease.ID.String()
		le.ProxyID = event.Lease.ProxyID.String()
		le.ExpiresAt = event.Lease.ExpiresAt.UTC().Format(time.RFC3339Nano)
	}
	applyStats(le, event.PoolStats)
	return le
}

// FromRelease converts a release outcome into the wire payload.
func FromRelease(event *types.ReleaseEvent) *LeaseEvent {
	le := &LeaseEvent{
		EventType:  EventLeaseReleased,
		Pool:       event.PoolName,
		LeaseID:    event.Lease.ID.String(),
		ProxyID:    event.Lease.ProxyID.String(),
		Timestamp:  event.ReleasedAt.UTC().Format(time.RFC3339Nano),
		DurationMs: event.LeaseDurationMs,
	}
	applyStats(le, event.PoolStats)
	return le
}

func applyStats(le *LeaseEvent, stats *types.PoolStats) {
	if stats == nil {
		return
	}
	total, available, leased := stats.TotalProxies, stats.AvailableProxies, stats.LeasedProxies
	le.TotalProxies = &total
	le.AvailableProxies = &available
	le.LeasedProxies = &leased
}
