package types

import "time"

// AcquireEvent describes a completed acquisition attempt, successful or not.
// Delivered synchronously to registered acquire callbacks.
type AcquireEvent struct {
	// Lease is the acquired lease, or nil when the pool was exhausted.
	Lease        *Lease     `json:"lease,omitempty"`
	PoolName     string     `json:"pool_name"`
	ConsumerName string     `json:"consumer_name"`
	Filters      *Filters   `json:"filters,omitempty"`
	Strategy     Strategy   `json:"strategy"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  time.Time  `json:"completed_at"`
	// DurationMs is the elapsed acquisition time, never negative.
	DurationMs int64 `json:"duration_ms"`
	// ExpiredSwept counts leases expired by the pre-selection sweep.
	ExpiredSwept int        `json:"expired_swept,omitempty"`
	PoolStats    *PoolStats `json:"pool_stats,omitempty"`
}

// ReleaseEvent describes a completed release operation.
// Delivered synchronously to registered release callbacks.
type ReleaseEvent struct {
	Lease      *Lease    `json:"lease"`
	PoolName   string    `json:"pool_name,omitempty"`
	ReleasedAt time.Time `json:"released_at"`
	// LeaseDurationMs is the time the lease was held, never negative.
	LeaseDurationMs int64 `json:"lease_duration_ms"`
	// PoolStats is a post-release snapshot.
	PoolStats *PoolStats `json:"pool_stats,omitempty"`
}
