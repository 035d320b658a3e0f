package types

import "time"

// PoolStats is an on-demand aggregate snapshot for a single pool.
// Computed by the storage boundary, consumed read-only by event payloads.
type PoolStats struct {
	PoolName string `json:"pool_name"`
	// TotalProxies counts every proxy in the pool regardless of status.
	TotalProxies int `json:"total_proxies"`
	// ActiveProxies counts proxies with status active.
	ActiveProxies int `json:"active_proxies"`
	// AvailableProxies counts proxies that are leasable right now:
	// status active or slow, with spare capacity.
	AvailableProxies int `json:"available_proxies"`
	// LeasedProxies counts proxies with at least one active lease.
	LeasedProxies int `json:"leased_proxies"`
	// TotalLeases is the aggregate in-flight lease count across the pool.
	TotalLeases int `json:"total_leases"`

	CollectedAt time.Time `json:"collected_at"`
}
