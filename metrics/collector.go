// Package metrics provides lease and health-check metrics collection.
//
// The Collector accumulates counters for a running pharos instance. It is
// a leaf package with no internal dependencies; wiring onto a manager
// happens in the embedding application via callbacks.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all collected metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Leasing
	AcquireHits   int64
	AcquireMisses int64
	Releases      int64
	ExpiredSwept  int64

	// Health checks, keyed by classified status (active/slow/inactive)
	ChecksByStatus map[string]int64

	// Dimensions (informational, set at construction)
	StorageBackend string
	Instance       string
}

// Collector accumulates lease and health-check counters.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	acquireHits   int64
	acquireMisses int64
	releases      int64
	expiredSwept  int64

	checksByStatus map[string]int64

	storageBackend string
	instance       string
}

// NewCollector creates a Collector with dimension labels. Both dimensions
// are informational and may be empty.
func NewCollector(storageBackend, instance string) *Collector {
	return &Collector{
		checksByStatus: make(map[string]int64),
		storageBackend: storageBackend,
		instance:       instance,
	}
}

// --- Leasing ---

// IncAcquireHit records a granted acquisition.
func (c *Collector) IncAcquireHit() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.acquireHits++
	c.mu.Unlock()
}

// IncAcquireMiss records an exhausted acquisition attempt.
func (c *Collector) IncAcquireMiss() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.acquireMisses++
	c.mu.Unlock()
}

// IncRelease records a lease release.
func (c *Collector) IncRelease() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.releases++
	c.mu.Unlock()
}

// AddExpiredSwept records leases transitioned to expired by a cleanup sweep.
func (c *Collector) AddExpiredSwept(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.expiredSwept += n
	c.mu.Unlock()
}

// --- Health checks ---

// IncCheck records one classified health-check outcome.
func (c *Collector) IncCheck(status string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.checksByStatus[status]++
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	checks := make(map[string]int64, len(c.checksByStatus))
	for k, v := range c.checksByStatus {
		checks[k] = v
	}

	return Snapshot{
		AcquireHits:   c.acquireHits,
		AcquireMisses: c.acquireMisses,
		Releases:      c.releases,
		ExpiredSwept:  c.expiredSwept,

		ChecksByStatus: checks,

		StorageBackend: c.storageBackend,
		Instance:       c.instance,
	}
}
