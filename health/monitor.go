package health

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/justapithecus/pharos/log"
	"github.com/justapithecus/pharos/storage"
	"github.com/justapithecus/pharos/types"
)

// Monitor drives health sweeps over a proxy inventory and applies the
// classified outcomes back through the storage boundary.
type Monitor struct {
	store   storage.Store
	checker *Checker
	logger  *log.Logger
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithMonitorLogger sets the monitor's logger. Defaults to a no-op logger.
func WithMonitorLogger(logger *log.Logger) MonitorOption {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// NewMonitor creates a Monitor over the given checker and store.
func NewMonitor(store storage.Store, checker *Checker, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		store:   store,
		checker: checker,
		logger:  log.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Summary aggregates the outcomes of one sweep.
type Summary struct {
	Checked  int
	Active   int
	Slow     int
	Inactive int

	// Skipped counts proxies that vanished between probe and apply.
	Skipped int
}

// Sweep checks every proxy concurrently and applies each result as it
// completes. A proxy deleted mid-sweep is skipped without aborting the
// remaining stream; storage failures are collected and returned after the
// stream drains.
func (m *Monitor) Sweep(ctx context.Context, proxies []*types.Proxy, opts types.CheckOptions) (*Summary, error) {
	summary := &Summary{}
	var errs []error

	for result := range m.checker.StreamChecks(ctx, proxies, opts) {
		summary.Checked++
		switch result.Status {
		case types.ProxyStatusActive:
			summary.Active++
		case types.ProxyStatusSlow:
			summary.Slow++
		default:
			summary.Inactive++
		}

		updated, err := m.store.ApplyCheckResult(ctx, result)
		if err != nil {
			errs = append(errs, fmt.Errorf("apply check result for %s: %w", result.ProxyID, err))
			continue
		}
		if updated == nil {
			summary.Skipped++
			m.logger.Debug("proxy vanished mid-sweep, skipping", zap.String("proxy_id", result.ProxyID.String()))
			continue
		}

		m.logger.Debug("proxy checked",
			zap.String("proxy_id", result.ProxyID.String()),
			zap.String("status", string(result.Status)),
			zap.Int64("latency_ms", result.LatencyMs),
			zap.Int("attempts", result.Attempts))
	}

	m.logger.Info("health sweep complete",
		zap.Int("checked", summary.Checked),
		zap.Int("active", summary.Active),
		zap.Int("slow", summary.Slow),
		zap.Int("inactive", summary.Inactive),
		zap.Int("skipped", summary.Skipped))

	return summary, errors.Join(errs...)
}
