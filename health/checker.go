// Package health implements the proxy probe engine: protocol-dispatched
// connectivity checks, latency classification, and concurrent streaming
// over proxy batches.
package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justapithecus/pharos/log"
	"github.com/justapithecus/pharos/types"
)

// ErrUnsupportedProtocol indicates no prober is registered for the proxy's
// protocol. This is the only probe failure surfaced as an error; transport
// failures classify into an INACTIVE outcome instead.
var ErrUnsupportedProtocol = errors.New("unsupported proxy protocol")

// Prober issues a single probe attempt through the proxy and reports the
// response status code. Transport and protocol details live behind this
// interface; the Checker owns attempts, timeouts, and classification.
type Prober interface {
	Probe(ctx context.Context, proxy *types.Proxy, opts *types.CheckOptions) (statusCode int, err error)
}

// Checker classifies proxy reachability. Probers are registered per
// protocol; the default registration covers HTTP, HTTPS, SOCKS4, and
// SOCKS5 with a real request through the proxy.
type Checker struct {
	probers map[types.ProxyProtocol]Prober
	logger  *log.Logger
	now     func() time.Time
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithCheckerLogger sets the checker's logger. Defaults to a no-op logger.
func WithCheckerLogger(logger *log.Logger) CheckerOption {
	return func(c *Checker) {
		c.logger = logger
	}
}

// WithProber registers (or replaces) the prober for a protocol.
func WithProber(protocol types.ProxyProtocol, prober Prober) CheckerOption {
	return func(c *Checker) {
		c.probers[protocol] = prober
	}
}

// NewChecker creates a Checker with the default HTTP prober registered for
// every supported protocol.
func NewChecker(opts ...CheckerOption) *Checker {
	c := &Checker{
		probers: make(map[types.ProxyProtocol]Prober),
		logger:  log.NewNop(),
		now:     time.Now,
	}

	def := NewHTTPProber()
	for _, protocol := range []types.ProxyProtocol{
		types.ProxyProtocolHTTP,
		types.ProxyProtocolHTTPS,
		types.ProxyProtocolSOCKS4,
		types.ProxyProtocolSOCKS5,
	} {
		c.probers[protocol] = def
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check probes the proxy up to opts.Attempts times, each attempt bounded
// by opts.Timeout, and classifies the outcome:
//
//   - ACTIVE when an attempt succeeds within the slow threshold
//   - SLOW when an attempt succeeds above the slow threshold
//   - INACTIVE when every attempt fails
//
// The result's Attempts field reflects tries actually consumed. Only an
// unregistered protocol is returned as an error.
func (c *Checker) Check(ctx context.Context, proxy *types.Proxy, opts types.CheckOptions) (*types.CheckResult, error) {
	if err := opts.Normalize(); err != nil {
		return nil, fmt.Errorf("check options: %w", err)
	}

	prober, ok := c.probers[proxy.Protocol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, proxy.Protocol)
	}

	result := &types.CheckResult{
		ProxyID:  proxy.ID,
		Protocol: proxy.Protocol,
		Status:   types.ProxyStatusInactive,
	}

	var lastErr error
	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		result.Attempts = attempt

		attemptCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		started := c.now()
		statusCode, err := prober.Probe(attemptCtx, proxy, &opts)
		latency := c.now().Sub(started).Milliseconds()
		cancel()

		if statusCode != 0 {
			code := statusCode
			result.StatusCode = &code
		}

		if err != nil {
			lastErr = err
			continue
		}
		if !opts.ExpectsStatus(statusCode) {
			lastErr = fmt.Errorf("unexpected status code %d", statusCode)
			continue
		}

		result.LatencyMs = latency
		if latency <= opts.SlowThresholdMs {
			result.Status = types.ProxyStatusActive
		} else {
			result.Status = types.ProxyStatusSlow
		}
		break
	}

	if result.Status == types.ProxyStatusInactive && lastErr != nil {
		result.ErrorMessage = lastErr.Error()
	}
	result.CheckedAt = c.now()

	return result, nil
}
