package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Default health check parameters.
const (
	DefaultTargetURL       = "https://httpbin.org/ip"
	DefaultCheckTimeout    = 5 * time.Second
	DefaultSlowThresholdMs = 2000
	MaxCheckAttempts       = 5
)

// CheckOptions configures a proxy health check. The target boundary is
// supplied by the caller; the probe engine does not own it.
type CheckOptions struct {
	// TargetURL is the HTTP endpoint requested through the proxy.
	TargetURL string
	// Timeout bounds each individual attempt.
	Timeout time.Duration
	// Attempts is the maximum number of tries (1..MaxCheckAttempts).
	Attempts int
	// ExpectedStatusCodes are response codes treated as success.
	ExpectedStatusCodes []int
	// SlowThresholdMs classifies a successful check as slow when the
	// observed latency exceeds it.
	SlowThresholdMs int64
	// FollowRedirects controls redirect handling during the probe.
	FollowRedirects bool
	// Headers are extra request headers sent with each attempt.
	Headers map[string]string
}

// DefaultCheckOptions returns check options with every default applied.
func DefaultCheckOptions() CheckOptions {
	return CheckOptions{
		TargetURL:           DefaultTargetURL,
		Timeout:             DefaultCheckTimeout,
		Attempts:            1,
		ExpectedStatusCodes: []int{200},
		SlowThresholdMs:     DefaultSlowThresholdMs,
		FollowRedirects:     true,
	}
}

// Normalize fills zero-valued fields with defaults and validates bounds.
func (o *CheckOptions) Normalize() error {
	if o.TargetURL == "" {
		o.TargetURL = DefaultTargetURL
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultCheckTimeout
	}
	if o.Attempts == 0 {
		o.Attempts = 1
	}
	if o.Attempts < 1 || o.Attempts > MaxCheckAttempts {
		return fmt.Errorf("attempts must be between 1 and %d, got %d", MaxCheckAttempts, o.Attempts)
	}
	if len(o.ExpectedStatusCodes) == 0 {
		o.ExpectedStatusCodes = []int{200}
	}
	if o.SlowThresholdMs < 0 {
		return fmt.Errorf("slow_threshold_ms must be >= 0, got %d", o.SlowThresholdMs)
	}
	if o.SlowThresholdMs == 0 {
		o.SlowThresholdMs = DefaultSlowThresholdMs
	}
	return nil
}

// ExpectsStatus reports whether the status code counts as success.
func (o *CheckOptions) ExpectsStatus(code int) bool {
	for _, expected := range o.ExpectedStatusCodes {
		if code == expected {
			return true
		}
	}
	return false
}

// CheckResult is the classified outcome of a single proxy health check.
// Ephemeral: produced per probe, applied to storage, not retained.
type CheckResult struct {
	ProxyID      uuid.UUID     `json:"proxy_id"`
	Status       ProxyStatus   `json:"status"`
	LatencyMs    int64         `json:"latency_ms"`
	Protocol     ProxyProtocol `json:"protocol"`
	Attempts     int           `json:"attempts"`
	StatusCode   *int          `json:"status_code,omitempty"`
	CheckedAt    time.Time     `json:"checked_at"`
	ErrorMessage string        `json:"error_message,omitempty"`
}
