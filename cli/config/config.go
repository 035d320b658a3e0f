package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/justapithecus/pharos/types"
)

// Config represents a pharos.yaml configuration file.
// All values are optional and act as defaults for pharos command flags.
// CLI flags always override config values.
type Config struct {
	Consumer string                `yaml:"consumer"`
	Pools    map[string]PoolConfig `yaml:"pools"`
	Lease    LeaseConfig           `yaml:"lease"`
	Health   HealthConfig          `yaml:"health"`
	Adapter  AdapterConfig         `yaml:"adapter"`
}

// PoolConfig is a proxy pool definition within the config file.
// Name is derived from the map key, not stored in the struct.
type PoolConfig struct {
	Description string        `yaml:"description,omitempty"`
	Strategy    string        `yaml:"strategy,omitempty"`
	Proxies     []ProxyConfig `yaml:"proxies"`
}

// ProxyConfig is a single proxy entry within a pool.
type ProxyConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	Protocol       string   `yaml:"protocol"`
	Username       string   `yaml:"username,omitempty"`
	Password       string   `yaml:"password,omitempty"`
	Source         string   `yaml:"source,omitempty"`
	Country        string   `yaml:"country,omitempty"`
	City           string   `yaml:"city,omitempty"`
	ISP            string   `yaml:"isp,omitempty"`
	ASN            int      `yaml:"asn,omitempty"`
	Latitude       *float64 `yaml:"latitude,omitempty"`
	Longitude      *float64 `yaml:"longitude,omitempty"`
	MaxConcurrency *int     `yaml:"max_concurrency,omitempty"`
}

// LeaseConfig holds acquisition defaults from the config file.
type LeaseConfig struct {
	Duration   Duration `yaml:"duration,omitempty"`
	Retries    *int     `yaml:"retries,omitempty"`
	Backoff    Duration `yaml:"backoff,omitempty"`
	MaxBackoff Duration `yaml:"max_backoff,omitempty"`
}

// HealthConfig holds probe defaults from the config file.
type HealthConfig struct {
	TargetURL       string            `yaml:"target_url,omitempty"`
	Timeout         Duration          `yaml:"timeout,omitempty"`
	Attempts        int               `yaml:"attempts,omitempty"`
	ExpectedStatus  []int             `yaml:"expected_status,omitempty"`
	SlowThresholdMs int64             `yaml:"slow_threshold_ms,omitempty"`
	FollowRedirects *bool             `yaml:"follow_redirects,omitempty"`
	Headers         map[string]string `yaml:"headers,omitempty"`
}

// AdapterConfig holds lease-event adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// PoolNames returns the configured pool names in sorted order.
// Sorting ensures deterministic iteration during bootstrap.
func (c *Config) PoolNames() []string {
	if len(c.Pools) == 0 {
		return nil
	}
	names := make([]string, 0, len(c.Pools))
	for name := range c.Pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckOptions converts the health section into probe options, leaving
// zero values for downstream normalization.
func (c *Config) CheckOptions() types.CheckOptions {
	opts := types.CheckOptions{
		TargetURL:           c.Health.TargetURL,
		Timeout:             c.Health.Timeout.Duration,
		Attempts:            c.Health.Attempts,
		ExpectedStatusCodes: c.Health.ExpectedStatus,
		SlowThresholdMs:     c.Health.SlowThresholdMs,
		FollowRedirects:     true,
		Headers:             c.Health.Headers,
	}
	if c.Health.FollowRedirects != nil {
		opts.FollowRedirects = *c.Health.FollowRedirects
	}
	return opts
}

// Proxy converts a config entry into a domain proxy for the named pool.
func (p *ProxyConfig) Proxy() (*types.Proxy, error) {
	proxy := &types.Proxy{
		Host:           p.Host,
		Port:           p.Port,
		Protocol:       types.ProxyProtocol(p.Protocol),
		Status:         types.ProxyStatusActive,
		Source:         p.Source,
		Country:        p.Country,
		City:           p.City,
		ISP:            p.ISP,
		ASN:            p.ASN,
		Latitude:       p.Latitude,
		Longitude:      p.Longitude,
		MaxConcurrency: p.MaxConcurrency,
	}
	if p.Username != "" || p.Password != "" {
		proxy.Credentials = &types.Credentials{Username: p.Username, Password: p.Password}
	}
	if err := proxy.Validate(); err != nil {
		return nil, fmt.Errorf("proxy %s:%d: %w", p.Host, p.Port, err)
	}
	return proxy, nil
}
