// Package types defines the core domain model for the Pharos proxy manager.
package types

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProxyProtocol is the wire protocol used to reach a proxy.
type ProxyProtocol string

const (
	ProxyProtocolHTTP   ProxyProtocol = "http"
	ProxyProtocolHTTPS  ProxyProtocol = "https"
	ProxyProtocolSOCKS4 ProxyProtocol = "socks4"
	ProxyProtocolSOCKS5 ProxyProtocol = "socks5"
)

// ProxyStatus is the operational status of a proxy.
type ProxyStatus string

const (
	ProxyStatusActive   ProxyStatus = "active"
	ProxyStatusSlow     ProxyStatus = "slow"
	ProxyStatusInactive ProxyStatus = "inactive"
	ProxyStatusBanned   ProxyStatus = "banned"
)

// Credentials are optional authentication credentials for a proxy.
type Credentials struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// Proxy is a network proxy endpoint belonging to a pool.
//
// CurrentLeases is managed by the storage layer and equals the number of
// leases with status active referencing this proxy. MaxConcurrency bounds
// concurrent leases; nil means unbounded.
type Proxy struct {
	ID        uuid.UUID     `json:"id"`
	Host      string        `json:"host"`
	Port      int           `json:"port"`
	Protocol  ProxyProtocol `json:"protocol"`
	PoolID    uuid.UUID     `json:"pool_id"`
	Status    ProxyStatus   `json:"status"`
	CheckedAt time.Time     `json:"checked_at"`
	LatencyMs int64         `json:"latency_ms"`

	Credentials *Credentials `json:"credentials,omitempty"`

	// Geo / provider metadata used by filters.
	Source    string   `json:"source,omitempty"`
	Country   string   `json:"country,omitempty"`
	City      string   `json:"city,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	ISP       string   `json:"isp,omitempty"`
	ASN       int      `json:"asn,omitempty"`

	MaxConcurrency *int `json:"max_concurrency,omitempty"`
	CurrentLeases  int  `json:"current_leases"`
}

// Validate validates proxy invariants.
func (p *Proxy) Validate() error {
	switch p.Protocol {
	case ProxyProtocolHTTP, ProxyProtocolHTTPS, ProxyProtocolSOCKS4, ProxyProtocolSOCKS5:
		// valid
	default:
		return fmt.Errorf("invalid protocol %q: must be http, https, socks4, or socks5", p.Protocol)
	}

	if p.Host == "" {
		return fmt.Errorf("proxy host is required")
	}
	if p.Port < 1 || p.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", p.Port)
	}
	if p.MaxConcurrency != nil && *p.MaxConcurrency <= 0 {
		return fmt.Errorf("max_concurrency must be positive, got %d", *p.MaxConcurrency)
	}
	if p.CurrentLeases < 0 {
		return fmt.Errorf("current_leases must be >= 0, got %d", p.CurrentLeases)
	}
	return nil
}

// URL builds the full dialable proxy URL, including URL-encoded credentials
// when present. IPv6 hosts are bracketed.
func (p *Proxy) URL() string {
	auth := ""
	if p.Credentials != nil {
		auth = url.QueryEscape(p.Credentials.Username) + ":" + url.QueryEscape(p.Credentials.Password) + "@"
	}

	host := p.Host
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}

	return fmt.Sprintf("%s://%s%s:%d", p.Protocol, auth, host, p.Port)
}

// HasCapacity reports whether the proxy can take another lease.
func (p *Proxy) HasCapacity() bool {
	return p.MaxConcurrency == nil || p.CurrentLeases < *p.MaxConcurrency
}

// Leasable reports whether the proxy is an eligible selection candidate:
// status active or slow, with spare capacity.
func (p *Proxy) Leasable() bool {
	if p.Status != ProxyStatusActive && p.Status != ProxyStatusSlow {
		return false
	}
	return p.HasCapacity()
}

// Clone returns a deep copy of the proxy.
func (p *Proxy) Clone() *Proxy {
	cp := *p
	if p.Credentials != nil {
		creds := *p.Credentials
		cp.Credentials = &creds
	}
	if p.Latitude != nil {
		lat := *p.Latitude
		cp.Latitude = &lat
	}
	if p.Longitude != nil {
		lon := *p.Longitude
		cp.Longitude = &lon
	}
	if p.MaxConcurrency != nil {
		mc := *p.MaxConcurrency
		cp.MaxConcurrency = &mc
	}
	return &cp
}
