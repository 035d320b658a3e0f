package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"h12.io/socks"

	"github.com/justapithecus/pharos/types"
)

// HTTPProber issues a real request through the proxy to the configured
// target URL. HTTP and HTTPS proxies go through the transport's proxy
// support; SOCKS4 and SOCKS5 proxies dial through a SOCKS connector.
type HTTPProber struct{}

// NewHTTPProber creates the default prober.
func NewHTTPProber() *HTTPProber {
	return &HTTPProber{}
}

// Probe performs one attempt. The caller bounds it with ctx; the returned
// status code is zero when no response was received.
func (p *HTTPProber) Probe(ctx context.Context, proxy *types.Proxy, opts *types.CheckOptions) (int, error) {
	transport, err := p.transport(proxy, opts)
	if err != nil {
		return 0, err
	}
	defer transport.CloseIdleConnections()

	client := &http.Client{Transport: transport}
	if !opts.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.TargetURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build probe request: %w", err)
	}
	for name, value := range opts.Headers {
		req.Header.Set(name, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("probe %s via %s: %w", opts.TargetURL, proxy.Protocol, err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused within the attempt window.
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// transport builds a per-probe transport routed through the proxy.
func (p *HTTPProber) transport(proxy *types.Proxy, opts *types.CheckOptions) (*http.Transport, error) {
	proxyURL := proxy.URL()

	switch proxy.Protocol {
	case types.ProxyProtocolHTTP, types.ProxyProtocolHTTPS:
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		return &http.Transport{Proxy: http.ProxyURL(parsed)}, nil

	case types.ProxyProtocolSOCKS4, types.ProxyProtocolSOCKS5:
		// The SOCKS connector takes its handshake timeout from the URI.
		dial := socks.Dial(fmt.Sprintf("%s?timeout=%s", proxyURL, opts.Timeout))
		return &http.Transport{Dial: dial}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, proxy.Protocol)
	}
}
