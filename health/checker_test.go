package health

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/justapithecus/pharos/types"
)

// proxyFor builds an HTTP proxy record pointing at the test server. The
// server plays both proxy and origin: it answers whatever request the
// transport forwards.
func proxyFor(t *testing.T, server *httptest.Server) *types.Proxy {
	t.Helper()

	host, portStr, err := net.SplitHostPort(server.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split server address: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse server port: %v", err)
	}

	return &types.Proxy{
		ID:        uuid.New(),
		Host:      host,
		Port:      port,
		Protocol:  types.ProxyProtocolHTTP,
		Status:    types.ProxyStatusInactive,
		CheckedAt: time.Now(),
	}
}

func checkOptions() types.CheckOptions {
	return types.CheckOptions{
		TargetURL:           "http://origin.test/ip",
		Timeout:             2 * time.Second,
		Attempts:            1,
		ExpectedStatusCodes: []int{200},
		SlowThresholdMs:     5000,
	}
}

func TestCheck_ClassifiesActive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewChecker()
	result, err := checker.Check(context.Background(), proxyFor(t, server), checkOptions())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if result.Status != types.ProxyStatusActive {
		t.Errorf("status = %s, want active", result.Status)
	}
	if result.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", result.Attempts)
	}
	if result.StatusCode == nil || *result.StatusCode != 200 {
		t.Error("result should carry the observed status code")
	}
	if result.LatencyMs < 0 {
		t.Errorf("latency = %dms, want non-negative", result.LatencyMs)
	}
	if result.ErrorMessage != "" {
		t.Errorf("unexpected error detail: %q", result.ErrorMessage)
	}
	if result.CheckedAt.IsZero() {
		t.Error("checked_at must be set")
	}
}

func TestCheck_ClassifiesSlow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(30 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	opts := checkOptions()
	opts.SlowThresholdMs = 1

	checker := NewChecker()
	result, err := checker.Check(context.Background(), proxyFor(t, server), opts)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if result.Status != types.ProxyStatusSlow {
		t.Errorf("status = %s, want slow", result.Status)
	}
	if result.LatencyMs < 30 {
		t.Errorf("latency = %dms, want at least the server delay", result.LatencyMs)
	}
}

func TestCheck_ConnectionFailureConsumesAllAttempts(t *testing.T) {
	// Grab an address that refuses connections by closing the listener.
	server := httptest.NewServer(http.NotFoundHandler())
	proxy := proxyFor(t, server)
	server.Close()

	opts := checkOptions()
	opts.Attempts = 2

	checker := NewChecker()
	result, err := checker.Check(context.Background(), proxy, opts)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if result.Status != types.ProxyStatusInactive {
		t.Errorf("status = %s, want inactive", result.Status)
	}
	if result.Attempts != 2 {
		t.Errorf("attempts = %d, want all %d consumed", result.Attempts, 2)
	}
	if result.ErrorMessage == "" {
		t.Error("failed check should carry an error detail")
	}
	if result.StatusCode != nil {
		t.Error("no response was received, status code should be absent")
	}
}

func TestCheck_UnexpectedStatusIsInactive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	checker := NewChecker()
	result, err := checker.Check(context.Background(), proxyFor(t, server), checkOptions())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if result.Status != types.ProxyStatusInactive {
		t.Errorf("status = %s, want inactive", result.Status)
	}
	if result.StatusCode == nil || *result.StatusCode != 503 {
		t.Error("result should carry the last observed status code")
	}
	if result.ErrorMessage == "" {
		t.Error("unexpected status should carry an error detail")
	}
}

func TestCheck_CustomExpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	opts := checkOptions()
	opts.ExpectedStatusCodes = []int{204}

	checker := NewChecker()
	result, err := checker.Check(context.Background(), proxyFor(t, server), opts)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if result.Status != types.ProxyStatusActive {
		t.Errorf("status = %s, want active for an expected 204", result.Status)
	}
}

func TestCheck_SucceedsOnLaterAttempt(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	opts := checkOptions()
	opts.Attempts = 3

	checker := NewChecker()
	result, err := checker.Check(context.Background(), proxyFor(t, server), opts)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if result.Status != types.ProxyStatusActive {
		t.Errorf("status = %s, want active after recovery", result.Status)
	}
	if result.Attempts != 2 {
		t.Errorf("attempts = %d, want 2 (retry stopped on success)", result.Attempts)
	}
}

func TestCheck_SendsConfiguredHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Probe-Token") != "sweep-7" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	opts := checkOptions()
	opts.Headers = map[string]string{"X-Probe-Token": "sweep-7"}

	checker := NewChecker()
	result, err := checker.Check(context.Background(), proxyFor(t, server), opts)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if result.Status != types.ProxyStatusActive {
		t.Errorf("status = %s, want active with headers applied", result.Status)
	}
}

func TestCheck_UnsupportedProtocol(t *testing.T) {
	checker := NewChecker()
	proxy := &types.Proxy{
		ID:       uuid.New(),
		Host:     "10.0.0.1",
		Port:     21,
		Protocol: types.ProxyProtocol("ftp"),
	}

	_, err := checker.Check(context.Background(), proxy, checkOptions())
	if !errors.Is(err, ErrUnsupportedProtocol) {
		t.Errorf("expected ErrUnsupportedProtocol, got %v", err)
	}
}

func TestCheck_RejectsInvalidOptions(t *testing.T) {
	checker := NewChecker()
	opts := checkOptions()
	opts.Attempts = types.MaxCheckAttempts + 1

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	if _, err := checker.Check(context.Background(), proxyFor(t, server), opts); err == nil {
		t.Error("expected error for attempts above the cap")
	}
}
