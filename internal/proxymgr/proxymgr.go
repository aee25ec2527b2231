// Package proxymgr rotates media requests over a pool of proxies.
// It tracks failures per proxy and backs a failing proxy off exponentially.
package proxymgr

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"hotsoonripper/internal/config"
)

// ProxyState represents the current state of a proxy.
type ProxyState int

const (
	// ProxyStateAvailable indicates the proxy is available for use.
	ProxyStateAvailable ProxyState = iota
	// ProxyStateFailed indicates the proxy has failed and is in backoff.
	ProxyStateFailed
)

func (s ProxyState) String() string {
	switch s {
	case ProxyStateAvailable:
		return "available"
	case ProxyStateFailed:
		return "failed"
	default:
		return fmt.Sprintf("ProxyState(%d)", int(s))
	}
}

const (
	healthCheckTimeout = 10 * time.Second
	maxBackoff         = time.Hour

	defaultSOCKSPort = "1080"
	defaultHTTPPort  = "8080"
)

type proxyInfo struct {
	url           *url.URL
	state         ProxyState
	failureCount  int
	lastFailure   time.Time
	backoffUntil  time.Time
	lastHealthChk time.Time
}

// Manager hands out proxies and keeps their health. A Manager without proxies connects directly.
type Manager struct {
	log            *slog.Logger
	maxFailures    int
	failureBackoff time.Duration
	checkInterval  time.Duration

	mu      sync.Mutex
	proxies map[string]*proxyInfo
	order   []string // insertion order for stable iteration
}

// New creates a Manager from cfg.Proxy.
func New(log *slog.Logger, cfg *config.Config) (*Manager, error) {
	mgr := &Manager{
		log:            log.With(slog.String("package", "proxymgr")),
		maxFailures:    max(cfg.Proxy.MaxFailures, 1),
		failureBackoff: cfg.Proxy.FailureBackoff,
		checkInterval:  cfg.Proxy.HealthCheckInterval,
		proxies:        make(map[string]*proxyInfo, len(cfg.Proxy.Proxies)),
		order:          make([]string, 0, len(cfg.Proxy.Proxies)),
	}

	for _, raw := range cfg.Proxy.Proxies {
		if _, dup := mgr.proxies[raw]; dup {
			continue
		}

		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse proxy %q: %w", raw, err)
		}

		mgr.proxies[raw] = &proxyInfo{url: u}
		mgr.order = append(mgr.order, raw)
	}

	return mgr, nil
}

// HasProxies returns true if any proxies are configured.
func (m *Manager) HasProxies() bool {
	return len(m.order) > 0
}

// ProxyCount returns the total number of configured proxies.
func (m *Manager) ProxyCount() int {
	return len(m.order)
}

// AvailableCount returns the number of proxies not in backoff.
func (m *Manager) AvailableCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.available(time.Now()))
}

// Pick returns a random available proxy. When every proxy is backing off the one that recovers first is used.
func (m *Manager) Pick() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.order) == 0 {
		return ""
	}

	if avail := m.available(time.Now()); len(avail) > 0 {
		return avail[rand.IntN(len(avail))]
	}

	best := m.order[0]
	for _, raw := range m.order[1:] {
		if m.proxies[raw].backoffUntil.Before(m.proxies[best].backoffUntil) {
			best = raw
		}
	}

	return best
}

type trackerKey struct{}

type tracker struct {
	mu    sync.Mutex
	proxy string
}

// ProxyFunc is an http.Transport Proxy function. The choice is remembered for Track.
func (m *Manager) ProxyFunc(req *http.Request) (*url.URL, error) {
	raw := m.Pick()
	if raw == "" {
		return nil, nil
	}

	if t, ok := req.Context().Value(trackerKey{}).(*tracker); ok {
		t.mu.Lock()
		t.proxy = raw
		t.mu.Unlock()
	}

	m.mu.Lock()
	u := m.proxies[raw].url
	m.mu.Unlock()

	return u, nil
}

// Track returns a context to send one request with and a report func to call with its transport error.
// A nil error marks the chosen proxy healthy, anything else counts as a proxy failure.
func (m *Manager) Track(ctx context.Context) (context.Context, func(error)) {
	if !m.HasProxies() {
		return ctx, func(error) {}
	}

	t := &tracker{}

	return context.WithValue(ctx, trackerKey{}, t), func(err error) {
		t.mu.Lock()
		raw := t.proxy
		t.mu.Unlock()

		if raw == "" {
			return
		}

		if err != nil {
			m.MarkFailed(raw)

			return
		}

		m.MarkSuccess(raw)
	}
}

// MarkFailed records a failure and applies backoff once the failure limit is reached.
func (m *Manager) MarkFailed(proxyURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, exists := m.proxies[proxyURL]
	if !exists {
		return
	}

	info.failureCount++
	info.lastFailure = time.Now()

	if info.failureCount < m.maxFailures {
		return
	}

	info.state = ProxyStateFailed
	backoff := min(m.failureBackoff*time.Duration(1<<min(info.failureCount-m.maxFailures, 16)), maxBackoff)
	info.backoffUntil = time.Now().Add(backoff)

	m.log.Warn("proxy marked as failed",
		slog.String("proxy", info.url.Redacted()),
		slog.Int("failure_count", info.failureCount),
		slog.Duration("backoff", backoff))
}

// MarkSuccess makes the proxy available and resets its failure count.
func (m *Manager) MarkSuccess(proxyURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, exists := m.proxies[proxyURL]
	if !exists {
		return
	}

	info.state = ProxyStateAvailable
	info.failureCount = 0
	info.backoffUntil = time.Time{}
}

// HealthCheck dials the proxy and updates its state.
func (m *Manager) HealthCheck(ctx context.Context, proxyURL string) error {
	m.mu.Lock()
	info, exists := m.proxies[proxyURL]
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("unknown proxy %q", proxyURL)
	}

	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	var dialer net.Dialer

	conn, err := dialer.DialContext(checkCtx, "tcp", hostPort(info.url))
	if err != nil {
		m.MarkFailed(proxyURL)

		return fmt.Errorf("dial proxy: %w", err)
	}
	_ = conn.Close()

	m.mu.Lock()
	info.lastHealthChk = time.Now()
	m.mu.Unlock()

	m.MarkSuccess(proxyURL)

	return nil
}

// StartHealthChecker checks every proxy on the configured interval until ctx is done.
func (m *Manager) StartHealthChecker(ctx context.Context) {
	if m.checkInterval <= 0 || !m.HasProxies() {
		return
	}

	go func() {
		ticker := time.NewTicker(m.checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.checkAll(ctx)
			}
		}
	}()

	m.log.Info("proxy health checker started",
		slog.Duration("interval", m.checkInterval),
		slog.Int("proxy_count", len(m.order)))
}

// ProxyStats represents statistics for a proxy.
type ProxyStats struct {
	State         ProxyState
	FailureCount  int
	LastFailure   time.Time
	BackoffUntil  time.Time
	LastHealthChk time.Time
}

// Stats returns current proxy statistics keyed by proxy URL.
func (m *Manager) Stats() map[string]ProxyStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := make(map[string]ProxyStats, len(m.proxies))
	for raw, info := range m.proxies {
		stats[raw] = ProxyStats{
			State:         info.state,
			FailureCount:  info.failureCount,
			LastFailure:   info.lastFailure,
			BackoffUntil:  info.backoffUntil,
			LastHealthChk: info.lastHealthChk,
		}
	}

	return stats
}

// LogStats logs one line per proxy in configuration order. Credentials are redacted.
func (m *Manager) LogStats(ctx context.Context) {
	stats := m.Stats()

	for _, raw := range m.order {
		st := stats[raw]

		attrs := []slog.Attr{
			slog.String("proxy", m.proxies[raw].url.Redacted()),
			slog.String("state", st.State.String()),
			slog.Int("failures", st.FailureCount),
		}
		if !st.BackoffUntil.IsZero() {
			attrs = append(attrs, slog.Time("backoff_until", st.BackoffUntil))
		}

		m.log.LogAttrs(ctx, slog.LevelInfo, "proxy stats", attrs...)
	}
}

func (m *Manager) available(now time.Time) []string {
	avail := make([]string, 0, len(m.order))

	for _, raw := range m.order {
		info := m.proxies[raw]
		if info.state == ProxyStateAvailable || now.After(info.backoffUntil) {
			avail = append(avail, raw)
		}
	}

	return avail
}

func (m *Manager) checkAll(ctx context.Context) {
	for _, raw := range m.order {
		if ctx.Err() != nil {
			return
		}

		if err := m.HealthCheck(ctx, raw); err != nil {
			m.log.Debug("proxy health check failed",
				slog.String("proxy", m.proxies[raw].url.Redacted()),
				slog.Any("error", err))
		}
	}
}

// hostPort adds the scheme's default port when the proxy URL has none.
func hostPort(u *url.URL) string {
	if u.Port() != "" {
		return u.Host
	}

	switch u.Scheme {
	case "socks5", "socks5h":
		return net.JoinHostPort(u.Hostname(), defaultSOCKSPort)
	default:
		return net.JoinHostPort(u.Hostname(), defaultHTTPPort)
	}
}
