// Package ratelimit provides fixed-window admission control per client
// identifier.
package ratelimit

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nlweb-ai/nlweb-go/internal/config"
)

// sweepInterval is how often expired windows are garbage-collected.
const sweepInterval = time.Minute

// Status is a read-only snapshot of one identifier's window.
type Status struct {
	Limit     int
	Remaining int
	Total     int
	ResetIn   time.Duration
}

type window struct {
	start time.Time
	count int
}

// Limiter admits or rejects requests using one fixed counting window per
// identifier. Windows are created lazily on an identifier's first request
// and hold no state before that.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	cfg     *config.RateLimitConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewLimiter creates a limiter with no active windows.
func NewLimiter(cfg *config.RateLimitConfig, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{
		windows: make(map[string]*window),
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Allow records a request for id and reports whether it is admitted.
// Rejected requests still count toward the window total.
func (l *Limiter) Allow(id string) bool {
	if !l.cfg.EnabledOrDefault() {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[id]
	if !ok || now.Sub(w.start) >= l.cfg.Window() {
		w = &window{start: now}
		l.windows[id] = w
	}
	w.count++

	allowed := w.count <= l.cfg.MaxRequests
	if !allowed {
		l.logger.Debug("request rejected",
			zap.String("identifier", id),
			zap.Int("count", w.count),
			zap.Int("limit", l.cfg.MaxRequests))
	}
	return allowed
}

// Status reports the window state for id without recording a request.
func (l *Limiter) Status(id string) Status {
	status := Status{Limit: l.cfg.MaxRequests, Remaining: l.cfg.MaxRequests}
	if !l.cfg.EnabledOrDefault() {
		return status
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[id]
	if !ok {
		return status
	}
	elapsed := l.now().Sub(w.start)
	if elapsed >= l.cfg.Window() {
		// Expired; the next request opens a fresh window.
		return status
	}

	status.Total = w.count
	status.Remaining = l.cfg.MaxRequests - w.count
	if status.Remaining < 0 {
		status.Remaining = 0
	}
	status.ResetIn = l.cfg.Window() - elapsed
	return status
}

// Identify derives the limiter identifier from the remote address and the
// client-supplied id per the configured strategy. The "both" strategy
// prefers the remote address; "client" prefers the supplied id.
func (l *Limiter) Identify(remoteAddr, clientID string) string {
	ip := hostOnly(remoteAddr)
	clientID = strings.TrimSpace(clientID)

	switch l.cfg.Strategy {
	case "client":
		if clientID != "" {
			return "client:" + clientID
		}
		if ip != "" {
			return "ip:" + ip
		}
	case "both":
		if ip != "" {
			return "ip:" + ip
		}
		if clientID != "" {
			return "client:" + clientID
		}
	default:
		if ip != "" {
			return "ip:" + ip
		}
	}
	return "unknown"
}

// ActiveWindows returns how many identifiers currently hold a window.
func (l *Limiter) ActiveWindows() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Start launches the background sweep that drops expired windows. It
// returns immediately; the sweep stops when ctx is done.
func (l *Limiter) Start(ctx context.Context) {
	go l.run(ctx)
}

func (l *Limiter) run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// sweep drops windows whose period has fully elapsed.
func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, w := range l.windows {
		if now.Sub(w.start) >= l.cfg.Window() {
			delete(l.windows, id)
		}
	}
}

// hostOnly strips the port from host:port remote addresses.
func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.TrimSpace(addr)
}
