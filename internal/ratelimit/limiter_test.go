package ratelimit

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nlweb-ai/nlweb-go/internal/config"
)

func testLimiter(maxRequests, windowSeconds int) (*Limiter, *time.Time) {
	cfg := &config.RateLimitConfig{
		WindowSeconds: windowSeconds,
		MaxRequests:   maxRequests,
		Strategy:      "ip",
	}
	l := NewLimiter(cfg, zap.NewNop())

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }
	return l, &current
}

func TestAllowFixedWindow(t *testing.T) {
	l, clock := testLimiter(5, 60)

	for i := 0; i < 5; i++ {
		if !l.Allow("ip:10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("ip:10.0.0.1") {
		t.Error("6th request within the window should be rejected")
	}
	if got := l.Status("ip:10.0.0.1"); got.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", got.Remaining)
	}

	*clock = clock.Add(61 * time.Second)

	if !l.Allow("ip:10.0.0.1") {
		t.Error("request after window rollover should be allowed")
	}
	if got := l.Status("ip:10.0.0.1"); got.Remaining != 4 {
		t.Errorf("Remaining after rollover = %d, want 4", got.Remaining)
	}
}

func TestStatusDoesNotMutate(t *testing.T) {
	l, _ := testLimiter(5, 60)

	l.Allow("ip:10.0.0.1")
	for i := 0; i < 10; i++ {
		l.Status("ip:10.0.0.1")
	}
	if got := l.Status("ip:10.0.0.1"); got.Total != 1 {
		t.Errorf("Total = %d after repeated Status calls, want 1", got.Total)
	}
}

func TestStatusUnknownIdentifier(t *testing.T) {
	l, _ := testLimiter(5, 60)

	got := l.Status("ip:192.168.0.9")
	if got.Limit != 5 || got.Remaining != 5 || got.Total != 0 || got.ResetIn != 0 {
		t.Errorf("unexpected status for untouched identifier: %+v", got)
	}
	if l.ActiveWindows() != 0 {
		t.Error("Status must not create windows")
	}
}

func TestStatusResetIn(t *testing.T) {
	l, clock := testLimiter(5, 60)

	l.Allow("ip:10.0.0.1")
	*clock = clock.Add(20 * time.Second)

	got := l.Status("ip:10.0.0.1")
	if got.ResetIn != 40*time.Second {
		t.Errorf("ResetIn = %v, want 40s", got.ResetIn)
	}
}

func TestIdentifiersIndependent(t *testing.T) {
	l, _ := testLimiter(2, 60)

	l.Allow("ip:10.0.0.1")
	l.Allow("ip:10.0.0.1")
	if l.Allow("ip:10.0.0.1") {
		t.Error("expected first identifier exhausted")
	}
	if !l.Allow("ip:10.0.0.2") {
		t.Error("expected second identifier unaffected")
	}
}

func TestDisabledLimiter(t *testing.T) {
	disabled := false
	cfg := &config.RateLimitConfig{
		Enabled:       &disabled,
		WindowSeconds: 60,
		MaxRequests:   1,
		Strategy:      "ip",
	}
	l := NewLimiter(cfg, zap.NewNop())

	for i := 0; i < 10; i++ {
		if !l.Allow("ip:10.0.0.1") {
			t.Fatal("disabled limiter must admit everything")
		}
	}
	if got := l.Status("ip:10.0.0.1"); got.Remaining != 1 {
		t.Errorf("Remaining = %d, want full limit when disabled", got.Remaining)
	}
}

func TestIdentifyStrategies(t *testing.T) {
	tests := []struct {
		strategy   string
		remoteAddr string
		clientID   string
		want       string
	}{
		{"ip", "10.0.0.1:52412", "abc", "ip:10.0.0.1"},
		{"ip", "10.0.0.1", "", "ip:10.0.0.1"},
		{"ip", "", "abc", "unknown"},
		{"client", "10.0.0.1:52412", "abc", "client:abc"},
		{"client", "10.0.0.1:52412", "", "ip:10.0.0.1"},
		{"both", "10.0.0.1:52412", "abc", "ip:10.0.0.1"},
		{"both", "", "abc", "client:abc"},
		{"both", "", "", "unknown"},
	}
	for _, tt := range tests {
		cfg := &config.RateLimitConfig{WindowSeconds: 60, MaxRequests: 5, Strategy: tt.strategy}
		l := NewLimiter(cfg, zap.NewNop())
		if got := l.Identify(tt.remoteAddr, tt.clientID); got != tt.want {
			t.Errorf("Identify(%q, %q) with strategy %q = %q, want %q",
				tt.remoteAddr, tt.clientID, tt.strategy, got, tt.want)
		}
	}
}

func TestSweepDropsExpiredWindows(t *testing.T) {
	l, clock := testLimiter(5, 60)

	l.Allow("ip:10.0.0.1")
	l.Allow("ip:10.0.0.2")
	if l.ActiveWindows() != 2 {
		t.Fatalf("expected 2 active windows, got %d", l.ActiveWindows())
	}

	*clock = clock.Add(30 * time.Second)
	l.Allow("ip:10.0.0.3")

	*clock = clock.Add(31 * time.Second)
	l.sweep()

	if l.ActiveWindows() != 1 {
		t.Errorf("expected only the fresh window to survive, got %d", l.ActiveWindows())
	}
	if got := l.Status("ip:10.0.0.3"); got.Total != 1 {
		t.Errorf("surviving window Total = %d, want 1", got.Total)
	}
}

func TestConcurrentAllowCountsExactly(t *testing.T) {
	l, _ := testLimiter(1000, 60)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				l.Allow("ip:10.0.0.1")
			}
		}()
	}
	wg.Wait()

	if got := l.Status("ip:10.0.0.1"); got.Total != 500 {
		t.Errorf("Total = %d, want exactly 500", got.Total)
	}
}
