package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/nlweb-ai/nlweb-go/internal/config"
	"github.com/nlweb-ai/nlweb-go/internal/models"
)

func askOnce(srv *Server, remoteAddr string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(models.Query{RawText: "pasta"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewReader(body))
	r.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	return w
}

func TestRateLimitMiddlewareRejectsOverLimit(t *testing.T) {
	srv := newTestServer(t, nil, &config.RateLimitConfig{WindowSeconds: 60, MaxRequests: 3, Strategy: "ip"})

	for i := 0; i < 3; i++ {
		w := askOnce(srv, "10.0.0.1:5000")
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i+1, w.Code)
		}
		remaining, _ := strconv.Atoi(w.Header().Get("X-RateLimit-Remaining"))
		if want := 3 - (i + 1); remaining != want {
			t.Errorf("request %d: remaining = %d, want %d", i+1, remaining, want)
		}
	}

	w := askOnce(srv, "10.0.0.1:5000")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("4th request: got %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("429 must carry Retry-After")
	}
	if w.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("remaining: got %q, want 0", w.Header().Get("X-RateLimit-Remaining"))
	}

	// A different identity has its own window.
	if w := askOnce(srv, "10.0.0.2:5000"); w.Code != http.StatusOK {
		t.Errorf("other client: got %d, want 200", w.Code)
	}
}

func TestRateLimitMiddlewareSetsHeaders(t *testing.T) {
	srv := newTestServer(t, nil, &config.RateLimitConfig{WindowSeconds: 60, MaxRequests: 10, Strategy: "ip"})

	w := askOnce(srv, "10.0.0.3:5000")
	if got := w.Header().Get("X-RateLimit-Limit"); got != "10" {
		t.Errorf("limit header: got %q", got)
	}
	if w.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("reset header missing")
	}
}

func TestRateLimitSkipsDiagnostics(t *testing.T) {
	srv := newTestServer(t, nil, &config.RateLimitConfig{WindowSeconds: 60, MaxRequests: 1, Strategy: "ip"})

	if w := askOnce(srv, "10.0.0.4:5000"); w.Code != http.StatusOK {
		t.Fatalf("first ask: got %d", w.Code)
	}
	if w := askOnce(srv, "10.0.0.4:5000"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second ask: got %d, want 429", w.Code)
	}

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.RemoteAddr = "10.0.0.4:5000"
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("health behind exhausted limit: got %d, want 200", w.Code)
	}
}

func TestNoLimiterAdmitsEverything(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	for i := 0; i < 5; i++ {
		if w := askOnce(srv, "10.0.0.5:5000"); w.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i+1, w.Code)
		}
	}
}
