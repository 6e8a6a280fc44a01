package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// clientIDHeader lets clients supply their own rate-limit identity when
// the configured strategy uses it.
const clientIDHeader = "X-Client-Id"

// rateLimitMiddleware runs the admission check before the query handlers.
// Rejected requests get 429 with a Retry-After; every response carries the
// X-RateLimit-* headers so clients can pace themselves.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		id := s.limiter.Identify(r.RemoteAddr, r.Header.Get(clientIDHeader))
		allowed := s.limiter.Allow(id)
		status := s.limiter.Status(id)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(status.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(status.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetSeconds(status.ResetIn), 10))

		if !allowed {
			w.Header().Set("Retry-After", strconv.FormatInt(resetSeconds(status.ResetIn), 10))
			s.respondError(w, http.StatusTooManyRequests,
				fmt.Sprintf("rate limit exceeded, retry in %s", status.ResetIn.Round(time.Second)))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resetSeconds rounds the reset delay up so clients never retry early.
func resetSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	secs := int64(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}
