package api

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"hermes/metrics"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-Id"

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// requestIDMiddleware assigns each request an ID, honoring one supplied by a
// trusted upstream proxy.
func (a *API) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request at debug level and records metrics.
func (a *API) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.Observe(elapsed.Seconds())

		if a.config.Debug {
			a.logger.Debugw("Request handled",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", elapsed,
				"request_id", w.Header().Get(requestIDHeader))
		}
	})
}

// recoveryMiddleware converts handler panics into 500 responses and notifies
// the attached error reporter, if any. A panic in one request must not take
// down the worker's serving loop.
func (a *API) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				err := fmt.Errorf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				a.logger.Errorw("Handler panicked", "error", err)
				if a.reporter != nil {
					a.reporter.CaptureException(err)
				}
				a.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware applies a per-client token bucket keyed by remote IP.
func (a *API) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}

		a.rateLimitersMu.Lock()
		entry, ok := a.rateLimiters[host]
		if !ok {
			entry = &rateLimiterEntry{limiter: rate.NewLimiter(rate.Limit(100), 200)}
			a.rateLimiters[host] = entry
		}
		entry.lastSeen = time.Now()
		if len(a.rateLimiters) > 10000 {
			a.evictStaleLimitersLocked()
		}
		a.rateLimitersMu.Unlock()

		if !entry.limiter.Allow() {
			a.writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// evictStaleLimitersLocked drops limiters idle for over an hour. Caller holds
// rateLimitersMu.
func (a *API) evictStaleLimitersLocked() {
	cutoff := time.Now().Add(-time.Hour)
	for host, entry := range a.rateLimiters {
		if entry.lastSeen.Before(cutoff) {
			delete(a.rateLimiters, host)
		}
	}
}
