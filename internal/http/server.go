package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"paycycle/internal/cache"
	applog "paycycle/internal/log"
	"paycycle/internal/services"
	"paycycle/internal/store"
)

type Server struct {
	http.Server
	settings    *services.SettingsService
	periods     *services.PeriodService
	tokens      store.TokenResolver
	tokenCache  *cache.LRUCache[int64]
	cacheMgr    *cache.Manager
	logs        *applog.StructuredLogger
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, settings *services.SettingsService, periods *services.PeriodService, tokens store.TokenResolver) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		settings:    settings,
		periods:     periods,
		tokens:      tokens,
		tokenCache:  cache.NewLRUCache[int64](1024, 5*time.Minute),
		cacheMgr:    cache.NewManager(),
		logs:        applog.NewStructuredLogger(applog.New(applog.DefaultConfig())),
		rateLimiter: newRateLimiter(),
		metrics:     &securityMetrics{},
	}
	s.cacheMgr.Register(s.tokenCache)
	s.cacheMgr.StartCleanup(time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/user/settings", s.withSecurityHeaders(s.requireAuth(s.handleSettings)))
	mux.HandleFunc("/user/settings/types", s.withSecurityHeaders(s.requireAuth(s.handleListTypes)))
	mux.HandleFunc("/user/settings/preview", s.withSecurityHeaders(s.requireAuth(s.handlePreview)))
	mux.HandleFunc("/user/periods", s.withSecurityHeaders(s.requireAuth(s.handlePeriods)))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		if s.cacheMgr != nil {
			s.cacheMgr.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.logs.LogHTTPStart(ctx, r, requestID, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request detected",
				applog.FieldRequestID, requestID,
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldComponent, applog.ComponentSecurity)
		}

		// Rate limit mutating methods only, reads are cheap
		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldComponent, applog.ComponentRateLimit)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Capture status code for the completion log
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.logs.LogHTTPEnd(ctx, r, requestID, rw.statusCode, duration.Milliseconds(), clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
