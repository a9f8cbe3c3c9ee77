package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"rewards/internal/log"
	"rewards/internal/metrics"
	"rewards/internal/services"
)

// DefaultMaxBodyBytes caps POST bodies.
const DefaultMaxBodyBytes int64 = 1 << 20

// Options tunes the server. Zero values select defaults.
type Options struct {
	Logger  *log.Logger
	Metrics *metrics.Metrics

	// RateLimit is the number of POST requests allowed per client per minute (default: 60)
	RateLimit int

	// MaxBodyBytes caps request bodies (default: 1 MiB)
	MaxBodyBytes int64

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	http.Server
	svc         *services.RewardsService
	logger      *log.Logger
	events      *log.StructuredLogger
	metrics     *metrics.Metrics
	rateLimiter *rateLimiter
	security    securityMetrics
	maxBody     int64

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, svc *services.RewardsService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 30 * time.Second
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       opts.ReadTimeout,
			WriteTimeout:      opts.WriteTimeout,
		},
		svc:         svc,
		logger:      logger,
		events:      log.NewStructuredLogger(logger),
		metrics:     opts.Metrics,
		rateLimiter: newRateLimiter(opts.RateLimit, time.Minute),
		maxBody:     opts.MaxBodyBytes,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.Handle("GET /readyz", s.wrap("/readyz", s.handleReady))
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mux.Handle("GET /api/rewards/monthly", s.wrap("/api/rewards/monthly", s.handleMonthly))
	mux.Handle("GET /api/rewards/totals", s.wrap("/api/rewards/totals", s.handleTotals))
	mux.Handle("GET /api/transactions", s.wrap("/api/transactions", s.handleTransactions))
	mux.Handle("POST /api/rewards/compute", s.wrap("/api/rewards/compute", s.handleCompute))
	mux.Handle("POST /api/cache/invalidate", s.wrap("/api/cache/invalidate", s.handleInvalidate))
	mux.Handle("GET /api/stats", s.wrap("/api/stats", s.handleStats))

	return s
}

// wrap adds request IDs, security headers, rate limiting, logging and metrics.
func (s *Server) wrap(route string, next http.HandlerFunc) http.Handler {
	var handler http.Handler = next
	if strings.HasPrefix(route, "/api/") {
		handler = log.ComponentMiddleware(log.ComponentRewards)(handler)
	}
	withLogger := log.Middleware(s.logger)(log.RequestIDMiddleware(func(r *http.Request) string {
		return RequestID(r.Context())
	})(handler))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := requestIDFrom(r)

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.events.LogHTTPStart(ctx, r, clientIP)
		if detectSuspiciousRequest(r, &s.security) {
			s.logger.WarnContext(ctx, "Suspicious request",
				log.NewFields().WithRequestID(requestID).WithClientIP(clientIP).WithComponent(log.ComponentSecurity).ToSlice()...)
		}

		w.Header().Set("X-Request-ID", requestID)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, &s.security) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.NewFields().WithClientIP(clientIP).WithRequestID(requestID).WithComponent(log.ComponentRateLimit).ToSlice()...)
			TooManyRequestsError(strconv.Itoa(s.rateLimiter.retryAfter(clientIP))).RequestID(requestID).Write(rw)
		} else {
			withLogger.ServeHTTP(rw, r)
		}

		duration := time.Since(start)
		s.events.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
		if s.metrics != nil {
			s.metrics.ObserveHTTP(route, r.Method, rw.statusCode, duration)
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
