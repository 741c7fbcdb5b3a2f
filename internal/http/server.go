package http

import (
	"context"
	"net/http"
	"time"

	applog "microbiz/internal/log"
	"microbiz/internal/middleware/ratelimit"
	"microbiz/internal/middleware/security"
	"microbiz/internal/middleware/trace"
	"microbiz/internal/services"
)

// Options tunes a Server; the zero value is usable.
type Options struct {
	Logger    *applog.Logger
	RateLimit ratelimit.Config
	// Ready reports whether the backing store can serve requests.
	Ready func(ctx context.Context) error
}

type Server struct {
	http.Server
	txs       *services.TransactionService
	snapshots *services.SnapshotService
	ready     func(ctx context.Context) error

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	logger   *applog.Logger
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, txs *services.TransactionService, snapshots *services.SnapshotService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		txs:       txs,
		snapshots: snapshots,
		ready:     opts.Ready,
		limiter:   ratelimit.NewLimiter(opts.RateLimit),
		detector:  security.NewDetector(),
		logger:    logger.WithComponent(applog.ComponentHTTP),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/statistics", s.handleStatistics)
	mux.HandleFunc("/api/transactions", s.handleTransactions)
	mux.HandleFunc("/api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("/api/transactions/{id}/payment-status", s.handleTogglePaymentStatus)
	mux.HandleFunc("/api/categories", handleCategories)
	mux.HandleFunc("/api/withholding", handleWithholding)
	mux.HandleFunc("/api/settings/capital", s.handleCapital)
	mux.HandleFunc("/api/export.csv", s.handleExportCSV)
	mux.HandleFunc("/api/export.xlsx", s.handleExportXLSX)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no route for " + r.URL.Path).Write(w)
	})

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		TooManyRequestsError().Write(w)
	})(handler)
	handler = s.flagSuspicious(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// flagSuspicious logs probing requests; they are still served normally.
func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			s.logger.WarnContext(r.Context(), "Suspicious request detected",
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.Header.Get("User-Agent"))
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops background helpers and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	s.logger.InfoContext(ctx, "HTTP server shutting down",
		"requests_served", s.tracer.GetMetrics().TotalRequests,
		"rate_limited", s.limiter.GetMetrics().Rejected)
	return s.Server.Shutdown(ctx)
}
