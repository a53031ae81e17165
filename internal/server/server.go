// Package server assembles the knotcraft HTTP handler: the Connect services, their
// interceptors, metrics, and the HTTP middleware around them.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/knotcraft/Pre-production/internal/auth"
	"github.com/knotcraft/Pre-production/internal/docstore"
	"github.com/knotcraft/Pre-production/internal/metrics"
	"github.com/knotcraft/Pre-production/internal/middleware"
	"github.com/knotcraft/Pre-production/internal/service"
	"github.com/knotcraft/Pre-production/internal/storage"
)

// Options holds the server's collaborators.
type Options struct {
	Docs  docstore.Store
	Users storage.UserStore
	JWT   *auth.JWTManager
	// Authenticator defaults to a bcrypt PasswordAuthenticator over Users.
	Authenticator auth.Authenticator
	// Metrics, if set, instruments Docs and serves /metrics.
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// NewHandler returns the complete HTTP handler, wrapped in h2c so streaming
// subscriptions work over cleartext HTTP/2.
func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	docs := opts.Docs
	if opts.Metrics != nil {
		docs = opts.Metrics.InstrumentStore(docs)
	}
	authenticator := opts.Authenticator
	if authenticator == nil {
		authenticator = auth.NewPasswordAuthenticator(opts.Users)
	}

	mux := http.NewServeMux()

	docPath, docHandler := service.NewDocStoreServiceHandler(
		service.NewDocStoreService(docs, logger),
		connect.WithInterceptors(middleware.RequireAuth(opts.JWT), middleware.LoggingInterceptor(logger)),
	)
	mux.Handle(docPath, docHandler)

	authPath, authHandler := service.NewAuthServiceHandler(
		service.NewAuthService(authenticator, opts.Users, opts.JWT, logger),
		connect.WithInterceptors(middleware.OptionalAuth(opts.JWT), middleware.LoggingInterceptor(logger)),
	)
	mux.Handle(authPath, authHandler)

	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics.Handler())
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return h2c.NewHandler(loggingMiddleware(logger, corsMiddleware(mux)), &http2.Server{})
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		logger.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		logger.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
