package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sebuszqo/FinanceTracker/internal/auth"
	"github.com/sebuszqo/FinanceTracker/internal/finance/interfaces"
	"github.com/sebuszqo/FinanceTracker/internal/metrics"
	"github.com/sebuszqo/FinanceTracker/internal/response"
	"github.com/sebuszqo/FinanceTracker/internal/user"
)

// HealthChecker reports dependency status; "status" must be "up" when healthy.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

// RouterDeps collects what NewRouter needs to build the API.
type RouterDeps struct {
	Logger             *slog.Logger
	Metrics            *metrics.Collector
	Gatherer           prometheus.Gatherer
	Health             HealthChecker
	CORSAllowedOrigins []string
	RateLimiter        *RateLimiter

	AuthHandler        *auth.Handler
	UserHandler        *user.Handler
	CategoryHandler    *interfaces.CategoryHandler
	TransactionHandler *interfaces.TransactionHandler
}

// NewRouter builds the full route tree. Middleware order, outermost first:
// RequestID, logging/metrics, recovery, CORS, StripSlashes.
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(NewRecoveryMiddleware(response.Error))
	r.Use(NewCORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(chimw.StripSlashes)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "Path not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", healthHandler(deps.Health))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	limit := func(route string) func(http.Handler) http.Handler {
		if deps.RateLimiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return deps.RateLimiter.Middleware(route)
	}

	r.With(limit("register")).Post("/register", deps.UserHandler.HandleRegister)
	r.With(limit("login")).Post("/login", deps.AuthHandler.HandleLogin)
	r.With(limit("google")).Post("/google", deps.AuthHandler.HandleGoogle)
	r.With(limit("refresh")).Post("/token/refresh", deps.AuthHandler.HandleRefresh)

	r.Group(func(r chi.Router) {
		r.Use(deps.AuthHandler.JWTAccessTokenMiddleware())
		interfaces.RegisterRoutes(r, deps.CategoryHandler, deps.TransactionHandler)
	})

	return r
}

func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker == nil {
			response.JSON(w, http.StatusOK, map[string]string{"status": "up"})
			return
		}
		stats := checker.Health(r.Context())
		status := http.StatusOK
		if stats["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		response.JSON(w, status, stats)
	}
}
