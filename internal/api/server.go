package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/storage"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/utils"
)

const readyCheckTimeout = 2 * time.Second

// InsightService is the query side of the insight use case
type InsightService interface {
	GetCustomerInsights(ctx context.Context, req model.InsightRequest) (*model.InsightResponse, error)
	UpcomingFollowUps(ctx context.Context, ownerID string, days int) ([]model.Interaction, error)
	RecentInteractions(ctx context.Context, ownerID string, days int) ([]model.Interaction, error)
}

// Deps are the collaborators of the HTTP API
type Deps struct {
	Insights       InsightService
	DB             storage.Pinger // optional; /ready skips the database check when nil
	MetricsEnabled bool
	Version        string
}

// Server is the HTTP API and probe server
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// HealthResponse is the response structure for health check endpoints
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// NewServer creates the server listening on port
func NewServer(port int, readTimeout, writeTimeout time.Duration, deps Deps, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      NewHandler(deps, logger),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		logger: logger,
	}
}

// NewHandler builds the router serving the insight API, probes and metrics
func NewHandler(deps Deps, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestContext(logger))

	r.Get("/health", handleHealth(deps))
	r.Get("/ready", handleReady(deps))
	if deps.MetricsEnabled {
		logger.Info("Registering /metrics endpoint")
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/customer-insights", handleCustomerInsights(deps))
		r.Get("/follow-ups/upcoming", handleUpcomingFollowUps(deps))
		r.Get("/interactions/recent", handleRecentInteractions(deps))
	})

	return r
}

// Start begins the HTTP server
func (s *Server) Start() {
	utils.SafeGo(func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}, nil)
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSONResponse(w, http.StatusOK, HealthResponse{Status: "UP", Version: deps.Version})
	}
}

func handleReady(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		details := map[string]string{"timestamp": utils.FormatISO8601(utils.Now())}
		if deps.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
			defer cancel()
			if err := deps.DB.Ping(ctx); err != nil {
				details["database"] = err.Error()
				utils.WriteJSONResponse(w, http.StatusServiceUnavailable, HealthResponse{Status: "NOT_READY", Details: details})
				return
			}
			details["database"] = "ok"
		}
		utils.WriteJSONResponse(w, http.StatusOK, HealthResponse{Status: "READY", Details: details})
	}
}
