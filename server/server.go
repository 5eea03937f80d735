package server

import (
	"context"
	"net/http"
	"time"

	"fintrack/application/dto"
	"fintrack/domain/entities"
	"fintrack/domain/interfaces"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"
)

// ScheduleService is the schedule use-case surface the API needs
type ScheduleService interface {
	Create(ctx context.Context, req dto.CreateScheduleRequest) (*entities.RecurrenceSchedule, error)
	Get(ctx context.Context, id int64) (*entities.RecurrenceSchedule, error)
	List(ctx context.Context, filter interfaces.ScheduleFilter) ([]*entities.RecurrenceSchedule, error)
	Update(ctx context.Context, id int64, req dto.UpdateScheduleRequest) (*entities.RecurrenceSchedule, error)
	Delete(ctx context.Context, id int64) error
	ExecuteNow(ctx context.Context, id int64) (*entities.ExecutionResult, error)
}

// ForecastService is the forecasting use-case surface the API needs
type ForecastService interface {
	ForecastAccount(ctx context.Context, accountID int64, days int, today time.Time) (*dto.AccountForecast, error)
	NetWorthTrend(ctx context.Context, periods, steps int) (*entities.TrendReport, error)
}

// Config holds server configuration
type Config struct {
	Addr                 string
	Schedules            ScheduleService
	Forecasts            ForecastService
	HealthCheck          func(ctx context.Context) error
	ForecastDefaultDays  int
	TrendDefaultPeriods  int
	TrendProjectionSteps int
	Clock                func() time.Time
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    Config
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(loggingMiddleware)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/recurring", func(r chi.Router) {
			r.Get("/", s.handleListSchedules)
			r.Post("/", s.handleCreateSchedule)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSchedule)
				r.Put("/", s.handleUpdateSchedule)
				r.Delete("/", s.handleDeleteSchedule)
				r.Post("/execute", s.handleExecuteSchedule)
			})
		})

		r.Get("/accounts/{id}/forecast", s.handleAccountForecast)
		r.Get("/accounts/{id}/forecast.png", s.handleAccountForecastChart)
		r.Get("/reports/trend", s.handleNetWorthTrend)
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	log.WithField("addr", s.cfg.Addr).Info("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.cfg.HealthCheck != nil {
		if err := s.cfg.HealthCheck(r.Context()); err != nil {
			log.WithError(err).Warn("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		}).Info("HTTP request")
	})
}
