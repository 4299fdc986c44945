// Package app wires configuration, storage, services and the HTTP router
// into a runnable server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"vendtune/internal/config"
	apperrors "vendtune/internal/errors"
	"vendtune/internal/exporter"
	"vendtune/internal/infrastructure"
	custommw "vendtune/internal/middleware"
	"vendtune/internal/services"
	"vendtune/internal/session"
	"vendtune/internal/store/sqlite"
	handlers "vendtune/internal/transport/http"
	"vendtune/internal/validation"
)

const (
	// Version is the application version reported by /version and /api/health.
	Version = "1.0.0"
	AppName = "vendtune"
)

// BuildTime is overridable at compile time through -ldflags.
var BuildTime = ""

// Application is the dependency container for the server.
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Store         *sqlite.Store
	Sessions      *session.Manager
	Dashboard     *services.DashboardService
	Collections   *services.CollectionsService
	Exporter      *exporter.DashboardExporter
	Router        *chi.Mux
	Server        *http.Server

	metrics *infrastructure.BusinessMetrics
}

// NewApplication loads configuration and wires every dependency.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

func (a *Application) initializeServices() error {
	st, err := sqlite.Open(a.Config.Database.Path, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	a.Store = st

	a.Sessions = session.NewManager(st, a.Config.Session.TTL, a.Config.Session.BcryptCost, a.Logger)

	if a.OTelProviders.Meter != nil {
		metrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
		if err != nil {
			return fmt.Errorf("failed to create business metrics: %w", err)
		}
		a.metrics = metrics
	}

	a.Dashboard = services.NewDashboardService(st, a.metrics, a.Logger)
	a.Collections = services.NewCollectionsService(st, a.Logger)
	a.Exporter = exporter.NewDashboardExporter(a.Logger)

	return nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(custommw.Recoverer(a.Logger))

	if a.Config.Security.EnableCORS {
		r.Use(custommw.CORS(custommw.CORSConfig{
			AllowedOrigins:   a.Config.Security.AllowedOrigins,
			AllowCredentials: true,
		}))
	}
	if a.Config.Security.RateLimit.Enabled {
		r.Use(custommw.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	metricsMiddleware := &custommw.MetricsMiddleware{}
	if mw, err := custommw.NewMetricsMiddleware(a.OTelProviders); err != nil {
		a.Logger.Error("failed to create metrics middleware", slog.String("error", err.Error()))
	} else {
		metricsMiddleware = mw
	}
	r.Use(metricsMiddleware.Handler)

	errorHandler := apperrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
	validator := validation.NewRequestValidator(a.Logger)

	healthHandler := handlers.NewHealthHandler(Version, BuildTime, a.Logger)
	r.Get("/version", healthHandler.Version)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(a.Config.Server.ReadTimeout))

		r.Mount("/health", healthHandler.Routes())
		r.Mount("/auth", handlers.NewAuthHandler(a.Sessions, validator, a.Logger, errorHandler).Routes())

		// Everything below requires a resolved session.
		r.Group(func(r chi.Router) {
			r.Use(custommw.Auth(a.Logger, a.Sessions))

			orchestrate := func(businessID string) *services.Orchestrator {
				return services.NewOrchestrator(a.Store, a.Collections, businessID, a.metrics, a.Logger)
			}
			servicesHandler := handlers.NewServicesHandler(
				a.Store, a.Collections, orchestrate, validator, a.Logger, errorHandler)
			r.Mount("/services", servicesHandler.Routes())

			dashboardHandler := handlers.NewDashboardHandler(
				a.Dashboard, a.Exporter, a.Logger, errorHandler)
			r.Mount("/dashboard", dashboardHandler.Routes())
		})
	})

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start runs the HTTP server until it is shut down.
func (a *Application) Start() error {
	a.Logger.Info("server listening", slog.String("addr", a.Server.Addr))
	if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops the server and releases every resource.
func (a *Application) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		firstErr = fmt.Errorf("server shutdown: %w", err)
	}
	if err := a.Store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("store close: %w", err)
	}
	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("otel shutdown: %w", err)
	}
	if err := infrastructure.CloseLogFile(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("log close: %w", err)
	}

	return firstErr
}
