package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/Thaththathirian/lifeboat-college/internal/auth"
	"github.com/Thaththathirian/lifeboat-college/internal/college"
	"github.com/Thaththathirian/lifeboat-college/internal/config"
	"github.com/Thaththathirian/lifeboat-college/internal/db"
	"github.com/Thaththathirian/lifeboat-college/internal/health"
	"github.com/Thaththathirian/lifeboat-college/internal/kafka"
	"github.com/Thaththathirian/lifeboat-college/internal/logger"
	"github.com/Thaththathirian/lifeboat-college/internal/messaging"
	"github.com/Thaththathirian/lifeboat-college/internal/metrics"
	"github.com/Thaththathirian/lifeboat-college/internal/middleware"
	"github.com/Thaththathirian/lifeboat-college/internal/telemetry"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type App struct {
	config        *config.Config
	router        chi.Router
	server        *http.Server
	logger        *slog.Logger
	db            *bun.DB
	publisher     io.Closer
	meterProvider *sdkmetric.MeterProvider
}

// New loads configuration and builds the application. Startup failures are
// fatal.
func New() *App {
	slogLogger := logger.NewWithServiceContext(ServiceName, Version)

	// Set as default logger so slog.Info() uses the same handler
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application", "commit", GitCommit, "built", BuildTime)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	slogLogger.Info("config loaded", "env", cfg.Env)

	app, err := NewWithConfig(context.Background(), cfg, slogLogger)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	return app
}

// NewWithConfig builds the application from an already loaded configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config, slogLogger *slog.Logger) (*App, error) {
	app := &App{
		config: cfg,
		router: chi.NewRouter(),
		logger: slogLogger,
	}

	appMetrics, healthMetrics, err := app.initMetrics(ctx)
	if err != nil {
		app.close(ctx)
		return nil, err
	}

	repo, err := app.initRepository(ctx, appMetrics)
	if err != nil {
		app.close(ctx)
		return nil, err
	}

	events, err := app.initEvents()
	if err != nil {
		app.close(ctx)
		return nil, err
	}

	app.router.Use(chimiddleware.RequestID)
	app.router.Use(chimiddleware.Recoverer)
	app.router.Use(middleware.RequestLogger(slogLogger))
	app.router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	// Health endpoints (no auth required)
	var deps []health.Dependency
	if app.db != nil {
		deps = append(deps, health.Dependency{Name: "postgres", Pinger: app.db})
	}
	healthHandler := health.NewHandler(healthMetrics, deps...)
	healthHandler.RegisterRoutes(app.router)

	collegeService := college.NewService(repo, events, slogLogger, appMetrics, college.Options{
		MaxUploadBytes: cfg.Registry.MaxUploadBytes,
	})
	collegeHandler := college.NewHandler(collegeService, slogLogger, cfg.Registry.MaxUploadBytes)
	collegeHandler.RegisterRoutes(app.router)

	// Registration requires a bearer token
	app.router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(auth.Config{
			Mode:   cfg.Auth.Mode,
			Secret: cfg.Auth.JWTSecret,
			Issuer: cfg.Auth.Issuer,
		}, slogLogger))
		collegeHandler.RegisterProtectedRoutes(r)
	})

	slogLogger.Info("application initialized successfully",
		"store", cfg.Registry.Store,
		"events", cfg.Events.Driver,
		"auth", cfg.Auth.Mode,
	)

	return app, nil
}

func (a *App) initMetrics(ctx context.Context) (*metrics.Metrics, *metrics.HealthMetrics, error) {
	if a.config.Telemetry.Enabled {
		mp, err := telemetry.InitMeterProvider(ctx, a.config.Telemetry.Endpoint, ServiceName, Version, a.config.Env, a.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		a.meterProvider = mp
	}

	// Falls back to the global no-op provider when telemetry is disabled
	meter := otel.Meter(ServiceName)

	appMetrics, err := metrics.New(meter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	if _, err := metrics.NewRuntimeMetrics(meter); err != nil {
		return nil, nil, fmt.Errorf("failed to create runtime metrics: %w", err)
	}

	healthMetrics, err := metrics.NewHealthMetrics(meter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create health metrics: %w", err)
	}
	if err := healthMetrics.RegisterServiceInfo(meter, ServiceName, Version, a.config.Env); err != nil {
		return nil, nil, fmt.Errorf("failed to register service info: %w", err)
	}
	return appMetrics, healthMetrics, nil
}

func (a *App) initRepository(ctx context.Context, m *metrics.Metrics) (college.Repository, error) {
	reg := a.config.Registry
	if reg.Store != config.StorePostgres {
		a.logger.Warn("using in-memory registry store, records are lost on restart")
		return college.NewMemoryRepository(reg.IDPrefix, reg.IDWidth, m), nil
	}

	database, err := db.New(ctx, a.config.Database)
	if err != nil {
		return nil, err
	}
	a.db = database

	if err := db.RunMigrations(ctx, database, college.Models()...); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	repo := college.NewPostgresRepository(database, reg.IDPrefix, reg.IDWidth, m)
	if err := repo.EnsureSequence(ctx); err != nil {
		return nil, fmt.Errorf("failed to create id sequence: %w", err)
	}
	return repo, nil
}

// initEvents returns a nil publisher when events are disabled or the broker is
// unreachable; registration works without it.
func (a *App) initEvents() (college.EventPublisher, error) {
	switch a.config.Events.Driver {
	case config.EventsNATS:
		producer, err := messaging.NewPublisher(a.config.NATS.URL, a.config.NATS.Subject, a.logger)
		if err != nil {
			a.logger.Warn("failed to initialize NATS publisher", "error", err)
			return nil, nil
		}
		a.logger.Info("NATS publisher initialized successfully")
		a.publisher = producer
		return producer, nil
	case config.EventsKafka:
		producer, err := kafka.NewPublisher(a.config.Kafka.Brokers, a.config.Kafka.Topic, a.logger)
		if err != nil {
			a.logger.Warn("failed to initialize Kafka publisher", "error", err)
			return nil, nil
		}
		a.logger.Info("Kafka publisher initialized successfully")
		a.publisher = producer
		return producer, nil
	case config.EventsNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown events driver %q", a.config.Events.Driver)
}

// Handler exposes the router, e.g. for httptest.
func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) Run() error {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	var err error
	if a.server != nil {
		err = a.server.Shutdown(ctx)
	}
	return errors.Join(err, a.close(ctx))
}

// close releases the publisher, database and meter provider.
func (a *App) close(ctx context.Context) error {
	var errs []error
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close publisher: %w", err))
		}
	}
	if a.db != nil {
		db.Close(a.db)
	}
	if err := telemetry.Shutdown(ctx, a.meterProvider, a.logger); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
