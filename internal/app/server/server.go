package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"attendance/internal/domain/attendance"
	"attendance/internal/domain/employees"
	"attendance/internal/platform/config"
	"attendance/internal/platform/db"
	"attendance/internal/platform/metrics"
	"attendance/internal/transport/http/api"
	attendancehandler "attendance/internal/transport/http/handlers/attendance"
	employeeshandler "attendance/internal/transport/http/handlers/employees"
	"attendance/internal/transport/http/middleware"
)

type App struct {
	Config     config.Config
	Router     http.Handler
	Employees  *employees.Service
	Attendance *attendance.Service
	Metrics    *metrics.Collector

	ping    func(ctx context.Context) error
	closers []func()
}

type Option func(*options)

type options struct {
	now    func() time.Time
	logger *slog.Logger
}

// WithClock replaces the wall clock used for attendance timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{Config: cfg}
	var employeeStore employees.StoreAPI
	var attendanceStore attendance.StoreAPI

	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("db connect failed: %w", err)
		}
		app.closers = append(app.closers, pool.Close)
		app.ping = pool.Ping
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool); err != nil {
				app.Close()
				return nil, fmt.Errorf("migrations failed: %w", err)
			}
		}
		employeeStore = employees.NewStore(pool)
		attendanceStore = attendance.NewStore(pool)
	default:
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite open failed: %w", err)
		}
		app.closers = append(app.closers, func() { _ = conn.Close() })
		app.ping = conn.PingContext
		if cfg.RunMigrations {
			if err := db.MigrateSQLite(ctx, conn); err != nil {
				app.Close()
				return nil, fmt.Errorf("migrations failed: %w", err)
			}
		}
		employeeStore = employees.NewSQLiteStore(conn)
		attendanceStore = attendance.NewSQLiteStore(conn)
	}

	app.Employees = employees.NewService(employeeStore)
	app.Attendance = attendance.NewService(attendanceStore, employeeStore,
		attendance.WithClock(o.now),
		attendance.WithReportTitle(cfg.ReportTitle),
	)
	if cfg.MetricsEnabled {
		app.Metrics = metrics.New()
	}
	app.Router = app.routes(o.logger)
	return app, nil
}

func (a *App) routes(logger *slog.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics(a.Metrics))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(a.Config.IsProduction()))
	router.Use(middleware.BodyLimit(a.Config.MaxBodyBytes))
	router.Use(middleware.MutationRateLimit(a.Config.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if a.Metrics != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	employeeshandler.NewHandler(a.Employees, a.Metrics).RegisterRoutes(router)
	attendancehandler.NewHandler(a.Attendance, a.Employees, a.Metrics).RegisterRoutes(router)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusNotFound, "not_found", "route not found", middleware.GetRequestID(r.Context()))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", middleware.GetRequestID(r.Context()))
	})
	return router
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func Run() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg, WithLogger(logger))
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown failed", "err", err)
		}
	}()

	slog.Info("attendance server listening", "addr", cfg.Addr, "driver", cfg.DBDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}
