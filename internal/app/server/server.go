package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"timepay/internal/domain/audit"
	"timepay/internal/domain/payroll"
	"timepay/internal/platform/config"
	"timepay/internal/platform/db"
	"timepay/internal/platform/metrics"
	audithandler "timepay/internal/transport/http/handlers/audit"
	authhandler "timepay/internal/transport/http/handlers/auth"
	payrollhandler "timepay/internal/transport/http/handlers/payroll"
	rateshandler "timepay/internal/transport/http/handlers/rates"
	rosterhandler "timepay/internal/transport/http/handlers/roster"
	timetrackhandler "timepay/internal/transport/http/handlers/timetrack"
	"timepay/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
}

// New connects, migrates, seeds, and wires the router. The caller owns the
// pool and shuts it down.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if err := db.Seed(ctx, pool, cfg); err != nil {
		pool.Close()
		return nil, err
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	policy := payroll.GenerationPolicy{
		OvertimeThreshold: decimal.NewFromFloat(cfg.OvertimeThreshold),
		WeekStart:         cfg.OvertimeWeekStart,
		HoursPerDay:       decimal.NewFromFloat(cfg.HoursPerDay),
		WorkDaysPerMonth:  decimal.NewFromFloat(cfg.WorkDaysPerMonth),
		UniformIntensity:  true,
	}
	payrollService := payroll.NewService(payroll.NewStore(pool), policy, cfg.GenerationWorkers, cfg.GenerationTimeout, collector)
	auditor := audit.New(pool)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if collector != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(collector.Snapshot()); err != nil {
				log.Printf("write metrics failed: %v", err)
			}
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(pool, cfg.JWTSecret)
		r.Post("/auth/login", authHandler.HandleLogin)

		audithandler.NewHandler(pool).RegisterRoutes(r)
		rosterhandler.NewHandler(pool).RegisterRoutes(r)
		timetrackhandler.NewHandler(pool).RegisterRoutes(r)
		rateshandler.NewHandler(pool).RegisterRoutes(r)
		payrollhandler.NewHandler(payrollService, auditor).RegisterRoutes(r)
	})

	return &App{Config: cfg, DB: pool, Router: router}, nil
}

func Run() {
	cfg := config.Load()

	ctx := context.Background()
	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.DB.Close()

	log.Printf("timepay server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
