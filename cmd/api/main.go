package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/docsense/internal/application"
	appanalysis "github.com/bryanwahyu/docsense/internal/application/analysis"
	"github.com/bryanwahyu/docsense/internal/config"
	"github.com/bryanwahyu/docsense/internal/domain/incidents"
	"github.com/bryanwahyu/docsense/internal/infra/ai/openai"
	"github.com/bryanwahyu/docsense/internal/infra/db/jsonfile"
	mysqlp "github.com/bryanwahyu/docsense/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/docsense/internal/infra/db/postgres"
	"github.com/bryanwahyu/docsense/internal/infra/httpserver"
	"github.com/bryanwahyu/docsense/internal/infra/ledger"
	minioStore "github.com/bryanwahyu/docsense/internal/infra/storage"
	"github.com/bryanwahyu/docsense/internal/middleware"
	"github.com/bryanwahyu/docsense/internal/settings"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// runtime settings (api key, model)
	st, err := settings.Open(cfg.SettingsPath())
	if err != nil {
		log.Fatalf("settings load error: %v", err)
	}

	// pick incident archive backend
	var archive incidents.Archive
	checkers := map[string]middleware.HealthChecker{}
	switch cfg.Storage.Backend {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		defer db.Close()
		archive = mysqlp.NewIncidentRepository(db)
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		defer db.Close()
		archive = postgresp.NewIncidentRepository(db)
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	case "file":
		fa, err := jsonfile.New(cfg.IncidentsPath())
		if err != nil {
			log.Fatalf("incident file load error: %v", err)
		}
		archive = fa
	default:
		log.Fatalf("unknown storage backend: %s", cfg.Storage.Backend)
	}

	// ledger warmed from the archive
	led, err := ledger.New(ctx, archive)
	if err != nil {
		log.Fatalf("ledger init error: %v", err)
	}

	// optional upload archive
	var docs *minioStore.Store
	if cfg.Minio.Enabled {
		docs, err = minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
	}

	// init service
	svc := &appanalysis.Service{
		Oracle:   openai.NewClient(),
		Ledger:   led,
		Settings: st,
		Clock:    application.SystemClock{},
	}

	// init router
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(cfg.Auth.Keys))
	mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))
	mux.Mount("/", httpserver.NewRouter(svc, st, docs, middleware.HealthHandler(st, checkers)))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
