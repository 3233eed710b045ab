package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"forest-backend/cmd"
	"forest-backend/internal/api"
	"forest-backend/internal/config"
	"forest-backend/internal/database"
	"forest-backend/internal/rpc"
	"forest-backend/internal/storage"
	"forest-backend/internal/worker"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Config for running the gateway and the worker in a single process on top
// of the local filesystem.
type Config struct {
	Root         string        `env:"ROOT" envDefault:"./forest-data"`
	Port         int           `env:"PORT" envDefault:"3001"`
	Bucket       string        `env:"BUCKET" envDefault:"datasets"`
	Seed         int64         `env:"ENGINE_SEED" envDefault:"511"`
	PluginPath   string        `env:"ENGINE_PLUGIN_PATH"`
	TrainTimeout time.Duration `env:"TRAIN_TIMEOUT" envDefault:"30m"`
}

func createServer(db *gorm.DB, workerClient api.WorkerClient, registry *prometheus.Registry, port int, trainTimeout time.Duration) *http.Server {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	apiHandler := api.NewBackendService(db, workerClient, trainTimeout)

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Route("/api/v1", func(r chi.Router) {
		apiHandler.AddRoutes(r)
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
}

func main() {
	cmd.LoadEnvFile()
	cmd.SetupLogger()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	if err := os.MkdirAll(filepath.Join(cfg.Root, "db"), os.ModePerm); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	slog.Info("starting local backend", "root", cfg.Root, "port", cfg.Port, "bucket", cfg.Bucket)

	db, err := database.NewDatabase(filepath.Join(cfg.Root, "db", "forest.db"))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	store, err := storage.NewLocalObjectStore(filepath.Join(cfg.Root, "storage"), cfg.Bucket)
	if err != nil {
		log.Fatalf("Failed to create storage client: %v", err)
	}
	if err := store.CreateBucket(context.Background(), cfg.Bucket); err != nil {
		log.Fatalf("Failed to create bucket: %v", err)
	}

	engine, release, err := cmd.NewEngine(config.EngineSettings{PluginPath: cfg.PluginPath, Seed: cfg.Seed})
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer release()

	registry := prometheus.NewRegistry()
	service := worker.NewService(worker.Config{
		Store:      store,
		Engine:     engine,
		StagingDir: filepath.Join(cfg.Root, config.DefaultLocalTempDir),
		Metrics:    worker.NewMetrics(registry),
	})

	server := createServer(db, rpc.NewServer(service), registry, cfg.Port, cfg.TrainTimeout)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	slog.Info("server started", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", cfg.Port, err)
	}

	slog.Info("server stopped")
}
