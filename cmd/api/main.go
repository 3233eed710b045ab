package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forest-backend/cmd"
	"forest-backend/internal/api"
	"forest-backend/internal/database"
	"forest-backend/internal/rpc"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type APIConfig struct {
	DatabaseURL   string        `env:"DATABASE_URL,notEmpty,required"`
	WorkerAddress string        `env:"WORKER_ADDRESS" envDefault:"localhost:50051"`
	TrainTimeout  time.Duration `env:"TRAIN_TIMEOUT" envDefault:"30m"`
	APIPort       string        `env:"API_PORT" envDefault:"8001"`
}

func main() {
	cmd.LoadEnvFile()
	cmd.SetupLogger()

	slog.Info("starting API server")

	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	workerClient, err := rpc.NewClient(cfg.WorkerAddress)
	if err != nil {
		log.Fatalf("Failed to create worker client: %v", err)
	}
	defer workerClient.Close()

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	apiHandler := api.NewBackendService(db, workerClient, cfg.TrainTimeout)
	apiHandler.AddRoutes(r)

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

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

	slog.Info("API server listening", "port", cfg.APIPort, "worker", cfg.WorkerAddress)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
	}

	slog.Info("server stopped")
}
