package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forest-backend/cmd"
	"forest-backend/internal/config"
	"forest-backend/internal/rpc"
	"forest-backend/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", config.DefaultConfigPath, "path to the worker yaml config")
	cmd.LoadEnvFile()
	cmd.SetupLogger()

	slog.Info("starting worker process")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := cmd.NewObjectStore(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to create object store: %v", err)
	}

	if err := store.CreateBucket(context.Background(), cfg.Storage.Bucket); err != nil {
		log.Fatalf("Failed to create bucket %s: %v", cfg.Storage.Bucket, err)
	}

	engine, release, err := cmd.NewEngine(cfg.Engine)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer release()

	if err := os.MkdirAll(cfg.Storage.LocalTempDir, os.ModePerm); err != nil {
		log.Fatalf("Failed to create staging dir %s: %v", cfg.Storage.LocalTempDir, err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	service := worker.NewService(worker.Config{
		Store:      store,
		Engine:     engine,
		StagingDir: cfg.Storage.LocalTempDir,
		Metrics:    worker.NewMetrics(registry),
	})

	grpcServer := rpc.NewGRPCServer(rpc.NewServer(service), cfg.Server.MaxWorkers)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.Port))
	if err != nil {
		log.Fatalf("Failed to listen on port %d: %v", cfg.Server.Port, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutdown signal received, draining in-flight requests")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("error shutting down metrics server", "error", err)
		}

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()

		select {
		case <-stopped:
		case <-ctx.Done():
			slog.Warn("graceful stop timed out, forcing shutdown")
			grpcServer.Stop()
		}
	}()

	slog.Info("worker listening", "port", cfg.Server.Port, "max_workers", cfg.Server.MaxWorkers,
		"storage_type", cfg.Storage.Type, "bucket", cfg.Storage.Bucket)
	if err := grpcServer.Serve(lis); err != nil {
		log.Fatalf("Worker server failed: %v", err)
	}

	slog.Info("worker process stopped")
}
