package cmd

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"forest-backend/internal/config"
	"forest-backend/internal/core"
	"forest-backend/internal/core/remote"
	"forest-backend/internal/storage"
	"forest-backend/plugin/shared"

	"github.com/joho/godotenv"
)

// LoadEnvFile parses the command line and loads the file passed with -env,
// if any. Callers register their own flags before calling it.
func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

// SetupLogger installs the default slog logger from LOG_LEVEL and LOG_FORMAT.
func SetupLogger() {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func NewObjectStore(cfg config.StorageSettings) (storage.ObjectStore, error) {
	switch cfg.Type {
	case config.StorageS3:
		store, err := storage.NewS3ObjectStore(cfg.Bucket, storage.S3ClientConfig{
			Endpoint:        cfg.Endpoint,
			Region:          cfg.Region,
			AccessKeyID:     cfg.AccessKey,
			SecretAccessKey: cfg.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StorageLocal:
		store, err := storage.NewLocalObjectStore(cfg.BasePath, cfg.Bucket)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type '%s'", cfg.Type)
	}
}

// NewEngine returns the in-process forest engine, or the plugin at
// cfg.PluginPath when one is configured. The returned func releases it.
func NewEngine(cfg config.EngineSettings) (core.Engine, func(), error) {
	if cfg.PluginPath == "" {
		return core.NewForestEngine(cfg.Seed), func() {}, nil
	}

	slog.Info("loading engine plugin", "path", cfg.PluginPath, "seed", cfg.Seed)
	engine, err := remote.LoadPluginEngine(cfg.PluginPath, shared.EngineArgs(cfg.Seed)...)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading engine plugin %s: %w", cfg.PluginPath, err)
	}
	return engine, engine.Release, nil
}
