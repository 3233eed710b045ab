package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

var ErrConfig = errors.New("invalid configuration")

const (
	StorageS3    = "s3"
	StorageLocal = "local"

	DefaultConfigPath   = "configs/config.yaml"
	DefaultLocalTempDir = "temp_data"
	DefaultRegion       = "us-east-1"
	DefaultPort         = 50051
	DefaultMaxWorkers   = 10
	DefaultMetricsPort  = 9091
	DefaultSeed         = 511
)

type Settings struct {
	Storage StorageSettings `yaml:"storage"`
	Server  ServerSettings  `yaml:"server"`
	Engine  EngineSettings  `yaml:"engine"`
}

type StorageSettings struct {
	Type         string `yaml:"type" env:"STORAGE_TYPE"`
	Endpoint     string `yaml:"endpoint" env:"STORAGE_ENDPOINT"`
	Region       string `yaml:"region" env:"STORAGE_REGION"`
	AccessKey    string `yaml:"access_key" env:"STORAGE_ACCESS_KEY"`
	SecretKey    string `yaml:"secret_key" env:"STORAGE_SECRET_KEY"`
	Bucket       string `yaml:"bucket" env:"STORAGE_BUCKET"`
	BasePath     string `yaml:"base_path" env:"STORAGE_BASE_PATH"`
	LocalTempDir string `yaml:"local_temp_dir" env:"STORAGE_LOCAL_TEMP_DIR"`
}

type ServerSettings struct {
	Port        int `yaml:"port" env:"WORKER_PORT"`
	MaxWorkers  int `yaml:"max_workers" env:"WORKER_MAX_WORKERS"`
	MetricsPort int `yaml:"metrics_port" env:"WORKER_METRICS_PORT"`
}

type EngineSettings struct {
	PluginPath string `yaml:"plugin_path" env:"ENGINE_PLUGIN_PATH"`
	Seed       int64  `yaml:"seed" env:"ENGINE_SEED"`
}

// Load reads the worker settings from the yaml file at path. Environment
// variables override values from the file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: config file not found at %s", ErrConfig, path)
		}
		return nil, fmt.Errorf("%w: unable to read config file %s: %v", ErrConfig, path, err)
	}

	var cfg Settings
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: unable to parse config file %s: %v", ErrConfig, path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("%w: unable to parse environment overrides: %v", ErrConfig, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Info("configuration loaded", "path", path, "storage_type", cfg.Storage.Type, "bucket", cfg.Storage.Bucket)

	return &cfg, nil
}

func (s *Settings) applyDefaults() {
	if s.Storage.Type == "" {
		s.Storage.Type = StorageS3
	}
	if s.Storage.Region == "" {
		s.Storage.Region = DefaultRegion
	}
	if s.Storage.LocalTempDir == "" {
		s.Storage.LocalTempDir = DefaultLocalTempDir
	}
	if s.Server.Port == 0 {
		s.Server.Port = DefaultPort
	}
	if s.Server.MaxWorkers <= 0 {
		s.Server.MaxWorkers = DefaultMaxWorkers
	}
	if s.Server.MetricsPort == 0 {
		s.Server.MetricsPort = DefaultMetricsPort
	}
	if s.Engine.Seed == 0 {
		s.Engine.Seed = DefaultSeed
	}
}

func (s *Settings) Validate() error {
	var missing []string
	require := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}

	switch s.Storage.Type {
	case StorageS3:
		require("storage.endpoint", s.Storage.Endpoint)
		require("storage.access_key", s.Storage.AccessKey)
		require("storage.secret_key", s.Storage.SecretKey)
		require("storage.bucket", s.Storage.Bucket)
	case StorageLocal:
		require("storage.bucket", s.Storage.Bucket)
		require("storage.base_path", s.Storage.BasePath)
	default:
		return fmt.Errorf("%w: unsupported storage.type %q", ErrConfig, s.Storage.Type)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required keys: %s", ErrConfig, strings.Join(missing, ", "))
	}

	return nil
}
