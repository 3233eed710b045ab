package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"

	"forest-backend/internal/core"
	"forest-backend/internal/core/types"
	"forest-backend/internal/core/utils"
	"forest-backend/internal/storage"
	"forest-backend/pkg/api"

	"github.com/google/uuid"
)

const (
	modelPrefix = "models"

	// Upper bound on distinct model ids with an operation in flight.
	maxLockedModels = 10000
)

var modelIdPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

type Config struct {
	Store      storage.ObjectStore
	Engine     core.Engine
	StagingDir string
	Metrics    *Metrics
	Logger     *slog.Logger
}

// Service runs the Train and Predict pipelines. Every call stages files in a
// private directory that is removed when the call returns, and calls for the
// same model id are serialized.
type Service struct {
	store      storage.ObjectStore
	engine     core.Engine
	stagingDir string
	metrics    *Metrics
	logger     *slog.Logger
	locks      *utils.MutexMap
}

func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      cfg.Store,
		engine:     cfg.Engine,
		stagingDir: cfg.StagingDir,
		metrics:    cfg.Metrics,
		logger:     logger,
		locks:      utils.NewMutexMap(maxLockedModels),
	}
}

func ModelKey(modelId string) string {
	return path.Join(modelPrefix, modelId+core.ArtifactExt)
}

func mapTaskType(taskType api.TaskType) (types.TaskType, error) {
	switch taskType {
	case api.ClassificationTask:
		return types.Classification, nil
	case api.RegressionTask:
		return types.Regression, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownTaskType, taskType)
	}
}

func validateModelId(modelId string) error {
	if !modelIdPattern.MatchString(modelId) || modelId == "." || modelId == ".." {
		return fmt.Errorf("%w '%s': must match %s", ErrInvalidModelID, modelId, modelIdPattern)
	}
	return nil
}

// Train never fails at the call level: failures are reported in the response
// with Success set to false.
func (s *Service) Train(ctx context.Context, req *api.TrainRequest) *api.TrainResponse {
	done := s.metrics.start(opTrain)

	logger := s.logger.With("op", opTrain, "model_id", req.ModelId, "request_id", uuid.New().String())
	logger.Info("received train request", "dataset_url", req.DatasetUrl, "task_type", req.TaskType,
		"target_column", req.TargetColumn, "n_estimators", req.NEstimators)

	key, err := s.train(ctx, logger, req)
	done(err)
	if err != nil {
		logger.Error("training failed", "error", err)
		return &api.TrainResponse{Success: false, Message: err.Error()}
	}

	logger.Info("training completed", "key", key)
	return &api.TrainResponse{
		Success: true,
		Message: fmt.Sprintf("Training completed. Saved to s3://%s/%s", s.store.Bucket(), key),
	}
}

func (s *Service) train(ctx context.Context, logger *slog.Logger, req *api.TrainRequest) (string, error) {
	if err := validateModelId(req.ModelId); err != nil {
		return "", err
	}

	unlock, err := s.lock(req.ModelId)
	if err != nil {
		return "", err
	}
	defer unlock()

	staging, cleanup, err := s.newStagingDir()
	if err != nil {
		return "", err
	}
	defer cleanup()

	_, datasetKey, err := storage.ParseLocator(req.DatasetUrl, s.store.Bucket())
	if err != nil {
		return "", &storage.StorageError{Op: "download", Err: err}
	}
	datasetPath := filepath.Join(staging, path.Base(datasetKey))

	logger.Info("downloading dataset", "locator", req.DatasetUrl, "dest", datasetPath)
	if err := s.store.Download(ctx, req.DatasetUrl, datasetPath); err != nil {
		return "", err
	}

	taskType, err := mapTaskType(req.TaskType)
	if err != nil {
		return "", err
	}

	dataset, err := core.LoadDataset(datasetPath)
	if err != nil {
		return "", err
	}

	logger.Info("training model", "rows", len(dataset.Rows), "columns", dataset.Columns)
	model, err := s.engine.Train(ctx, dataset, types.TrainParams{
		TargetColumn: req.TargetColumn,
		TaskType:     taskType,
		NEstimators:  int(req.NEstimators),
	})
	if err != nil {
		return "", err
	}

	modelPath := filepath.Join(staging, req.ModelId+core.ArtifactExt)
	if err := os.WriteFile(modelPath, model, 0644); err != nil {
		return "", fmt.Errorf("error saving model to %s: %w", modelPath, err)
	}

	key := ModelKey(req.ModelId)
	logger.Info("uploading model", "key", key, "bytes", len(model))
	if err := s.store.Upload(ctx, modelPath, key); err != nil {
		return "", err
	}

	return key, nil
}

// Predict always fetches the current artifact before running inference.
func (s *Service) Predict(ctx context.Context, req *api.PredictRequest) (*api.PredictResponse, error) {
	done := s.metrics.start(opPredict)

	logger := s.logger.With("op", opPredict, "model_id", req.ModelId, "request_id", uuid.New().String())
	logger.Info("received predict request", "n_features", len(req.Features))

	prediction, err := s.predict(ctx, logger, req)
	done(err)
	if err != nil {
		logger.Error("prediction failed", "error", err)
		return nil, err
	}

	logger.Info("prediction completed", "prediction", prediction)
	return &api.PredictResponse{Prediction: prediction}, nil
}

func (s *Service) predict(ctx context.Context, logger *slog.Logger, req *api.PredictRequest) (string, error) {
	if err := validateModelId(req.ModelId); err != nil {
		return "", err
	}

	unlock, err := s.lock(req.ModelId)
	if err != nil {
		return "", err
	}
	defer unlock()

	staging, cleanup, err := s.newStagingDir()
	if err != nil {
		return "", err
	}
	defer cleanup()

	key := ModelKey(req.ModelId)
	modelPath := filepath.Join(staging, req.ModelId+core.ArtifactExt)

	logger.Debug("downloading model", "key", key, "dest", modelPath)
	if err := s.store.Download(ctx, key, modelPath); err != nil {
		return "", err
	}

	model, err := os.ReadFile(modelPath)
	if err != nil {
		return "", fmt.Errorf("error reading model %s: %w", modelPath, err)
	}

	prediction, err := s.engine.Predict(ctx, model, req.Features)
	if err != nil {
		return "", err
	}

	return prediction.String(), nil
}

func (s *Service) lock(modelId string) (func(), error) {
	if err := s.locks.Lock(modelId); err != nil {
		return nil, fmt.Errorf("error acquiring lock for model %s: %w", modelId, err)
	}
	return func() {
		if err := s.locks.Unlock(modelId); err != nil {
			s.logger.Error("error releasing model lock", "model_id", modelId, "error", err)
		}
	}, nil
}

func (s *Service) newStagingDir() (string, func(), error) {
	dir := filepath.Join(s.stagingDir, uuid.New().String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", nil, fmt.Errorf("error creating staging dir %s: %w", dir, err)
	}
	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("error removing staging dir", "dir", dir, "error", err)
		}
	}, nil
}
