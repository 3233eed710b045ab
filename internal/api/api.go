package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"forest-backend/internal/core"
	"forest-backend/internal/database"
	"forest-backend/internal/worker"
	"forest-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// WorkerClient is the subset of the worker RPC surface used by the gateway.
type WorkerClient interface {
	Train(ctx context.Context, req *api.TrainRequest) (*api.TrainResponse, error)
	Predict(ctx context.Context, req *api.PredictRequest) (*api.PredictResponse, error)
}

type BackendService struct {
	db           *gorm.DB
	worker       WorkerClient
	trainTimeout time.Duration
}

func NewBackendService(db *gorm.DB, worker WorkerClient, trainTimeout time.Duration) *BackendService {
	return &BackendService{db: db, worker: worker, trainTimeout: trainTimeout}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", restHandler(func(r *http.Request) (any, error) { return nil, nil }))
	r.Post("/train", restHandler(s.TrainModel))
	r.Post("/predict/{model_id}", restHandler(s.Predict))
	r.Route("/models", func(r chi.Router) {
		r.Get("/", restHandler(s.ListModels))
		r.Get("/{model_id}", restHandler(s.GetModel))
	})
}

func (s *BackendService) TrainModel(r *http.Request) (any, error) {
	req, err := parseRequest[api.TrainModelRequest](r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.DatasetUrl) == "" || strings.TrimSpace(req.TargetColumn) == "" {
		return nil, codedErrorf(http.StatusBadRequest, "missing required fields: dataset_url, target_column")
	}

	taskType, err := api.ParseTaskType(req.TaskType)
	if err != nil {
		return nil, codedErrorf(http.StatusBadRequest, "%w", err)
	}

	if req.NEstimators <= 0 {
		req.NEstimators = core.DefaultNEstimators
	}

	ctx := r.Context()

	model := database.Model{
		Id:           uuid.New(),
		DatasetUrl:   req.DatasetUrl,
		TaskType:     strings.ToLower(strings.TrimSpace(req.TaskType)),
		TargetColumn: req.TargetColumn,
		NEstimators:  req.NEstimators,
		Status:       database.ModelQueued,
		CreationTime: time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		slog.Error("error creating model", "error", err)
		return nil, codedErrorf(http.StatusInternalServerError, "failed to create model entry")
	}

	if err := database.UpdateModelStatus(ctx, s.db, model.Id, database.ModelTraining, ""); err != nil {
		return nil, codedErrorf(http.StatusInternalServerError, "failed to update model status")
	}

	trainCtx, cancel := context.WithTimeout(ctx, s.trainTimeout)
	defer cancel()

	slog.Info("submitting training request to worker", "model_id", model.Id, "dataset_url", model.DatasetUrl)
	resp, err := s.worker.Train(trainCtx, &api.TrainRequest{
		ModelId:      model.Id.String(),
		DatasetUrl:   req.DatasetUrl,
		TaskType:     taskType,
		TargetColumn: req.TargetColumn,
		NEstimators:  int32(req.NEstimators),
	})
	if err != nil {
		message := status.Convert(err).Message()
		s.markFailed(ctx, model.Id, message)
		slog.Error("error calling worker train", "model_id", model.Id, "error", err)
		return nil, codedErrorf(http.StatusInternalServerError, "error contacting worker: %s", message)
	}

	if !resp.Success {
		s.markFailed(ctx, model.Id, resp.Message)
		slog.Warn("worker reported training failure", "model_id", model.Id, "message", resp.Message)
		return nil, codedErrorf(http.StatusInternalServerError, "training failed: %s", resp.Message)
	}

	if err := database.MarkModelTrained(context.WithoutCancel(ctx), s.db, model.Id, worker.ModelKey(model.Id.String()), resp.Message); err != nil {
		slog.Error("error marking model trained", "model_id", model.Id, "error", err)
		return nil, codedErrorf(http.StatusInternalServerError, "failed to update model status")
	}

	slog.Info("model trained", "model_id", model.Id)
	return api.TrainModelResponse{ModelId: model.Id, Status: database.ModelTrained, Message: resp.Message}, nil
}

// markFailed records a terminal FAILED status. The write must outlive the
// request, which may already be cancelled when the worker call returns.
func (s *BackendService) markFailed(ctx context.Context, id uuid.UUID, message string) {
	if err := database.UpdateModelStatus(context.WithoutCancel(ctx), s.db, id, database.ModelFailed, message); err != nil {
		slog.Error("error marking model failed", "model_id", id, "error", err)
	}
}

func (s *BackendService) Predict(r *http.Request) (any, error) {
	modelId, err := urlParamUUID(r, "model_id")
	if err != nil {
		return nil, err
	}

	req, err := parseRequest[api.PredictModelRequest](r)
	if err != nil {
		return nil, err
	}

	if len(req.Features) == 0 {
		return nil, codedErrorf(http.StatusBadRequest, "missing required field: features")
	}

	ctx := r.Context()

	model, err := s.getModel(ctx, modelId)
	if err != nil {
		return nil, err
	}

	if model.Status != database.ModelTrained {
		return nil, codedErrorf(http.StatusUnprocessableEntity, "model is not ready: model has status: %s", model.Status)
	}

	resp, err := s.worker.Predict(ctx, &api.PredictRequest{ModelId: modelId.String(), Features: req.Features})
	if err != nil {
		slog.Error("error calling worker predict", "model_id", modelId, "error", err)
		return nil, codedErrorf(http.StatusInternalServerError, "prediction failed: %s", status.Convert(err).Message())
	}

	return api.PredictModelResponse{ModelId: modelId, Prediction: resp.Prediction}, nil
}

func (s *BackendService) ListModels(r *http.Request) (any, error) {
	params, err := parseQueryParams[api.ListModelsParams](r)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(r.Context()).Order("creation_time DESC")
	if params.Status != "" {
		query = query.Where("status = ?", strings.ToUpper(params.Status))
	}

	var models []database.Model
	if err := query.Find(&models).Error; err != nil {
		slog.Error("error listing models", "error", err)
		return nil, codedErrorf(http.StatusInternalServerError, "error retrieving model records")
	}

	return convertModels(models), nil
}

func (s *BackendService) GetModel(r *http.Request) (any, error) {
	modelId, err := urlParamUUID(r, "model_id")
	if err != nil {
		return nil, err
	}

	model, err := s.getModel(r.Context(), modelId)
	if err != nil {
		return nil, err
	}

	return convertModel(model), nil
}

func (s *BackendService) getModel(ctx context.Context, modelId uuid.UUID) (database.Model, error) {
	var model database.Model
	if err := s.db.WithContext(ctx).First(&model, "id = ?", modelId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model, codedErrorf(http.StatusNotFound, "model not found")
		}
		slog.Error("error getting model", "error", err)
		return model, codedErrorf(http.StatusInternalServerError, "error retrieving model record")
	}
	return model, nil
}
