package api

import (
	"time"

	"github.com/google/uuid"
)

type Model struct {
	Id             uuid.UUID
	DatasetUrl     string
	TaskType       string
	TargetColumn   string
	NEstimators    int
	Status         string
	Message        string     `json:"Message,omitempty"`
	ArtifactKey    string     `json:"ArtifactKey,omitempty"`
	CreationTime   time.Time
	CompletionTime *time.Time `json:"CompletionTime,omitempty"`
}

type TrainModelRequest struct {
	DatasetUrl   string `json:"dataset_url"`
	TaskType     string `json:"task_type"`
	TargetColumn string `json:"target_column"`
	NEstimators  int    `json:"n_estimators"`
}

type TrainModelResponse struct {
	ModelId uuid.UUID `json:"model_id"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
}

type PredictModelRequest struct {
	Features []float64 `json:"features"`
}

type PredictModelResponse struct {
	ModelId    uuid.UUID `json:"model_id"`
	Prediction string    `json:"prediction"`
}

type ListModelsParams struct {
	Status string `schema:"status"`
}
