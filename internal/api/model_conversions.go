package api

import (
	"forest-backend/internal/database"
	"forest-backend/pkg/api"
)

func convertModel(m database.Model) api.Model {
	model := api.Model{
		Id:           m.Id,
		DatasetUrl:   m.DatasetUrl,
		TaskType:     m.TaskType,
		TargetColumn: m.TargetColumn,
		NEstimators:  m.NEstimators,
		Status:       m.Status,
		Message:      m.Message,
		CreationTime: m.CreationTime,
	}
	if m.ArtifactKey.Valid {
		model.ArtifactKey = m.ArtifactKey.String
	}
	if m.CompletionTime.Valid {
		completion := m.CompletionTime.Time
		model.CompletionTime = &completion
	}
	return model
}

func convertModels(ms []database.Model) []api.Model {
	models := make([]api.Model, 0, len(ms))
	for _, m := range ms {
		models = append(models, convertModel(m))
	}
	return models
}
