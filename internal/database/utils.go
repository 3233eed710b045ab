package database

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func UpdateModelStatus(ctx context.Context, txn *gorm.DB, modelId uuid.UUID, status, message string) error {
	updates := map[string]any{"status": status, "message": message}
	if status == ModelTrained || status == ModelFailed {
		updates["completion_time"] = time.Now().UTC()
	}

	if err := txn.WithContext(ctx).Model(&Model{Id: modelId}).Updates(updates).Error; err != nil {
		slog.Error("error updating model status", "model_id", modelId, "status", status, "error", err)
		return err
	}
	return nil
}

func MarkModelTrained(ctx context.Context, txn *gorm.DB, modelId uuid.UUID, artifactKey, message string) error {
	updates := map[string]any{
		"status":          ModelTrained,
		"message":         message,
		"artifact_key":    sql.NullString{String: artifactKey, Valid: true},
		"completion_time": time.Now().UTC(),
	}

	if err := txn.WithContext(ctx).Model(&Model{Id: modelId}).Updates(updates).Error; err != nil {
		slog.Error("error marking model trained", "model_id", modelId, "error", err)
		return err
	}
	return nil
}
