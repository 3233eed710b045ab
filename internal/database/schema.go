package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	ModelQueued   string = "QUEUED"
	ModelTraining string = "TRAINING"
	ModelTrained  string = "TRAINED"
	ModelFailed   string = "FAILED"
)

type Model struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	DatasetUrl   string `gorm:"not null"`
	TaskType     string `gorm:"size:20;not null"`
	TargetColumn string `gorm:"not null"`
	NEstimators  int    `gorm:"not null"`

	Status      string `gorm:"size:20;not null;index:idx_models_status"`
	Message     string
	ArtifactKey sql.NullString

	CreationTime   time.Time
	CompletionTime sql.NullTime
}
