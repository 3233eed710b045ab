package database

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Schema of migration "1". Migrations only use these frozen structs, never
// Model, so that replaying them stays stable as Model evolves.
type modelV1 struct {
	Id             string `gorm:"type:uuid;primaryKey"`
	DatasetUrl     string `gorm:"not null"`
	TaskType       string `gorm:"size:20;not null"`
	TargetColumn   string `gorm:"not null"`
	NEstimators    int    `gorm:"not null"`
	Status         string `gorm:"size:20;not null"`
	CreationTime   time.Time
	CompletionTime sql.NullTime
}

func (modelV1) TableName() string {
	return "models"
}

const statusIndex = "idx_models_status"

// Columns and index added by migration "2".
type modelV2 struct {
	Status      string `gorm:"size:20;not null;index:idx_models_status"`
	Message     string
	ArtifactKey *string
}

func (modelV2) TableName() string {
	return "models"
}

func GetMigrator(db *gorm.DB) *gormigrate.Gormigrate {
	migrator := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "1",
			Migrate: func(tx *gorm.DB) error {
				return tx.Migrator().CreateTable(&modelV1{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("models")
			},
		},
		{
			ID: "2",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.Migrator().AddColumn(&modelV2{}, "Message"); err != nil {
					return err
				}
				if err := tx.Migrator().AddColumn(&modelV2{}, "ArtifactKey"); err != nil {
					return err
				}
				return tx.Migrator().CreateIndex(&modelV2{}, statusIndex)
			},
			Rollback: func(tx *gorm.DB) error {
				if err := tx.Migrator().DropIndex(&modelV2{}, statusIndex); err != nil {
					return err
				}
				if err := tx.Migrator().DropColumn(&modelV2{}, "ArtifactKey"); err != nil {
					return err
				}
				return tx.Migrator().DropColumn(&modelV2{}, "Message")
			},
		},
	})

	migrator.InitSchema(func(txn *gorm.DB) error {
		// Fresh databases skip the migration chain and get the latest schema.
		slog.Info("clean database detected, running full schema initialization")
		return txn.AutoMigrate(&Model{})
	})

	return migrator
}
