package database

import (
	"gait-backend/internal/config"
	"gait-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the database connection and returns the handle.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresURI), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema for all persisted models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Patient{},
		&models.Prosthetic{},
		&models.MedicalCondition{},
		&models.Injury{},
		&models.GaitSession{},
		&models.GaitMetric{},
		&models.GaitPlotDatum{},
	)
}
