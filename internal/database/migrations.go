package database

import (
	"fmt"

	"gorm.io/gorm"
)

// RunMigrations executes all database migrations
func RunMigrations(db *gorm.DB) error {
	// Create indexes for better performance
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createIndexes creates database indexes
func createIndexes(db *gorm.DB) error {
	// Index for link lookups by case
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_caso_partes_caso
		ON caso_partes(caso_id)
	`).Error; err != nil {
		return err
	}

	// Index for job queries by status
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_captura_jobs_status
		ON captura_jobs(status)
	`).Error; err != nil {
		return err
	}

	// Index for representative lookups by owning entity
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_representantes_entidade
		ON representantes(tipo_entidade, entidade_id)
	`).Error; err != nil {
		return err
	}

	return nil
}
