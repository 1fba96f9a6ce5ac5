package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/treytuscai/DevReady/internal/models"
)

// Migrate creates or updates the schema for the question catalogue and submissions.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Tag{}, &models.Question{}, &models.TestCase{}, &models.Submission{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
