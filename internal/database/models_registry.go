package database

import "newsdesk/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models,
// parents before children.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Article{},
		&models.Block{},
		&models.Comment{},
		&models.Reaction{},
	}
}
