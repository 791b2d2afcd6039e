package repository

import (
	"taskboard/internal/model"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Board{},
		&model.List{},
		&model.Task{},
		&model.Activity{},
		&model.BoardShare{},
	)
}
