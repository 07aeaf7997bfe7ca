package db

import (
	"gorm.io/gorm"

	types "github.com/comptrack/comptrack-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.User{},
		&types.Tower{},
		&types.Component{},
		&types.Activity{},
		&types.UploadedFile{},
	)
}
