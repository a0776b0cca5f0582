package repository

import (
	"gorm.io/gorm"

	"github.com/paperdesk/paperdesk/interfaces"
	"github.com/paperdesk/paperdesk/internal/models"
)

type Repositories struct {
	DocumentRepository interfaces.DocumentRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	repositories := &Repositories{
		DocumentRepository: NewDocumentRepository(db),
	}

	return repositories
}

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Document{},
	)
}
