package database

import (
	"gorm.io/gorm"

	"lostfound/internal/domain"
)

// Models lists every table owned by the service, parents first.
func Models() []any {
	return []any{
		&domain.User{},
		&domain.Pet{},
		&domain.Report{},
		&domain.Notification{},
		&domain.OutboxMessage{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
