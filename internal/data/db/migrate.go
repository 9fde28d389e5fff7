package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// single-table items (lessons, progress, meta, notes, chat, activity)
		&kv.ItemRow{},
	)
}
