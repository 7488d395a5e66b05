package database

import (
	"github.com/plothook/api/internal/config"
	"github.com/plothook/api/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.UserProfile{},
		&model.RefreshToken{},
		&model.World{},
		&model.WorldMembership{},
		&model.Category{},
		&model.Entry{},
		&model.HiddenTextBlock{},
		&model.CrossReference{},
		&model.Session{},
		&model.SessionPlayer{},
		&model.SessionNote{},
		&model.Quest{},
		&model.SessionQuestProgress{},
	)
	if err != nil {
		return err
	}

	// Composite uniqueness the struct tags can't express: sibling categories
	// must have distinct titles, with roots (NULL parent) treated as one group.
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_world_parent_title ON categories(world_id, COALESCE(parent_id, 0), title)")

	return nil
}
