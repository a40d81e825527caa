package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/zyrticx/tradesmart-api/internal/database/migrations"
	"github.com/zyrticx/tradesmart-api/internal/types"
)

// NewDatabase initializes and returns a new GORM DB connection
func NewDatabase(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate schemas
	err = db.AutoMigrate(
		&types.User{},
		&types.Trade{},
		&types.TradeEvent{},
		&types.Account{},
		&types.JournalEntry{},
		&types.WatchlistNote{},
		&types.LearningMaterial{},
		&types.UserPreference{},
	)
	if err != nil {
		return nil, err
	}

	// Backfill runs after the schema exists, it rewrites legacy rows
	if err := migrations.BackfillEventCommission(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
