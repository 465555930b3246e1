package database

import (
	"fmt"
	"time"

	"github.com/intakt/hunter/backend/internal/logger"
	"github.com/intakt/hunter/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connection used by the composition roots in cmd/.
// Services take an injected *gorm.DB; this global exists only so the cmd
// binaries share one handle.
var DB *gorm.DB

// Open creates and configures the database connection.
func Open(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	logger.Log.Info("database connected")

	return db, nil
}

// Migrate runs auto-migration for all models and creates indexes.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.PasswordReset{},
		&models.Lead{},
		&models.LeadContact{},
		&models.List{},
		&models.ListItem{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	createIndexes(db)

	logger.Log.Info("database migrations completed")
	return nil
}

// createIndexes creates performance indexes. Best effort: a failure here is
// not fatal on engines that lack an index feature.
func createIndexes(db *gorm.DB) {
	// Lead browsing: every sort mode plus the user scope filter
	db.Exec("CREATE INDEX IF NOT EXISTS idx_leads_user_created ON leads (user_id, created_at DESC)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_leads_rating ON leads (rating)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_leads_review_count ON leads (review_count)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_leads_contacted ON leads (contacted)")

	// Contacts preview/count by place
	db.Exec("CREATE INDEX IF NOT EXISTS idx_lead_contacts_place_created ON lead_contacts (place_id, created_at DESC)")

	// Lists overview is newest-created first per user
	db.Exec("CREATE INDEX IF NOT EXISTS idx_lists_user_created ON lists (user_id, created_at DESC)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_list_items_list_created ON list_items (list_id, created_at DESC)")

	// Reset tokens are looked up by token value
	db.Exec("CREATE INDEX IF NOT EXISTS idx_password_resets_token ON password_resets (token)")
}

// Close closes the database connection.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity.
func Health(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}
