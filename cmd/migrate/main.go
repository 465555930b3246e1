// Command migrate runs the schema migrations against the configured
// database and exits.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/intakt/hunter/backend/internal/config"
	"github.com/intakt/hunter/backend/internal/database"
	"github.com/intakt/hunter/backend/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		panic(err)
	}
	defer logger.Close()

	if cfg.Degraded() {
		logger.Log.Error("no database configured; set DATABASE_URL")
		os.Exit(1)
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Log.Error("database connection failed", zap.Error(err))
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logger.Log.Error("migrations failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Log.Info("migrations applied")
}
