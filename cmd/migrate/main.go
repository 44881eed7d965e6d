package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/aptscope/aptscope-backend/internal/data/db"
	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

func main() {
	_ = godotenv.Load()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	dbs, err := db.NewService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err := dbs.AutoMigrateAll(); err != nil {
		log.Error("Migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("Migration complete")
}
