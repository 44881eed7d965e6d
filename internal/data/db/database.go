package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/aptscope/aptscope-backend/internal/platform/logger"
	"github.com/aptscope/aptscope-backend/internal/utils"
)

// Service owns the gorm handle. DB_DRIVER selects postgres (default) or
// sqlite; sqlite exists for single-binary local runs and needs no server.
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewService(logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "DatabaseService")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	driver := utils.GetEnv("DB_DRIVER", "postgres", logg)
	switch driver {
	case "postgres":
		pgHost := utils.GetEnv("POSTGRES_HOST", "localhost", logg)
		pgPort := utils.GetEnv("POSTGRES_PORT", "5432", logg)
		pgUser := utils.GetEnv("POSTGRES_USER", "postgres", logg)
		pgPassword := utils.GetEnv("POSTGRES_PASSWORD", "", logg)
		pgName := utils.GetEnv("POSTGRES_NAME", "aptscope", logg)

		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			pgUser,
			pgPassword,
			pgHost,
			pgPort,
			pgName,
		)

		gdb, err := gorm.Open(postgres.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
			return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
		}
		return &Service{db: gdb, log: serviceLog}, nil

	case "sqlite":
		path := utils.GetEnv("SQLITE_PATH", "aptscope.db", logg)
		gdb, err := gorm.Open(sqlite.Open(path), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite at %s: %w", path, err)
		}
		return &Service{db: gdb, log: serviceLog}, nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q (want postgres or sqlite)", driver)
	}
}

func (s *Service) DB() *gorm.DB { return s.db }
