package database

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"daily-squad/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the database for the given dialect ("postgres" or "sqlite").
func Connect(dialect, dsn string) error {
	var dialector gorm.Dialector
	switch dialect {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return fmt.Errorf("unsupported dialect: %s", dialect)
	}

	var err error
	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Error,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows a single writer; serialize through one connection.
	if dialect == "sqlite" {
		sqlDB, err := DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	slog.Info("Database connection established", "dialect", dialect)
	return nil
}

// Models lists every table of the service in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.Squad{},
		&models.SquadMember{},
		&models.DailyEvent{},
		&models.EventOutcome{},
		&models.OutcomeChallenge{},
		&models.JudgeAward{},
		&models.JudgeScore{},
	}
}

// Migrate creates or updates all tables and their uniqueness constraints.
func Migrate(db *gorm.DB) error {
	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migration failed for %T: %w", model, err)
		}
	}
	return nil
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate() error {
	if err := Migrate(DB); err != nil {
		return err
	}
	slog.Info("Database migrations completed successfully")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// Close closes the underlying connection pool
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
