package database

import (
	"fmt"
	"time"

	"freelance-hub/internal/config"
	"freelance-hub/internal/models"

	"github.com/go-gormigrate/gormigrate/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the database selected by cfg.Driver and keeps it as the
// package-level handle returned by GetDB.
func Connect(cfg *config.Config, log *zap.Logger) error {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.Path)
	default:
		dialector = postgres.Open(cfg.GetDSN())
	}

	db, err := Open(dialector, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	DB = db

	log.Info("Database connection established", zap.String("driver", cfg.Database.Driver))
	return nil
}

// Open creates a gorm handle with the service defaults. Query errors and slow
// queries go to log; a missing row is a normal result and is not logged.
func Open(dialector gorm.Dialector, log *zap.Logger) (*gorm.DB, error) {
	writer, err := zap.NewStdLogAt(log.Named("gorm"), zapcore.WarnLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to build gorm logger: %w", err)
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(writer, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
}

// Migrations returns the ordered schema history
func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "202610190001_core_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&models.Profile{},
					&models.Project{},
					&models.Proposal{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("proposals", "projects", "profiles")
			},
		},
		{
			ID: "202610190002_payment_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&models.Contract{},
					&models.PaymentIntent{},
					&models.StripeAccount{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("stripe_accounts", "payment_intents", "contracts")
			},
		},
		{
			// at most one accepted proposal per project
			ID: "202610190003_single_accepted_proposal",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec(
					"CREATE UNIQUE INDEX IF NOT EXISTS idx_proposals_one_accepted ON proposals (project_id) WHERE status = 'accepted'",
				).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec("DROP INDEX IF EXISTS idx_proposals_one_accepted").Error
			},
		},
	}
}

// Migrate applies every pending migration
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, Migrations())
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// RollbackLast reverts the most recent migration
func RollbackLast(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, Migrations())
	return m.RollbackLast()
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
