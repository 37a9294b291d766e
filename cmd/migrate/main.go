package main

import (
	"flag"
	"log"

	"freelance-hub/internal/config"
	"freelance-hub/internal/database"
	"freelance-hub/internal/logger"
)

func main() {
	rollback := flag.Bool("rollback", false, "revert the most recent migration instead of migrating up")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	// Connect to database
	if err := database.Connect(cfg, zlog); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *rollback {
		log.Println("Rolling back last migration")
		if err := database.RollbackLast(database.GetDB()); err != nil {
			log.Fatalf("Failed to roll back migration: %v", err)
		}
		log.Println("Rollback applied")
		return
	}

	log.Println("Applying pending migrations")
	if err := database.Migrate(database.GetDB()); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	log.Println("Migrations applied")
}
