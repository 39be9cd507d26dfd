package main

import (
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/serc-portal/recruitment-api/migrations"
	"github.com/serc-portal/recruitment-api/pkg/config"
	"github.com/serc-portal/recruitment-api/pkg/database"
	"github.com/serc-portal/recruitment-api/pkg/logger"
)

func main() {
	direction := flag.String("direction", database.MigrateUp, "migration direction: up or down (one step)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	version, err := database.Migrate(cfg.Database, migrations.FS, *direction, logr)
	if err != nil {
		logr.Fatal("migration failed", zap.String("direction", *direction), zap.Error(err))
	}
	logr.Info("migration complete", zap.String("direction", *direction), zap.Uint("version", version))
}
