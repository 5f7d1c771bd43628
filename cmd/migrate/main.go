package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kasapos/backend/internal/infrastructure/config"
	"github.com/kasapos/backend/internal/infrastructure/logger"
	"github.com/kasapos/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	var (
		dbPath   string
		logLevel string
	)

	flag.StringVar(&dbPath, "db", "", "Path to the catalog database (default: database.path from config)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	dbCfg := cfg.Database
	if dbPath != "" {
		dbCfg.Path = dbPath
	}
	dbCfg.SkipIndexes = nil
	if dbCfg.IsMemory() {
		log.Fatal("Schema commands need a database file, not :memory:")
	}

	log.Info("Schema CLI started",
		zap.String("command", command),
		zap.String("database", dbCfg.Path),
	)

	switch command {
	case "up":
		// AutoMigrate creates missing tables and restores dropped indexes
		dbCfg.AutoMigrate = true
		db := open(log, &dbCfg)
		defer db.Close()
		report(log, db)

	case "verify":
		dbCfg.AutoMigrate = false
		db := open(log, &dbCfg)
		defer db.Close()
		if caps := report(log, db); caps.Degraded() {
			log.Warn("Catalog schema is degraded; run 'migrate up' to restore indexes")
			os.Exit(2)
		}

	case "drop-index":
		if len(args) < 2 {
			log.Fatal("Index name required. Usage: migrate drop-index <name>")
		}
		dbCfg.AutoMigrate = false
		db := open(log, &dbCfg, persistence.WithDroppedIndexes(args[1:]...))
		defer db.Close()
		report(log, db)

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func open(log *zap.Logger, cfg *config.DatabaseConfig, opts ...persistence.DatabaseOption) *persistence.Database {
	opts = append([]persistence.DatabaseOption{persistence.WithDatabaseLogger(log)}, opts...)
	db, err := persistence.NewDatabase(cfg, opts...)
	if err != nil {
		log.Fatal("Failed to open catalog database", zap.Error(err))
	}
	return db
}

func report(log *zap.Logger, db *persistence.Database) persistence.IndexCapabilities {
	caps := persistence.DetectCapabilities(db.DB)
	log.Info("Catalog schema",
		zap.Bool("products_barcode", caps.ProductsBarcode),
		zap.Bool("groups_order", caps.GroupsOrder),
		zap.Bool("relations_group_id", caps.RelationsGroupID),
		zap.Bool("relations_product_id", caps.RelationsProductID),
		zap.Strings("missing", caps.Missing()),
	)
	return caps
}

func printUsage() {
	fmt.Println(`KasaPOS Catalog Schema Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Create missing tables and restore secondary indexes
  verify                Check tables exist and report missing indexes (exit 2 if degraded)
  drop-index <name>...  Drop secondary indexes to reproduce a legacy schema

Indexes:
  idx_products_barcode, idx_product_groups_order,
  idx_relations_group_id, idx_relations_product_id

Flags:
  -db string            Catalog database file (default: database.path from config)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  POS_DATABASE_PATH

Examples:
  # Bring an old database up to the current schema
  migrate up

  # Check a database without modifying it
  migrate -db ./data/kasapos.db verify`)
}
