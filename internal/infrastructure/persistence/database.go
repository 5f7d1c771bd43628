package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kasapos/backend/internal/domain/bulk"
	"github.com/kasapos/backend/internal/domain/catalog"
	"github.com/kasapos/backend/internal/infrastructure/config"
	"github.com/kasapos/backend/internal/infrastructure/logger"
	"github.com/kasapos/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// catalogModels are the tables the store owns, in migration order
var catalogModels = []any{
	&catalog.Product{},
	&catalog.Category{},
	&catalog.ProductGroup{},
	&catalog.ProductGroupRelation{},
}

// logModels are append-only tables outside the catalog schema.
// They are created on open even when AutoMigrate is off.
var logModels = []any{
	&bulk.ImportHistory{},
}

type tabler interface {
	TableName() string
}

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// DatabaseOption configures NewDatabase
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	logger      *zap.Logger
	tracing     telemetry.DBTracingConfig
	skipIndexes []string
}

// WithDatabaseLogger routes SQL logs to the given logger
func WithDatabaseLogger(l *zap.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDatabaseTracing enables otelgorm spans for every query
func WithDatabaseTracing(cfg telemetry.DBTracingConfig) DatabaseOption {
	return func(o *databaseOptions) {
		o.tracing = cfg
	}
}

// WithDroppedIndexes removes the named secondary indexes after migration
func WithDroppedIndexes(names ...string) DatabaseOption {
	return func(o *databaseOptions) {
		o.skipIndexes = append(o.skipIndexes, names...)
	}
}

// NewDatabase opens the SQLite catalog database, migrates or verifies its schema,
// and drops any indexes the configuration asks to skip.
func NewDatabase(cfg *config.DatabaseConfig, opts ...DatabaseOption) (*Database, error) {
	o := &databaseOptions{
		logger:  zap.NewNop(),
		tracing: telemetry.DefaultDBTracingConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if !cfg.IsMemory() {
		if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	gormLogger := logger.NewGormLogger(o.logger, logger.MapGormLogLevel(cfg.LogLevel),
		logger.WithSlowThreshold(cfg.SlowThreshold))

	db, err := gorm.Open(sqlite.Open(cfg.DSN()), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// every connection to ":memory:" is a separate database
	if cfg.IsMemory() {
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := telemetry.RegisterOtelGorm(db, o.tracing, o.logger); err != nil {
		return nil, fmt.Errorf("failed to register database tracing: %w", err)
	}

	d := &Database{DB: db}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(catalogModels...); err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("failed to migrate catalog schema: %w", err)
		}
	} else if err := d.VerifySchema(); err != nil {
		_ = d.Close()
		return nil, err
	}

	if err := db.AutoMigrate(logModels...); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("failed to create import history table: %w", err)
	}

	skipped := append(append([]string{}, cfg.SkipIndexes...), o.skipIndexes...)
	if err := d.dropIndexes(skipped, o.logger); err != nil {
		_ = d.Close()
		return nil, err
	}

	return d, nil
}

// VerifySchema checks that every catalog table exists.
// Missing secondary indexes are not an error; they only degrade lookups.
func (d *Database) VerifySchema() error {
	m := d.DB.Migrator()
	for _, model := range catalogModels {
		if !m.HasTable(model) {
			return fmt.Errorf("catalog schema incomplete: missing table %q", model.(tabler).TableName())
		}
	}
	return nil
}

func (d *Database) dropIndexes(names []string, log *zap.Logger) error {
	m := d.DB.Migrator()
	for _, name := range names {
		model, ok := indexModels[name]
		if !ok {
			return fmt.Errorf("unknown catalog index %q", name)
		}
		if !m.HasIndex(model, name) {
			continue
		}
		if err := m.DropIndex(model, name); err != nil {
			return fmt.Errorf("failed to drop index %s: %w", name, err)
		}
		log.Info("Catalog index dropped", zap.String("index", name))
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
