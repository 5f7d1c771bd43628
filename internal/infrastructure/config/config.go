package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Import    ImportConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds the local SQLite store settings
type DatabaseConfig struct {
	Path           string        // database file, or ":memory:"
	BusyTimeout    time.Duration // how long a writer waits on a locked database
	MaxOpenConns   int
	AutoMigrate    bool     // create missing tables and indexes at open
	SkipIndexes    []string // indexes to drop after migration (legacy schema profile)
	LogLevel       string   // silent, error, warn, info
	SlowThreshold  time.Duration
	DegradationLog int // fallback scans kept for the health report
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds the local API server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxBodySize      int64
	CORSAllowOrigins []string
	SSEHeartbeat     time.Duration
}

// ImportConfig holds bulk import limits
type ImportConfig struct {
	MaxFileSize       int64 // bytes
	MaxRows           int
	PreviewRows       int
	MaxErrors         int
	BackgroundWorkers int64
	SessionTTL        time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	MetricsInterval   time.Duration
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	LogsEnabled       bool // export zap records over OTLP
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with POS_ prefix (e.g., POS_DATABASE_PATH)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/etc/kasapos")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("POS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// auto_migrate defaults to true, so an unset key must not read as false
	v.SetDefault("database.auto_migrate", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Path:           v.GetString("database.path"),
			BusyTimeout:    v.GetDuration("database.busy_timeout"),
			MaxOpenConns:   v.GetInt("database.max_open_conns"),
			AutoMigrate:    v.GetBool("database.auto_migrate"),
			SkipIndexes:    splitList(v.GetStringSlice("database.skip_indexes")),
			LogLevel:       v.GetString("database.log_level"),
			SlowThreshold:  v.GetDuration("database.slow_threshold"),
			DegradationLog: v.GetInt("database.degradation_log"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: splitList(v.GetStringSlice("http.cors_allow_origins")),
			SSEHeartbeat:     v.GetDuration("http.sse_heartbeat"),
		},
		Import: ImportConfig{
			MaxFileSize:       v.GetInt64("import.max_file_size"),
			MaxRows:           v.GetInt("import.max_rows"),
			PreviewRows:       v.GetInt("import.preview_rows"),
			MaxErrors:         v.GetInt("import.max_errors"),
			BackgroundWorkers: v.GetInt64("import.background_workers"),
			SessionTTL:        v.GetDuration("import.session_ttl"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "kasapos"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8765"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/kasapos.db"
	}
	if cfg.Database.BusyTimeout == 0 {
		cfg.Database.BusyTimeout = 5 * time.Second
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 4
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Database.SlowThreshold == 0 {
		cfg.Database.SlowThreshold = 200 * time.Millisecond
	}
	if cfg.Database.DegradationLog == 0 {
		cfg.Database.DegradationLog = 100
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 30 * time.Second
	}
	// WriteTimeout stays zero unless configured: SSE streams are long-lived
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 120 * time.Second
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 20 << 20 // 20MB
	}
	if len(cfg.HTTP.CORSAllowOrigins) == 0 {
		cfg.HTTP.CORSAllowOrigins = []string{"http://localhost:5173", "app://kasapos"}
	}
	if cfg.HTTP.SSEHeartbeat == 0 {
		cfg.HTTP.SSEHeartbeat = 15 * time.Second
	}
	if cfg.Import.MaxFileSize == 0 {
		cfg.Import.MaxFileSize = 10 << 20 // 10MB
	}
	if cfg.Import.MaxRows == 0 {
		cfg.Import.MaxRows = 50000
	}
	if cfg.Import.PreviewRows == 0 {
		cfg.Import.PreviewRows = 5
	}
	if cfg.Import.MaxErrors == 0 {
		cfg.Import.MaxErrors = 1000
	}
	if cfg.Import.BackgroundWorkers == 0 {
		cfg.Import.BackgroundWorkers = 2
	}
	if cfg.Import.SessionTTL == 0 {
		cfg.Import.SessionTTL = 30 * time.Minute
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "kasapos"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
}

// knownIndexes are the secondary indexes the catalog schema defines
var knownIndexes = map[string]bool{
	"idx_products_barcode":     true,
	"idx_product_groups_order": true,
	"idx_relations_group_id":   true,
	"idx_relations_product_id": true,
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns < 0 {
		return fmt.Errorf("database.max_open_conns cannot be negative")
	}
	for _, idx := range c.Database.SkipIndexes {
		if !knownIndexes[idx] {
			return fmt.Errorf("database.skip_indexes: unknown index %q", idx)
		}
	}
	if c.Import.PreviewRows < 0 || c.Import.MaxRows < 0 {
		return fmt.Errorf("import.preview_rows and import.max_rows cannot be negative")
	}
	if c.Import.BackgroundWorkers < 0 {
		return fmt.Errorf("import.background_workers cannot be negative")
	}
	if c.App.Env == "production" && c.Telemetry.DBLogFullSQL {
		return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	return nil
}

// IsMemory reports whether the store lives only in memory
func (d *DatabaseConfig) IsMemory() bool {
	return d.Path == ":memory:"
}

// DSN returns the go-sqlite3 connection string
func (d *DatabaseConfig) DSN() string {
	if d.IsMemory() {
		return ":memory:"
	}
	q := url.Values{}
	q.Set("_busy_timeout", fmt.Sprintf("%d", d.BusyTimeout.Milliseconds()))
	q.Set("_journal_mode", "WAL")
	q.Set("_txlock", "immediate")
	return "file:" + d.Path + "?" + q.Encode()
}

func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
