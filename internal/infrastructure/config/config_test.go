package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"POS_APP_NAME":                  os.Getenv("POS_APP_NAME"),
		"POS_APP_ENV":                   os.Getenv("POS_APP_ENV"),
		"POS_APP_PORT":                  os.Getenv("POS_APP_PORT"),
		"POS_DATABASE_PATH":             os.Getenv("POS_DATABASE_PATH"),
		"POS_DATABASE_AUTO_MIGRATE":     os.Getenv("POS_DATABASE_AUTO_MIGRATE"),
		"POS_DATABASE_SKIP_INDEXES":     os.Getenv("POS_DATABASE_SKIP_INDEXES"),
		"POS_DATABASE_BUSY_TIMEOUT":     os.Getenv("POS_DATABASE_BUSY_TIMEOUT"),
		"POS_IMPORT_PREVIEW_ROWS":       os.Getenv("POS_IMPORT_PREVIEW_ROWS"),
		"POS_TELEMETRY_SAMPLING_RATIO":  os.Getenv("POS_TELEMETRY_SAMPLING_RATIO"),
		"POS_TELEMETRY_DB_LOG_FULL_SQL": os.Getenv("POS_TELEMETRY_DB_LOG_FULL_SQL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "kasapos", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8765", cfg.App.Port)
		assert.Equal(t, "data/kasapos.db", cfg.Database.Path)
		assert.True(t, cfg.Database.AutoMigrate)
		assert.Empty(t, cfg.Database.SkipIndexes)
		assert.Equal(t, 5*time.Second, cfg.Database.BusyTimeout)
		assert.Equal(t, 100, cfg.Database.DegradationLog)
		assert.Equal(t, 5, cfg.Import.PreviewRows)
		assert.Equal(t, int64(2), cfg.Import.BackgroundWorkers)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
		assert.False(t, cfg.Telemetry.Enabled)
	})

	t.Run("loads values from environment variables", func(t *testing.T) {
		clearEnv()

		os.Setenv("POS_APP_PORT", "9000")
		os.Setenv("POS_DATABASE_PATH", ":memory:")
		os.Setenv("POS_DATABASE_AUTO_MIGRATE", "false")
		os.Setenv("POS_DATABASE_SKIP_INDEXES", "idx_products_barcode,idx_relations_group_id")
		os.Setenv("POS_DATABASE_BUSY_TIMEOUT", "2s")
		os.Setenv("POS_IMPORT_PREVIEW_ROWS", "10")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.True(t, cfg.Database.IsMemory())
		assert.False(t, cfg.Database.AutoMigrate)
		assert.Equal(t, []string{"idx_products_barcode", "idx_relations_group_id"}, cfg.Database.SkipIndexes)
		assert.Equal(t, 2*time.Second, cfg.Database.BusyTimeout)
		assert.Equal(t, 10, cfg.Import.PreviewRows)
	})

	t.Run("rejects unknown skipped index", func(t *testing.T) {
		clearEnv()
		os.Setenv("POS_DATABASE_SKIP_INDEXES", "idx_nope")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "idx_nope")
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		clearEnv()
		os.Setenv("POS_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("rejects full sql logging in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("POS_APP_ENV", "production")
		os.Setenv("POS_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("memory passes through", func(t *testing.T) {
		d := DatabaseConfig{Path: ":memory:"}
		assert.Equal(t, ":memory:", d.DSN())
	})

	t.Run("file carries busy timeout and wal", func(t *testing.T) {
		d := DatabaseConfig{Path: "data/pos.db", BusyTimeout: 3 * time.Second}
		dsn := d.DSN()
		assert.Contains(t, dsn, "file:data/pos.db?")
		assert.Contains(t, dsn, "_busy_timeout=3000")
		assert.Contains(t, dsn, "_journal_mode=WAL")
	})
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitList([]string{"a, b", " c ", ""}))
	assert.Nil(t, splitList(nil))
}
