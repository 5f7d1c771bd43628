package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogger_Trace(t *testing.T) {
	sql := func() (string, int64) { return "SELECT * FROM products", 2 }

	t.Run("error carries import id", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn)
		ctx, _ := WithImportID(context.Background(), zap.NewNop(), "imp-1")

		gl.Trace(ctx, time.Now(), sql, errors.New("no such index: idx_products_barcode"))

		entries := logs.FilterMessage("SQL Error").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "imp-1", entries[0].ContextMap()["import_id"])
	})

	t.Run("record not found is ignored", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn)
		gl.Trace(context.Background(), time.Now(), sql, gormlogger.ErrRecordNotFound)
		assert.Zero(t, logs.Len())
	})

	t.Run("slow query warns", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(time.Millisecond))
		gl.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn).LogMode(gormlogger.Silent)
		gl.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
		assert.Zero(t, logs.Len())
	})
}

func TestGormLogger_FailureKinds(t *testing.T) {
	sql := func() (string, int64) { return "INSERT INTO products ...", 0 }

	t.Run("locked database logs at warn", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn)
		gl.Trace(context.Background(), time.Now(), sql, errors.New("database is locked"))

		entries := logs.FilterMessage("SQL Error").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.Equal(t, SQLKindBusy, entries[0].ContextMap()["kind"])
	})

	t.Run("long statements are truncated", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Info, WithMaxSQLLength(6))
		gl.Trace(context.Background(), time.Now(), sql, nil)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "INSERT...(truncated)", logs.All()[0].ContextMap()["sql"])
	})
}

func TestClassifySQLError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{errors.New("no such index: idx_products_barcode"), SQLKindMissingIndex},
		{errors.New("database is locked"), SQLKindBusy},
		{errors.New("UNIQUE constraint failed: products.id"), SQLKindConstraint},
		{gorm.ErrDuplicatedKey, SQLKindConstraint},
		{errors.New("disk I/O error"), SQLKindOther},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifySQLError(tt.err))
		})
	}
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("bogus"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel(" ERROR "))
}
