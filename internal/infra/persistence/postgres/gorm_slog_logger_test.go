package postgres

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"healthtrack/config"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newBufferedGormLogger(cfg *config.Config) (*gormSlogLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	base := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return newGormSlogLogger(base, cfg).(*gormSlogLogger), buf
}

func TestGormSlogLogger_Levels(t *testing.T) {
	l, _ := newBufferedGormLogger(&config.Config{})
	assert.Equal(t, logger.Warn, l.level)

	debugCfg := &config.Config{}
	debugCfg.Env.Debug = true
	l, _ = newBufferedGormLogger(debugCfg)
	assert.Equal(t, logger.Info, l.level)

	silent := l.LogMode(logger.Silent).(*gormSlogLogger)
	assert.Equal(t, logger.Silent, silent.level)
	assert.Equal(t, logger.Info, l.level)
}

func TestGormSlogLogger_SlowThresholdFollowsStoreTimeout(t *testing.T) {
	l, _ := newBufferedGormLogger(&config.Config{Storage: &config.StorageConfig{Timeout: 100 * time.Millisecond}})
	assert.Equal(t, 50*time.Millisecond, l.slowThreshold)

	l, _ = newBufferedGormLogger(nil)
	assert.Equal(t, defaultGormSlowThreshold, l.slowThreshold)
}

func TestGormSlogLogger_Trace(t *testing.T) {
	sqlFn := func() (string, int64) { return "SELECT * FROM users WHERE email = ?", 1 }

	l, buf := newBufferedGormLogger(&config.Config{})
	l.Trace(context.Background(), time.Now(), sqlFn, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), time.Now(), sqlFn, assert.AnError)
	assert.Contains(t, buf.String(), "Store query failed")
	assert.Contains(t, buf.String(), "email = ?")

	buf.Reset()
	l.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn, nil)
	assert.Contains(t, buf.String(), "Store query slow")
}

func TestGormSlogLogger_ParamsFilterDropsValues(t *testing.T) {
	l, _ := newBufferedGormLogger(nil)

	sql, params := l.ParamsFilter(context.Background(), "INSERT INTO users (password) VALUES (?)", "$2a$12$secret")
	assert.Equal(t, "INSERT INTO users (password) VALUES (?)", sql)
	assert.Nil(t, params)
}
