package main

import (
	"flag"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("labelsim", flag.ContinueOnError)

	cfg, err := parseConfig(fs, nil)
	require.NoError(t, err)
	assert.Equal(t, storeMemory, cfg.Store)
	assert.Equal(t, "label.db", cfg.BoltPath)
	assert.Equal(t, 10*time.Second, cfg.StepTimeout)

	lvl, err := cfg.level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	t.Setenv("LABEL_STORE", "bolt")
	t.Setenv("LABEL_LOG_LEVEL", "debug")
	fs := flag.NewFlagSet("labelsim", flag.ContinueOnError)

	cfg, err := parseConfig(fs, []string{"-scenario", "demo.toml", "-bolt-path", "/tmp/x.db"})
	require.NoError(t, err)
	assert.Equal(t, storeBolt, cfg.Store)
	assert.Equal(t, "demo.toml", cfg.Scenario)
	assert.Equal(t, "/tmp/x.db", cfg.BoltPath)

	lvl, err := cfg.level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestParseConfigSQLite(t *testing.T) {
	t.Setenv("LABEL_SQLITE_PATH", "/tmp/env.sqlite")
	fs := flag.NewFlagSet("labelsim", flag.ContinueOnError)

	cfg, err := parseConfig(fs, []string{"-store", "sqlite"})
	require.NoError(t, err)
	assert.Equal(t, storeSQLite, cfg.Store)
	assert.Equal(t, "/tmp/env.sqlite", cfg.SQLitePath)
}

func TestParseConfigRejectsUnknownStore(t *testing.T) {
	fs := flag.NewFlagSet("labelsim", flag.ContinueOnError)
	_, err := parseConfig(fs, []string{"-store", "redis"})
	assert.Error(t, err)
}
