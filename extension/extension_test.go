package extension

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/label/store/bolt"
	"github.com/xraph/label/store/memory"
)

func TestNewAppliesOptions(t *testing.T) {
	e := New(
		WithDisableMigrate(),
		WithJournalBatchSize(10),
		WithJournalFlushInterval(time.Second),
		WithJournalBuffer(64),
		WithBoltPath("/tmp/label.db"),
	)

	assert.Equal(t, ExtensionName, e.Name())
	assert.True(t, e.config.DisableMigrate)
	assert.Equal(t, 10, e.config.JournalBatchSize)
	assert.Equal(t, time.Second, e.config.JournalFlushInterval)
	assert.Equal(t, 64, e.config.JournalBuffer)
	assert.Equal(t, "/tmp/label.db", e.config.BoltPath)
}

func TestMergeWithDefaults(t *testing.T) {
	e := New()
	cfg := e.mergeWithDefaults(Config{JournalBatchSize: 7})

	assert.Equal(t, 7, cfg.JournalBatchSize)
	assert.Equal(t, DefaultConfig().JournalFlushInterval, cfg.JournalFlushInterval)
	assert.Equal(t, DefaultConfig().JournalBuffer, cfg.JournalBuffer)
}

func TestMergeConfigurationsPrefersFile(t *testing.T) {
	e := New()
	file := Config{JournalBatchSize: 50}
	prog := Config{JournalBatchSize: 5, JournalBuffer: 32, DisableMigrate: true, BoltPath: "prog.db"}

	cfg := e.mergeConfigurations(file, prog)

	assert.Equal(t, 50, cfg.JournalBatchSize)
	assert.Equal(t, 32, cfg.JournalBuffer)
	assert.True(t, cfg.DisableMigrate)
	assert.Equal(t, "prog.db", cfg.BoltPath)
	assert.Equal(t, DefaultConfig().JournalFlushInterval, cfg.JournalFlushInterval)
}

func TestOpenStore(t *testing.T) {
	t.Run("memory by default", func(t *testing.T) {
		s, err := New().openStore()
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, s)
	})

	t.Run("bolt when a path is set", func(t *testing.T) {
		e := New(WithBoltPath(filepath.Join(t.TempDir(), "label.db")))
		s, err := e.openStore()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		assert.IsType(t, &bolt.Store{}, s)
	})
}

func TestBuildLabelOpts(t *testing.T) {
	e := New(WithJournalBuffer(8))
	e.config = e.mergeWithDefaults(e.config)

	// journal config, journal buffer
	assert.Len(t, e.buildLabelOpts(), 2)
}
