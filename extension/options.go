package extension

import (
	"time"

	"github.com/xraph/label"
	"github.com/xraph/label/plugin"
	"github.com/xraph/label/store"
)

// Option configures the Label Forge extension.
type Option func(*Extension)

// WithStore sets the store for the label engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithLabelOption passes a label.Option through to the underlying engine.
func WithLabelOption(opt label.Option) Option {
	return func(e *Extension) {
		e.labelOpts = append(e.labelOpts, opt)
	}
}

// WithPlugin registers a label plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.labelOpts = append(e.labelOpts, label.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBoltPath backs the engine with a bbolt file when no store is set.
func WithBoltPath(path string) Option {
	return func(e *Extension) { e.config.BoltPath = path }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithJournalBatchSize sets the number of sales to buffer before flushing.
func WithJournalBatchSize(size int) Option {
	return func(e *Extension) { e.config.JournalBatchSize = size }
}

// WithJournalFlushInterval sets how frequently the sale buffer is flushed.
func WithJournalFlushInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.JournalFlushInterval = d }
}

// WithJournalBuffer sets the capacity of the sale buffer.
func WithJournalBuffer(n int) Option {
	return func(e *Extension) { e.config.JournalBuffer = n }
}
