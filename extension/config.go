package extension

import "time"

// Config holds the Label extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.label" or "label" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start. The engine is then
	// left unstarted and journals every sale synchronously.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BoltPath opens a bbolt store at this path when no store was provided
	// programmatically. Empty means an in-memory store.
	BoltPath string `json:"bolt_path" mapstructure:"bolt_path" yaml:"bolt_path"`

	// JournalBatchSize is the number of sales to buffer before flushing
	// to the store (default: 100).
	JournalBatchSize int `json:"journal_batch_size" mapstructure:"journal_batch_size" yaml:"journal_batch_size"`

	// JournalFlushInterval is how frequently the sale buffer is flushed
	// even if the batch size has not been reached (default: 5s).
	JournalFlushInterval time.Duration `json:"journal_flush_interval" mapstructure:"journal_flush_interval" yaml:"journal_flush_interval"`

	// JournalBuffer is the capacity of the in-process sale buffer
	// (default: 10000).
	JournalBuffer int `json:"journal_buffer" mapstructure:"journal_buffer" yaml:"journal_buffer"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		JournalBatchSize:     100,
		JournalFlushInterval: 5 * time.Second,
		JournalBuffer:        10000,
	}
}
