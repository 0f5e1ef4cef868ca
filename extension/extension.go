// Package extension provides the Forge extension adapter for Label.
//
// It implements the forge.Extension interface to integrate Label
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.label" or "label" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/label"
	"github.com/xraph/label/store"
	"github.com/xraph/label/store/bolt"
	"github.com/xraph/label/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "label"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Music label ledger: artists, songs, investments and royalties"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Label as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config    Config
	engine    *label.Label
	store     store.Store
	labelOpts []label.Option
}

// New creates a new Label Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Label instance.
// This is nil until Register is called.
func (e *Extension) Engine() *label.Label { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the label engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		s, err := e.openStore()
		if err != nil {
			return err
		}
		e.store = s
	}

	opts := e.buildLabelOpts()

	eng := label.New(e.store, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*label.Label, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("label: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("label: store not initialized")
	}
	return e.store.Ping(ctx)
}

// openStore picks the store from config: bbolt when BoltPath is set,
// otherwise in-memory.
func (e *Extension) openStore() (store.Store, error) {
	if e.config.BoltPath == "" {
		return memory.New(), nil
	}
	s, err := bolt.Open(e.config.BoltPath)
	if err != nil {
		return nil, fmt.Errorf("label: open bolt store: %w", err)
	}
	return s, nil
}

// buildLabelOpts constructs label.Option values from the resolved config.
func (e *Extension) buildLabelOpts() []label.Option {
	opts := make([]label.Option, 0, len(e.labelOpts)+3)

	if e.config.JournalBatchSize > 0 || e.config.JournalFlushInterval > 0 {
		batchSize := e.config.JournalBatchSize
		flushInterval := e.config.JournalFlushInterval
		defaults := DefaultConfig()
		if batchSize == 0 {
			batchSize = defaults.JournalBatchSize
		}
		if flushInterval == 0 {
			flushInterval = defaults.JournalFlushInterval
		}
		opts = append(opts, label.WithJournalConfig(batchSize, flushInterval))
	}

	if e.config.JournalBuffer > 0 {
		opts = append(opts, label.WithJournalBuffer(e.config.JournalBuffer))
	}

	// Append any pass-through label options.
	opts = append(opts, e.labelOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("label: configuration is required but not found in config files; " +
				"ensure 'extensions.label' or 'label' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("label: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("bolt_path", e.config.BoltPath),
		forge.F("journal_batch_size", e.config.JournalBatchSize),
		forge.F("journal_flush_interval", e.config.JournalFlushInterval),
		forge.F("journal_buffer", e.config.JournalBuffer),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.label", "label"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("label: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("label: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.JournalBatchSize == 0 {
		cfg.JournalBatchSize = defaults.JournalBatchSize
	}
	if cfg.JournalFlushInterval == 0 {
		cfg.JournalFlushInterval = defaults.JournalFlushInterval
	}
	if cfg.JournalBuffer == 0 {
		cfg.JournalBuffer = defaults.JournalBuffer
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.BoltPath == "" && programmaticConfig.BoltPath != "" {
		yamlConfig.BoltPath = programmaticConfig.BoltPath
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.JournalBatchSize == 0 && programmaticConfig.JournalBatchSize != 0 {
		yamlConfig.JournalBatchSize = programmaticConfig.JournalBatchSize
	}
	if yamlConfig.JournalFlushInterval == 0 && programmaticConfig.JournalFlushInterval != 0 {
		yamlConfig.JournalFlushInterval = programmaticConfig.JournalFlushInterval
	}
	if yamlConfig.JournalBuffer == 0 && programmaticConfig.JournalBuffer != 0 {
		yamlConfig.JournalBuffer = programmaticConfig.JournalBuffer
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
