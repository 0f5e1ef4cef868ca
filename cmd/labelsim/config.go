package main

import (
	"flag"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store kinds accepted by LABEL_STORE.
const (
	storeMemory = "memory"
	storeBolt   = "bolt"
	storeSQLite = "sqlite"
)

// config holds labelsim configuration. Flags override the environment.
type config struct {
	Store       string        `env:"LABEL_STORE"        envDefault:"memory"`
	BoltPath    string        `env:"LABEL_BOLT_PATH"    envDefault:"label.db"`
	SQLitePath  string        `env:"LABEL_SQLITE_PATH"  envDefault:"label.sqlite"`
	Scenario    string        `env:"LABEL_SCENARIO"`
	MetricsAddr string        `env:"LABEL_METRICS_ADDR"`
	LogLevel    string        `env:"LABEL_LOG_LEVEL"    envDefault:"info"`
	StepTimeout time.Duration `env:"LABEL_STEP_TIMEOUT" envDefault:"10s"`
	FlushEvery  time.Duration `env:"LABEL_FLUSH_EVERY"  envDefault:"5s"`
}

func parseConfig(fs *flag.FlagSet, args []string) (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.Store, "store", cfg.Store, "store backend: memory, bolt or sqlite")
	fs.StringVar(&cfg.BoltPath, "bolt-path", cfg.BoltPath, "bbolt file used by the bolt store")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "database file used by the sqlite store")
	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to a TOML scenario file")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address and wait for a signal")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.DurationVar(&cfg.StepTimeout, "timeout", cfg.StepTimeout, "timeout per step")
	fs.DurationVar(&cfg.FlushEvery, "flush-every", cfg.FlushEvery, "sale journal flush interval")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	switch cfg.Store {
	case storeMemory, storeBolt, storeSQLite:
	default:
		return config{}, fmt.Errorf("unknown store %q", cfg.Store)
	}
	return cfg, nil
}

func (c config) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return lvl, nil
}
