package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, scenarioPath string) config {
	t.Helper()
	return config{
		Store:       storeMemory,
		Scenario:    scenarioPath,
		LogLevel:    "error",
		StepTimeout: time.Second,
		FlushEvery:  time.Second,
	}
}

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRunDemoScenario(t *testing.T) {
	for _, kind := range []string{storeMemory, storeBolt, storeSQLite} {
		t.Run(kind, func(t *testing.T) {
			cfg := testConfig(t, filepath.Join("testdata", "demo.toml"))
			cfg.Store = kind
			cfg.BoltPath = filepath.Join(t.TempDir(), "label.db")
			cfg.SQLitePath = filepath.Join(t.TempDir(), "label.sqlite")

			var out bytes.Buffer
			require.NoError(t, run(context.Background(), cfg, &out, nil))

			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			require.Len(t, lines, 13)
			assert.Equal(t, `step 1 register: ok, artist 1 "Alice" owned by 0xalice`, lines[0])
			assert.Contains(t, lines[1], "owned by artist_address")
			assert.Equal(t, "step 4 release: not_found as expected", lines[3])
			assert.Equal(t, "step 6 invest: ok, 0xfan has 75 in artist 1", lines[5])
			assert.Equal(t, "step 9 distribute: ok, paid 40 to artist 1", lines[8])
			assert.Equal(t, "step 10 distribute: unauthorized as expected", lines[9])
		})
	}
}

func TestRunReportsMismatches(t *testing.T) {
	path := writeScenario(t, `
[[step]]
op   = "distribute"
song = 1

[[step]]
op   = "register"
name = "Alice"
`)

	var out bytes.Buffer
	err := run(context.Background(), testConfig(t, path), &out, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 steps")
	assert.Contains(t, out.String(), "step 1 distribute: got unauthorized, want ok")
}

func TestRunAbortsOnUnknownOp(t *testing.T) {
	path := writeScenario(t, `
[[step]]
op = "refund"

[[step]]
op   = "register"
name = "never"
`)

	var out bytes.Buffer
	err := run(context.Background(), testConfig(t, path), &out, nil)
	require.ErrorIs(t, err, errUnknownOp)
	assert.Empty(t, out.String())
}

func TestLoadScenarioRejectsUnknownKeys(t *testing.T) {
	path := writeScenario(t, `
[[step]]
op    = "register"
nmae  = "typo"
`)

	_, err := loadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nmae")
}

func TestRunRequiresScenario(t *testing.T) {
	err := run(context.Background(), config{Store: storeMemory, LogLevel: "info"}, nil, nil)
	assert.EqualError(t, err, "scenario path is required")
}
