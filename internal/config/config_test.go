package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/memory-bank/internal/profiler"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "memory-bank", cfg.Bank.Root)
	assert.Equal(t, 0.3, cfg.Redundancy.Threshold)
	assert.Equal(t, 10, cfg.Redundancy.MinTokens)
	assert.Equal(t, 10*time.Minute, cfg.Redundancy.IndexTTL)
	assert.True(t, cfg.Redundancy.Watch)
	assert.True(t, cfg.Journal.Enabled)
	assert.NotEmpty(t, cfg.Journal.DataDir)
	assert.Equal(t, profiler.DefaultMemoryTools, cfg.Profiler.MemoryTools)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
bank:
  root: docs/memory
  contributor: alice
redundancy:
  threshold: 0.5
  index_ttl: 2m
  watch: false
profiler:
  memory_tools: [update_memory_bank_file]
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "docs/memory", cfg.Bank.Root)
	assert.Equal(t, "alice", cfg.Bank.Contributor)
	assert.Equal(t, 0.5, cfg.Redundancy.Threshold)
	assert.Equal(t, 10, cfg.Redundancy.MinTokens, "unset keys keep their default")
	assert.Equal(t, 2*time.Minute, cfg.Redundancy.IndexTTL)
	assert.False(t, cfg.Redundancy.Watch)
	assert.Equal(t, []string{"update_memory_bank_file"}, cfg.Profiler.MemoryTools)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "bank:\n  root: from-file\n")
	t.Setenv("MEMBANK_BANK_ROOT", "from-env")
	t.Setenv("MEMBANK_REDUNDANCY_MIN_TOKENS", "25")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Bank.Root)
	assert.Equal(t, 25, cfg.Redundancy.MinTokens)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "bank: [unterminated")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsInvalidThreshold(t *testing.T) {
	path := writeConfig(t, "redundancy:\n  threshold: 1.5\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redundancy.threshold")
}

func TestLoad_RejectsDirectory(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"MEMBANK_BANK_ROOT":             "bank.root",
		"MEMBANK_REDUNDANCY_MIN_TOKENS": "redundancy.min_tokens",
		"MEMBANK_JOURNAL_DATA_DIR":      "journal.data_dir",
		"MEMBANK_DEBUG":                 "debug",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty root", func(c *Config) { c.Bank.Root = " " }, true},
		{"zero threshold", func(c *Config) { c.Redundancy.Threshold = 0 }, true},
		{"threshold one", func(c *Config) { c.Redundancy.Threshold = 1 }, false},
		{"negative tokens", func(c *Config) { c.Redundancy.MinTokens = -1 }, true},
		{"zero tokens", func(c *Config) { c.Redundancy.MinTokens = 0 }, true},
		{"one token", func(c *Config) { c.Redundancy.MinTokens = 1 }, false},
		{"negative ttl", func(c *Config) { c.Redundancy.IndexTTL = -time.Second }, true},
		{"bad level", func(c *Config) { c.Log.Level = "verbose" }, true},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLogFile(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join("memory-bank", "Logs.log"), cfg.LogFile())

	cfg.Log.File = "-"
	assert.Empty(t, cfg.LogFile())

	cfg.Log.File = "/var/log/mb.log"
	assert.Equal(t, "/var/log/mb.log", cfg.LogFile())
}
