// Package config holds the runtime configuration for the memory-bank server.
//
// Every component receives the slice of Config it needs through its
// constructor. Nothing reads the environment or the working directory
// behind the caller's back.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/HendryAvila/memory-bank/internal/profiler"
)

// Config is the root configuration document.
type Config struct {
	Bank       BankConfig       `koanf:"bank"`
	Redundancy RedundancyConfig `koanf:"redundancy"`
	Profiler   ProfilerConfig   `koanf:"profiler"`
	Journal    JournalConfig    `koanf:"journal"`
	Log        LogConfig        `koanf:"log"`
	Metrics    MetricsConfig    `koanf:"metrics"`
}

// BankConfig locates the memory-bank directory.
type BankConfig struct {
	// Root is the memory-bank directory. Relative paths resolve against
	// the working directory of the server process.
	Root string `koanf:"root"`
	// Contributor overrides the contributor id stamped into generated files.
	Contributor string `koanf:"contributor"`
}

// RedundancyConfig tunes the near-duplicate detector.
type RedundancyConfig struct {
	Threshold float64       `koanf:"threshold"`
	MinTokens int           `koanf:"min_tokens"`
	IndexTTL  time.Duration `koanf:"index_ttl"`
	Watch     bool          `koanf:"watch"`
}

// ProfilerConfig lists the tools counted as memory-bank maintenance.
type ProfilerConfig struct {
	MemoryTools []string `koanf:"memory_tools"`
}

// JournalConfig controls the persistent activity journal.
type JournalConfig struct {
	Enabled bool   `koanf:"enabled"`
	DataDir string `koanf:"data_dir"`
}

// LogConfig selects log level, encoding and the optional file sink.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	File   string `koanf:"file"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is non-empty.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// defaultYAML is loaded before any file or environment override so that
// booleans and lists have real defaults instead of zero values.
const defaultYAML = `
bank:
  root: memory-bank
  contributor: ""
redundancy:
  threshold: 0.3
  min_tokens: 10
  index_ttl: 10m
  watch: true
journal:
  enabled: true
  data_dir: ""
log:
  level: info
  format: console
  file: ""
metrics:
  addr: ""
`

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Bank: BankConfig{Root: "memory-bank"},
		Redundancy: RedundancyConfig{
			Threshold: 0.3,
			MinTokens: 10,
			IndexTTL:  10 * time.Minute,
			Watch:     true,
		},
		Profiler: ProfilerConfig{MemoryTools: slices.Clone(profiler.DefaultMemoryTools)},
		Journal:  JournalConfig{Enabled: true, DataDir: defaultDataDir()},
		Log:      LogConfig{Level: "info", Format: "console"},
	}
}

// applyDefaults fills fields that depend on the environment and cannot be
// expressed in defaultYAML.
func applyDefaults(cfg *Config) {
	if cfg.Bank.Root == "" {
		cfg.Bank.Root = "memory-bank"
	}
	if cfg.Journal.DataDir == "" {
		cfg.Journal.DataDir = defaultDataDir()
	}
	if len(cfg.Profiler.MemoryTools) == 0 {
		cfg.Profiler.MemoryTools = slices.Clone(profiler.DefaultMemoryTools)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".memory-bank"
	}
	return filepath.Join(home, ".memory-bank")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Bank.Root) == "" {
		return errors.New("bank.root must not be empty")
	}
	if c.Redundancy.Threshold <= 0 || c.Redundancy.Threshold > 1 {
		return fmt.Errorf("redundancy.threshold must be in (0, 1], got %v", c.Redundancy.Threshold)
	}
	if c.Redundancy.MinTokens < 1 {
		return fmt.Errorf("redundancy.min_tokens must be at least 1, got %d", c.Redundancy.MinTokens)
	}
	if c.Redundancy.IndexTTL < 0 {
		return fmt.Errorf("redundancy.index_ttl must not be negative, got %s", c.Redundancy.IndexTTL)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// LogFile returns the resolved log file path. An empty log.file places the
// log inside the memory bank as Logs.log; the value "-" disables the file.
func (c *Config) LogFile() string {
	switch c.Log.File {
	case "-":
		return ""
	case "":
		return filepath.Join(c.Bank.Root, "Logs.log")
	default:
		return c.Log.File
	}
}
