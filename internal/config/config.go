// Package config loads runtime settings from .env, an optional YAML file and
// the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = ".todoline.yaml"
	DefaultTaskFile   = "todo.md"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	File            string       `yaml:"file"`
	DefaultPriority string       `yaml:"default_priority"`
	TabSize         int          `yaml:"tab_size"`
	State           StateConfig  `yaml:"state"`
	Watch           WatchConfig  `yaml:"watch"`
	Logger          LoggerConfig `yaml:"logger"`
}

type StateConfig struct {
	// Backend is one of "json", "bolt" or "memory".
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type WatchConfig struct {
	PollInterval     time.Duration `yaml:"poll_interval"`
	RolloverSchedule string        `yaml:"rollover_schedule"`
	AutoRollover     bool          `yaml:"auto_rollover"`
}

type LoggerConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		File:            DefaultTaskFile,
		DefaultPriority: "Z",
		TabSize:         4,
		State: StateConfig{
			Backend: "json",
			Path:    defaultStatePath(),
		},
		Watch: WatchConfig{
			PollInterval:     2 * time.Second,
			RolloverSchedule: "@daily",
			AutoRollover:     true,
		},
		Logger: LoggerConfig{
			Level:    "warn",
			Encoding: "console",
		},
	}
}

// Load reads configuration from environment variables (optionally .env), on
// top of the YAML file named by TODOLINE_CONFIG.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := Defaults()
	path := getString("TODOLINE_CONFIG", DefaultConfigFile)
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// mergeFile overlays the YAML file on cfg. A missing file is not an error.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.File = getString("TODOLINE_FILE", c.File)
	c.DefaultPriority = getString("TODOLINE_DEFAULT_PRIORITY", c.DefaultPriority)
	c.TabSize = getInt("TODOLINE_TAB_SIZE", c.TabSize)
	c.State.Backend = getString("TODOLINE_STATE_BACKEND", c.State.Backend)
	c.State.Path = getString("TODOLINE_STATE_PATH", c.State.Path)
	c.Watch.PollInterval = getDuration("TODOLINE_POLL_INTERVAL", c.Watch.PollInterval)
	c.Watch.RolloverSchedule = getString("TODOLINE_ROLLOVER_SCHEDULE", c.Watch.RolloverSchedule)
	c.Watch.AutoRollover = getBool("TODOLINE_AUTO_ROLLOVER", c.Watch.AutoRollover)
	c.Logger.Level = getString("LOG_LEVEL", c.Logger.Level)
	c.Logger.Encoding = getString("LOG_ENCODING", c.Logger.Encoding)
}

// Validate rejects settings the parser and stores cannot work with.
func (c *Config) Validate() error {
	if len(c.DefaultPriority) != 1 || c.DefaultPriority[0] < 'A' || c.DefaultPriority[0] > 'Z' {
		return fmt.Errorf("default priority %q must be a single letter A-Z", c.DefaultPriority)
	}
	if c.TabSize <= 0 {
		return fmt.Errorf("tab size must be positive, got %d", c.TabSize)
	}
	switch c.State.Backend {
	case "json", "bolt", "memory":
	default:
		return fmt.Errorf("unknown state backend %q", c.State.Backend)
	}
	if c.Watch.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Watch.PollInterval)
	}
	return nil
}

// Priority returns the default priority letter.
func (c *Config) Priority() byte {
	return c.DefaultPriority[0]
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".todoline-state.json"
	}
	return dir + string(os.PathSeparator) + "todoline" + string(os.PathSeparator) + "state.json"
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
