// Package config loads runtime settings from an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"sitebuilder/internal/storage"
)

type Config struct {
	DataDir string  `yaml:"data_dir"`
	Storage Storage `yaml:"storage"`
	Draft   Draft   `yaml:"draft"`
	History History `yaml:"history"`
	Log     Log     `yaml:"log"`
}

type Storage struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
}

type Draft struct {
	Path          string `yaml:"path"`
	FlushSchedule string `yaml:"flush_schedule"`
	Watch         bool   `yaml:"watch"`
}

type History struct {
	Limit int `yaml:"limit"`
}

type Log struct {
	Mode string `yaml:"mode"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir: filepath.Join(home, ".local", "share", "sitebuilder"),
		Storage: Storage{Driver: string(storage.DriverSQLite)},
		Draft:   Draft{FlushSchedule: "@every 2s", Watch: true},
		History: History{Limit: 50},
		Log:     Log{Mode: "dev"},
	}
}

// Load reads path (skipped when empty or missing) over the defaults, then
// applies SITEBUILDER_* environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	cfg.fillPaths()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.DataDir = envString("SITEBUILDER_DATA_DIR", c.DataDir)
	c.Storage.Driver = envString("SITEBUILDER_DB_DRIVER", c.Storage.Driver)
	c.Storage.DSN = envString("SITEBUILDER_DB_DSN", c.Storage.DSN)
	c.Storage.Password = envString("SITEBUILDER_DB_PASSWORD", c.Storage.Password)
	c.Log.Mode = envString("SITEBUILDER_LOG_MODE", c.Log.Mode)
	c.History.Limit = envInt("SITEBUILDER_HISTORY_LIMIT", c.History.Limit)
	c.Draft.FlushSchedule = envString("SITEBUILDER_DRAFT_SCHEDULE", c.Draft.FlushSchedule)
}

// fillPaths derives file locations left empty from DataDir.
func (c *Config) fillPaths() {
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "sitebuilder.db")
	}
	if c.Draft.Path == "" {
		c.Draft.Path = filepath.Join(c.DataDir, "draft.json")
	}
}

func (c Config) Validate() error {
	if !storage.Driver(c.Storage.Driver).Valid() {
		return fmt.Errorf("invalid storage driver %q", c.Storage.Driver)
	}
	if c.History.Limit < 1 {
		return fmt.Errorf("invalid history limit %d: must be at least 1", c.History.Limit)
	}
	if _, err := cron.ParseStandard(c.Draft.FlushSchedule); err != nil {
		return fmt.Errorf("invalid draft flush schedule %q: %w", c.Draft.FlushSchedule, err)
	}
	switch c.Log.Mode {
	case "dev", "development", "prod", "production":
	default:
		return fmt.Errorf("invalid log mode %q", c.Log.Mode)
	}
	return nil
}

// StorageOptions converts the storage section for storage.Open.
func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		Driver:   storage.Driver(c.Storage.Driver),
		DSN:      c.Storage.DSN,
		Path:     c.Storage.Path,
		Host:     c.Storage.Host,
		Port:     c.Storage.Port,
		Database: c.Storage.Database,
		Username: c.Storage.Username,
		Password: c.Storage.Password,
		SSLMode:  c.Storage.SSLMode,
	}
}

func envString(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func envInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
