package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Flyrell/logbook/internal/attendance"
	"github.com/Flyrell/logbook/internal/week"
)

// ErrUnknownKey is returned by Get and Set for keys that don't exist.
var ErrUnknownKey = errors.New("unknown config key")

// Backend names accepted in the "backend" key.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the local client configuration stored in ~/.logbook/config.json.
type Config struct {
	User           string `json:"user"`
	Backend        string `json:"backend"`
	SQLitePath     string `json:"sqlite_path,omitempty"`
	RedisAddr      string `json:"redis_addr,omitempty"`
	RedisPassword  string `json:"redis_password,omitempty"`
	RedisDB        int    `json:"redis_db,omitempty"`
	TotalWeeks     int    `json:"total_weeks"`
	ActivityPolicy string `json:"activity_policy"`
}

// Dir returns the global logbook directory.
func Dir(homeDir string) string {
	return filepath.Join(homeDir, ".logbook")
}

// Path returns the path to config.json.
func Path(homeDir string) string {
	return filepath.Join(Dir(homeDir), "config.json")
}

// Default returns the configuration used when no file exists.
func Default(homeDir string) Config {
	return Config{
		User:           "local",
		Backend:        BackendFile,
		SQLitePath:     filepath.Join(Dir(homeDir), "logbook.db"),
		RedisAddr:      "localhost:6379",
		TotalWeeks:     week.DefaultTotalWeeks,
		ActivityPolicy: string(attendance.DefaultActivityPolicy),
	}
}

// Read loads the configuration, filling unset fields with defaults and
// applying LOGBOOK_* environment overrides. A missing file is not an error.
func Read(homeDir string) (Config, error) {
	cfg, err := ReadFile(homeDir)
	if err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// ReadFile loads the configuration file with defaults but without
// environment overrides, for editing and writing back.
func ReadFile(homeDir string) (Config, error) {
	cfg := Default(homeDir)

	data, err := os.ReadFile(Path(homeDir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	fillDefaults(&cfg, homeDir)
	return cfg, nil
}

// Write saves the configuration, creating the directory if needed.
func Write(homeDir string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(Dir(homeDir), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(Path(homeDir), data, 0644)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LOGBOOK_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("LOGBOOK_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("LOGBOOK_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
}

func fillDefaults(cfg *Config, homeDir string) {
	def := Default(homeDir)
	if cfg.Backend == "" {
		cfg.Backend = def.Backend
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = def.SQLitePath
	}
	if cfg.TotalWeeks == 0 {
		cfg.TotalWeeks = def.TotalWeeks
	}
	if cfg.ActivityPolicy == "" {
		cfg.ActivityPolicy = def.ActivityPolicy
	}
}

// Validate checks field values.
func (c Config) Validate() error {
	if strings.TrimSpace(c.User) == "" {
		return fmt.Errorf("user must not be empty")
	}
	switch c.Backend {
	case BackendMemory, BackendFile, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("unknown backend %q (expected memory, file, sqlite or redis)", c.Backend)
	}
	if c.TotalWeeks < 1 {
		return fmt.Errorf("total_weeks must be positive, got %d", c.TotalWeeks)
	}
	if _, err := attendance.ParseActivityPolicy(c.ActivityPolicy); err != nil {
		return err
	}
	return nil
}

// Policy returns the parsed activity policy.
func (c Config) Policy() attendance.ActivityPolicy {
	p, err := attendance.ParseActivityPolicy(c.ActivityPolicy)
	if err != nil {
		return attendance.DefaultActivityPolicy
	}
	return p
}

// field binds a config key to its accessors.
type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

var fields = map[string]field{
	"user": {
		get: func(c *Config) string { return c.User },
		set: func(c *Config, v string) error { c.User = v; return nil },
	},
	"backend": {
		get: func(c *Config) string { return c.Backend },
		set: func(c *Config, v string) error { c.Backend = strings.ToLower(v); return nil },
	},
	"sqlite_path": {
		get: func(c *Config) string { return c.SQLitePath },
		set: func(c *Config, v string) error { c.SQLitePath = v; return nil },
	},
	"redis_addr": {
		get: func(c *Config) string { return c.RedisAddr },
		set: func(c *Config, v string) error { c.RedisAddr = v; return nil },
	},
	"redis_password": {
		get: func(c *Config) string { return c.RedisPassword },
		set: func(c *Config, v string) error { c.RedisPassword = v; return nil },
	},
	"redis_db": {
		get: func(c *Config) string { return strconv.Itoa(c.RedisDB) },
		set: func(c *Config, v string) error { return setInt(&c.RedisDB, v) },
	},
	"total_weeks": {
		get: func(c *Config) string { return strconv.Itoa(c.TotalWeeks) },
		set: func(c *Config, v string) error { return setInt(&c.TotalWeeks, v) },
	},
	"activity_policy": {
		get: func(c *Config) string { return c.ActivityPolicy },
		set: func(c *Config, v string) error {
			p, err := attendance.ParseActivityPolicy(v)
			if err != nil {
				return err
			}
			c.ActivityPolicy = string(p)
			return nil
		},
	},
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("expected a number, got %q", v)
	}
	*dst = n
	return nil
}

// Keys lists the configurable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the string value of key.
func (c Config) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w '%s'", ErrUnknownKey, key)
	}
	return f.get(&c), nil
}

// Set updates key and validates the result.
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w '%s'", ErrUnknownKey, key)
	}
	next := *c
	if err := f.set(&next, value); err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
