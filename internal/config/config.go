package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "RETRONOTE"

type Config struct {
	Storage Storage `mapstructure:"storage"`
	Redis   Redis   `mapstructure:"redis"`
	Editor  Editor  `mapstructure:"editor"`
	Log     Log     `mapstructure:"log"`
}

type Storage struct {
	Backend     string `mapstructure:"backend"`
	Path        string `mapstructure:"path"`
	Compression bool   `mapstructure:"compression"`
	Encryption  bool   `mapstructure:"encryption"`
	Password    string `mapstructure:"password"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type Editor struct {
	AutosaveDelay time.Duration `mapstructure:"autosave_delay"`
	InsertGuard   time.Duration `mapstructure:"insert_guard"`
	DefaultTheme  string        `mapstructure:"default_theme"`
	FocusMode     bool          `mapstructure:"focus_mode"`
	StatusHold    time.Duration `mapstructure:"status_hold"`
}

type Log struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.path", defaultNotePath())
	v.SetDefault("storage.compression", true)
	v.SetDefault("storage.encryption", false)
	v.SetDefault("storage.password", "")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "retro-notes:")

	v.SetDefault("editor.autosave_delay", 900*time.Millisecond)
	v.SetDefault("editor.insert_guard", 100*time.Millisecond)
	v.SetDefault("editor.default_theme", "cyber-purple")
	v.SetDefault("editor.focus_mode", false)
	v.SetDefault("editor.status_hold", 900*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads path (YAML) with RETRONOTE_* environment overrides on top of
// the defaults. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}
	if c.Storage.Backend == BackendFile && strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("%w: storage.path is required for the file backend", ErrInvalidConfig)
	}
	if c.Storage.Encryption && strings.TrimSpace(c.Storage.Password) == "" {
		return fmt.Errorf("%w: storage.password is required when encryption is on", ErrInvalidConfig)
	}
	if c.Editor.AutosaveDelay <= 0 {
		return fmt.Errorf("%w: editor.autosave_delay must be positive", ErrInvalidConfig)
	}
	if c.Editor.InsertGuard < 0 || c.Editor.StatusHold < 0 {
		return fmt.Errorf("%w: negative editor duration", ErrInvalidConfig)
	}
	return nil
}

func defaultNotePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "retronote.rnote"
	}
	return filepath.Join(dir, "retronote", "note.rnote")
}
