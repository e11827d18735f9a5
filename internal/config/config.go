// Package config loads studyplan settings from defaults, an optional YAML
// file, a .env file and STUDYPLAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "STUDYPLAN"

// Sync backends.
const (
	BackendHTTP  = "http"
	BackendRedis = "redis"
	BackendNone  = "none"
)

type Config struct {
	DataDir string        `mapstructure:"data_dir"`
	DB      string        `mapstructure:"db"`
	Content ContentConfig `mapstructure:"content"`
	Quiz    QuizConfig    `mapstructure:"quiz"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Log     LogConfig     `mapstructure:"log"`
	Serve   ServeConfig   `mapstructure:"serve"`

	// ConfigFile is the file actually read, empty when none was found.
	ConfigFile string `mapstructure:"-"`
}

type ContentConfig struct {
	Users string `mapstructure:"users"`
	Dir   string `mapstructure:"dir"`
}

type QuizConfig struct {
	AllowManualToggle bool `mapstructure:"allow_manual_toggle"`
}

type SyncConfig struct {
	Backend       string        `mapstructure:"backend"`
	BaseURL       string        `mapstructure:"base_url"`
	AccessKey     string        `mapstructure:"access_key"`
	MasterKey     string        `mapstructure:"master_key"`
	RedisURL      string        `mapstructure:"redis_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Debounce      time.Duration `mapstructure:"debounce"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	MaxRetries    int           `mapstructure:"max_retries"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// Options carries command-line overrides.
type Options struct {
	// ConfigFile is an explicit config path. When empty, studyplan.yaml is
	// looked up in the data directory and the working directory.
	ConfigFile string

	// EnvFile is loaded before reading the environment. Defaults to ".env".
	EnvFile string

	// DB overrides the database path.
	DB string
}

var envKeys = []string{
	"data_dir",
	"db",
	"content.users",
	"content.dir",
	"quiz.allow_manual_toggle",
	"sync.backend",
	"sync.base_url",
	"sync.access_key",
	"sync.master_key",
	"sync.redis_url",
	"sync.timeout",
	"sync.debounce",
	"sync.rate_per_second",
	"sync.max_retries",
	"log.level",
	"log.file",
	"serve.addr",
}

// DefaultDataDir returns $XDG_DATA_HOME/studyplan, falling back to
// ~/.local/share/studyplan.
func DefaultDataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "studyplan"), nil
}

func setDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault("data_dir", dataDir)
	v.SetDefault("content.dir", "data")
	v.SetDefault("quiz.allow_manual_toggle", true)
	v.SetDefault("sync.backend", BackendHTTP)
	v.SetDefault("sync.base_url", "https://api.jsonbin.io")
	v.SetDefault("sync.redis_url", "redis://localhost:6379/0")
	v.SetDefault("sync.timeout", 15*time.Second)
	v.SetDefault("sync.debounce", 2*time.Second)
	v.SetDefault("sync.rate_per_second", 2)
	v.SetDefault("sync.max_retries", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("serve.addr", "127.0.0.1:8088")
}

// Load resolves the configuration. It does not validate it.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	dataDir, err := DefaultDataDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, dataDir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", k, err)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("studyplan")
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString("data_dir"))
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if opts.DB != "" {
		cfg.DB = opts.DB
	}
	if cfg.DB == "" {
		cfg.DB = filepath.Join(cfg.DataDir, "studyplan.db")
	}
	if cfg.Content.Users == "" {
		cfg.Content.Users = filepath.Join(cfg.Content.Dir, "users.json")
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.DataDir, "logs", "studyplan.log")
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.DB == "" {
		problems = append(problems, "db: must not be empty")
	}
	if c.Content.Users == "" {
		problems = append(problems, "content.users: must not be empty")
	}
	switch c.Sync.Backend {
	case BackendHTTP:
		if c.Sync.BaseURL == "" {
			problems = append(problems, "sync.base_url: required for the http backend")
		}
	case BackendRedis:
		if c.Sync.RedisURL == "" {
			problems = append(problems, "sync.redis_url: required for the redis backend")
		}
	case BackendNone:
	default:
		problems = append(problems, fmt.Sprintf("sync.backend: unknown backend %q (want http, redis or none)", c.Sync.Backend))
	}
	if c.Sync.Timeout <= 0 {
		problems = append(problems, "sync.timeout: must be positive")
	}
	if c.Sync.Debounce < 0 {
		problems = append(problems, "sync.debounce: must not be negative")
	}
	if c.Sync.RatePerSecond < 0 {
		problems = append(problems, "sync.rate_per_second: must not be negative")
	}
	if c.Sync.MaxRetries < 0 {
		problems = append(problems, "sync.max_retries: must not be negative")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("log.level: %v", err))
	}
	if c.Serve.Addr == "" {
		problems = append(problems, "serve.addr: must not be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// SyncEnabled reports whether a remote backend is selected.
func (c *Config) SyncEnabled() bool {
	return c.Sync.Backend != BackendNone
}
