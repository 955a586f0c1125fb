package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values from the config file.
const (
	EnvBaseURL  = "SONGDL_BASE_URL"
	EnvDBPath   = "SONGDL_DB_PATH"
	EnvLogLevel = "SONGDL_LOG_LEVEL"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Service   ServiceConfig   `toml:"service"`
	Storage   StorageConfig   `toml:"storage"`
	Quota     QuotaConfig     `toml:"quota"`
	Downloads DownloadsConfig `toml:"downloads"`
	Player    PlayerConfig    `toml:"player"`
	Auth      AuthConfig      `toml:"auth"`
	Log       LogConfig       `toml:"log"`

	baseOnce sync.Once
	baseURL  string
}

// ServiceConfig describes the remote backend.
type ServiceConfig struct {
	BaseURL        string `toml:"base_url"`
	Origin         string `toml:"origin"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StorageConfig points at the sqlite file holding the session credential.
type StorageConfig struct {
	Path     string `toml:"path"`
	TokenKey string `toml:"token_key"`
}

// QuotaConfig holds the daily download ceilings shown per tier.
type QuotaConfig struct {
	FreeDaily        int  `toml:"free_daily"`
	PremiumDaily     int  `toml:"premium_daily"`
	PremiumUnlimited bool `toml:"premium_unlimited"`
}

// DownloadsConfig controls where and how fast songs are saved.
type DownloadsConfig struct {
	OutputDir   string  `toml:"output_dir"`
	Concurrency int     `toml:"concurrency"`
	RateLimit   float64 `toml:"rate_limit"`
	TagMP3      bool    `toml:"tag_mp3"`
}

// PlayerConfig configures the embeddable playback widget.
type PlayerConfig struct {
	WidgetURL string `toml:"widget_url"`
	DarkTheme bool   `toml:"dark_theme"`
	Autoplay  bool   `toml:"autoplay"`
}

// AuthConfig configures the browser sign-in round trip.
type AuthConfig struct {
	LoginURL     string `toml:"login_url"`
	CallbackHost string `toml:"callback_host"`
	CallbackPort int    `toml:"callback_port"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports configuration values the client cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Service.BaseURL) == "" {
		return fmt.Errorf("%w: service.base_url is empty", ErrInvalidConfig)
	}
	if c.Quota.FreeDaily <= 0 {
		return fmt.Errorf("%w: quota.free_daily must be positive", ErrInvalidConfig)
	}
	if c.Storage.TokenKey == "" {
		return fmt.Errorf("%w: storage.token_key is empty", ErrInvalidConfig)
	}
	return nil
}

// LoadEnv loads a .env file from the working directory when present and applies
// the SONGDL_* overrides to the config.
func (c *Config) LoadEnv() {
	_ = godotenv.Load()
	c.ApplyEnv()
}

// ApplyEnv overrides config values with SONGDL_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Service.BaseURL = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// ResolveBaseURL returns the backend address without a trailing slash.
//
// The value is resolved on first call and fixed for the lifetime of the Config.
func (c *Config) ResolveBaseURL() string {
	c.baseOnce.Do(func() {
		c.baseURL = strings.TrimRight(strings.TrimSpace(c.Service.BaseURL), "/")
	})
	return c.baseURL
}

// Timeout returns the per-request timeout, zero meaning none.
func (c *Config) Timeout() time.Duration {
	if c.Service.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Service.TimeoutSeconds) * time.Second
}

// CallbackAddr returns the listen address of the sign-in callback server.
func (c *Config) CallbackAddr() string {
	return fmt.Sprintf("%s:%d", c.Auth.CallbackHost, c.Auth.CallbackPort)
}
