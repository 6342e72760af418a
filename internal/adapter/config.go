package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "BROADSHEET"

// Config holds all application configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Refresh RefreshConfig `mapstructure:"refresh"`
	UI      UIConfig      `mapstructure:"ui"`
	Browser BrowserConfig `mapstructure:"browser"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig holds article API configuration
type APIConfig struct {
	URL          string        `mapstructure:"url"`           // Base URL, e.g. https://api.example.com
	ArticlesPath string        `mapstructure:"articles_path"` // Article list path relative to URL
	Timeout      time.Duration `mapstructure:"timeout"`
}

// CacheConfig controls the on-disk artwork cache
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// RefreshConfig controls periodic reloads of the article list
type RefreshConfig struct {
	Schedule string `mapstructure:"schedule"` // cron spec, e.g. "@every 15m"; empty disables
}

// UIConfig holds UI configuration
type UIConfig struct {
	ShowThumbnails bool `mapstructure:"show_thumbnails"`
	ThumbnailWidth int  `mapstructure:"thumbnail_width"`
}

// BrowserConfig holds the command used to open article links
type BrowserConfig struct {
	Command string   `mapstructure:"command"` // empty for system default
	Args    []string `mapstructure:"args"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			URL:          "",
			ArticlesPath: "/api/articles",
			Timeout:      30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     defaultCachePath(),
		},
		Refresh: RefreshConfig{
			Schedule: "",
		},
		UI: UIConfig{
			ShowThumbnails: true,
			ThumbnailWidth: 32,
		},
		Browser: BrowserConfig{
			Command: "",
			Args:    []string{},
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "broadsheet", "broadsheet.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "broadsheet", "broadsheet.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "broadsheet")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "broadsheet")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "broadsheet", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "broadsheet", "cache")
	}
}

// LoadConfig loads configuration from .env, the config file and environment
func LoadConfig() (*Config, error) {
	// A missing .env is the normal case
	_ = godotenv.Load()

	return loadConfig(viper.New(), defaultConfigPath(), ".")
}

func loadConfig(v *viper.Viper, paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Defaults make every key visible to AutomaticEnv during Unmarshal
	setDefaults(v, cfg)

	// Environment variable overrides, e.g. BROADSHEET_API_URL
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.url", cfg.API.URL)
	v.SetDefault("api.articles_path", cfg.API.ArticlesPath)
	v.SetDefault("api.timeout", cfg.API.Timeout)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.dir", cfg.Cache.Dir)

	v.SetDefault("refresh.schedule", cfg.Refresh.Schedule)

	v.SetDefault("ui.show_thumbnails", cfg.UI.ShowThumbnails)
	v.SetDefault("ui.thumbnail_width", cfg.UI.ThumbnailWidth)

	v.SetDefault("browser.command", cfg.Browser.Command)
	v.SetDefault("browser.args", cfg.Browser.Args)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// SaveConfig saves the current configuration to the default config file
func SaveConfig(cfg *Config) error {
	return saveConfig(cfg, defaultConfigPath())
}

func saveConfig(cfg *Config, configPath string) error {
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()

	// Set fields individually to ensure correct key names (snake_case)
	v.Set("api.url", cfg.API.URL)
	v.Set("api.articles_path", cfg.API.ArticlesPath)
	v.Set("api.timeout", cfg.API.Timeout.String())

	v.Set("cache.enabled", cfg.Cache.Enabled)
	v.Set("cache.dir", cfg.Cache.Dir)

	v.Set("refresh.schedule", cfg.Refresh.Schedule)

	v.Set("ui.show_thumbnails", cfg.UI.ShowThumbnails)
	v.Set("ui.thumbnail_width", cfg.UI.ThumbnailWidth)

	v.Set("browser.command", cfg.Browser.Command)
	v.Set("browser.args", cfg.Browser.Args)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the API URL is set
func (c *Config) IsConfigured() bool {
	return c.API.URL != ""
}

// CacheDir returns the cache directory, or "" when caching is disabled
func (c *Config) CacheDir() string {
	if !c.Cache.Enabled {
		return ""
	}
	return c.Cache.Dir
}

// ClearCache removes all cached data
func ClearCache(cfg *Config) error {
	if cfg.Cache.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(cfg.Cache.Dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
