// Package config holds the wrapper's process-wide configuration: engine
// binary override, standard-library policy, timeouts and cache locations.
// Configuration is an explicit value threaded into whatever needs it, never
// ambient lookup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/systree/systree-go/internal/stdlib"
)

// Config holds all configuration settings
type Config struct {
	// Engine configuration
	Engine EngineConfig `yaml:"engine" mapstructure:"engine"`

	// Standard library configuration
	Stdlib StdlibConfig `yaml:"stdlib" mapstructure:"stdlib"`

	// Result cache configuration
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`
}

type EngineConfig struct {
	Binary  string        `yaml:"binary" mapstructure:"binary"`   // explicit path, empty = PATH lookup
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"` // per invocation
}

type StdlibConfig struct {
	Disable  bool          `yaml:"disable" mapstructure:"disable"`
	Path     string        `yaml:"path" mapstructure:"path"` // explicit dir, skips resolution
	Version  string        `yaml:"version" mapstructure:"version"`
	CacheDir string        `yaml:"cache_dir" mapstructure:"cache_dir"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"` // download bound
}

type CacheConfig struct {
	Directory string `yaml:"directory" mapstructure:"directory"` // bbolt result cache location
	Disable   bool   `yaml:"disable" mapstructure:"disable"`
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	stdlibCache, _ := stdlib.DefaultCacheDir()
	return &Config{
		Engine: EngineConfig{
			Timeout: 60 * time.Second,
		},
		Stdlib: StdlibConfig{
			Version:  stdlib.DefaultVersion,
			CacheDir: stdlibCache,
			Timeout:  stdlib.DefaultDownloadTimeout,
		},
		Cache: CacheConfig{
			Directory: filepath.Join(homeDir, ".systree", "cache"),
		},
	}
}

// Load loads configuration from file, environment and defaults.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("engine", cfg.Engine)
	v.SetDefault("stdlib", cfg.Stdlib)
	v.SetDefault("cache", cfg.Cache)

	v.SetEnvPrefix("SYSTREE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".systree")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".systree"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() {
	envFiles := []string{
		".env.local", // Local overrides (highest precedence)
		".env",       // Main environment file
	}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}

	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".systree", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if binary := os.Getenv("SYSTREE_BINARY"); binary != "" {
		cfg.Engine.Binary = binary
	}
	// SYSTREE_STDLIB_PATH is consumed by the stdlib locator itself, where it
	// is validated against the disk before use.
	if timeout := os.Getenv("SYSTREE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.Engine.Timeout = d
		}
	}
}
