package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	Scraper ScraperConfig
	History HistoryConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ScraperConfig holds source-feed configuration
type ScraperConfig struct {
	BrowserEnabled bool          `mapstructure:"browser_enabled"`
	UserAgent      string        `mapstructure:"user_agent"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// HistoryConfig holds price-history persistence configuration
type HistoryConfig struct {
	Backend     string       `mapstructure:"backend"` // "local", "github" or "noop"
	File        string       `mapstructure:"file"`
	MaxProducts int          `mapstructure:"max_products"`
	MaxPoints   int          `mapstructure:"max_points"`
	GitHub      GitHubConfig `mapstructure:"github"`
}

// GitHubConfig holds coordinates for the github history backend
type GitHubConfig struct {
	Token  string `mapstructure:"token"`
	Repo   string `mapstructure:"repo"` // "owner/name"
	Path   string `mapstructure:"path"`
	Branch string `mapstructure:"branch"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ofertas/")

	// Environment variable settings: nested keys map to underscores, e.g.
	// history.github.token -> OFERTAS_HISTORY_GITHUB_TOKEN
	v.SetEnvPrefix("OFERTAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Scraper defaults
	v.SetDefault("scraper.browser_enabled", true)
	v.SetDefault("scraper.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("scraper.cache_ttl", "5m")
	v.SetDefault("scraper.timeout", "30s")

	// History defaults
	v.SetDefault("history.backend", "local")
	v.SetDefault("history.file", "data/price_history.json")
	v.SetDefault("history.max_products", 1000)
	v.SetDefault("history.max_points", 30)
	v.SetDefault("history.github.path", "data/price_history.json")
	v.SetDefault("history.github.branch", "main")
	// Registered empty so viper picks them up from the environment.
	v.SetDefault("history.github.token", "")
	v.SetDefault("history.github.repo", "")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.History.Backend {
	case "local", "github", "noop", "":
	default:
		return fmt.Errorf("history backend must be 'local', 'github' or 'noop', got: %s", config.History.Backend)
	}

	if config.History.MaxProducts <= 0 {
		return fmt.Errorf("history max_products must be positive, got: %d", config.History.MaxProducts)
	}
	if config.History.MaxPoints <= 0 {
		return fmt.Errorf("history max_points must be positive, got: %d", config.History.MaxPoints)
	}

	if config.History.Backend == "local" && config.History.File == "" {
		return fmt.Errorf("history file path is required for the local backend")
	}

	return nil
}
