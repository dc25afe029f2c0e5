package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Search    SearchConfig
	Browser   BrowserConfig
	Retailers RetailersConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DataConfig holds filesystem paths for cached and built datasets
type DataConfig struct {
	Dir         string `mapstructure:"dir"`
	CatalogPath string `mapstructure:"catalog_path"`
}

// SearchConfig holds aggregator tuning
type SearchConfig struct {
	DefaultPageSize int           `mapstructure:"default_page_size"`
	MaxPageSize     int           `mapstructure:"max_page_size"`
	RetailerLimit   int           `mapstructure:"retailer_limit"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// BrowserConfig holds rendered-fetch configuration
type BrowserConfig struct {
	Headless   bool          `mapstructure:"headless"`
	NavTimeout time.Duration `mapstructure:"nav_timeout"`
}

// RetailersConfig holds per-retailer configuration
type RetailersConfig struct {
	Walmart     RetailerConfig `mapstructure:"walmart"`
	SaveOnFoods RetailerConfig `mapstructure:"saveonfoods"`
	PCExpress   RetailerConfig `mapstructure:"pcexpress"`
}

// RetailerConfig holds one retailer's knobs. PostalCode drives store
// selection where a retailer needs one; StoreID is the Save-On-Foods RSID.
type RetailerConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	TTL        time.Duration `mapstructure:"ttl"`
	PostalCode string        `mapstructure:"postal_code"`
	StoreID    string        `mapstructure:"store_id"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/smartsave/")

	// Environment variable settings
	v.SetEnvPrefix("SMARTSAVE")
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
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Data defaults
	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.catalog_path", "./data/catalog_latest.csv")

	// Search defaults
	v.SetDefault("search.default_page_size", 20)
	v.SetDefault("search.max_page_size", 50)
	v.SetDefault("search.retailer_limit", 12)
	v.SetDefault("search.timeout", "60s")

	// Browser defaults
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.nav_timeout", "25s")

	// Retailer defaults; TTLs track how often each site's prices move
	v.SetDefault("retailers.walmart.enabled", true)
	v.SetDefault("retailers.walmart.ttl", "1h")
	v.SetDefault("retailers.walmart.postal_code", "T5J 0N3")
	v.SetDefault("retailers.saveonfoods.enabled", true)
	v.SetDefault("retailers.saveonfoods.ttl", "2h")
	v.SetDefault("retailers.saveonfoods.store_id", "1982")
	v.SetDefault("retailers.pcexpress.enabled", true)
	v.SetDefault("retailers.pcexpress.ttl", "6h")
	v.SetDefault("retailers.pcexpress.postal_code", "T5J 0N3")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Data.Dir == "" {
		return fmt.Errorf("data directory is required (set SMARTSAVE_DATA_DIR)")
	}

	if config.Search.MaxPageSize < 1 {
		return fmt.Errorf("search.max_page_size must be >= 1, got: %d", config.Search.MaxPageSize)
	}

	if config.Search.DefaultPageSize < 1 || config.Search.DefaultPageSize > config.Search.MaxPageSize {
		return fmt.Errorf("search.default_page_size must be in [1, %d], got: %d",
			config.Search.MaxPageSize, config.Search.DefaultPageSize)
	}

	if config.Retailers.SaveOnFoods.Enabled && config.Retailers.SaveOnFoods.StoreID == "" {
		return fmt.Errorf("Save-On-Foods store id is required when the retailer is enabled")
	}

	return nil
}
