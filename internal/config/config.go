package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Keycloak  KeycloakConfig
	Redis     RedisConfig
	FileStore FileStoreConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	AppDB PostgresConfig `mapstructure:"postgres_app"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type KeycloakConfig struct {
	URL          string `mapstructure:"url"`
	Realm        string `mapstructure:"realm"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type FileStoreConfig struct {
	BasePath         string   `mapstructure:"base_path"`
	MaxFileSize      int64    `mapstructure:"max_file_size"`
	AllowedMimeTypes []string `mapstructure:"allowed_mime_types"`
}

// TelemetryConfig tunes the simulated flight session timers. Both timers are
// configurable so tests can shrink them.
type TelemetryConfig struct {
	BroadcastInterval time.Duration `mapstructure:"broadcast_interval"`
	ReturnHomeDelay   time.Duration `mapstructure:"return_home_delay"`
	HomeLatitude      float64       `mapstructure:"home_latitude"`
	HomeLongitude     float64       `mapstructure:"home_longitude"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("TELLOHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Load config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("server.allowed_origins", []string{"*"})

	// Database defaults
	viper.SetDefault("database.postgres_app.sslmode", "disable")

	// Redis defaults
	viper.SetDefault("redis.db", 0)

	// FileStore defaults
	viper.SetDefault("filestore.base_path", "./uploads/media")
	viper.SetDefault("filestore.max_file_size", 100*1024*1024) // 100MB
	viper.SetDefault("filestore.allowed_mime_types", []string{
		"image/jpeg", "image/png", "video/mp4", "video/quicktime",
	})

	// Telemetry defaults. Home position is seeded at a fixed reference point.
	viper.SetDefault("telemetry.broadcast_interval", "1s")
	viper.SetDefault("telemetry.return_home_delay", "5s")
	viper.SetDefault("telemetry.home_latitude", 48.8584)
	viper.SetDefault("telemetry.home_longitude", 2.2945)
}

func validateConfig(config *Config) error {
	if config.Database.AppDB.Host == "" {
		return fmt.Errorf("postgres app host is required")
	}
	if config.Keycloak.URL == "" {
		return fmt.Errorf("keycloak URL is required")
	}
	if config.Telemetry.BroadcastInterval <= 0 {
		return fmt.Errorf("telemetry broadcast interval must be positive")
	}
	if config.Telemetry.ReturnHomeDelay <= 0 {
		return fmt.Errorf("telemetry return home delay must be positive")
	}
	return nil
}
