package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Market  MarketConfig
	NATS    NATSConfig
	Archive ArchiveConfig
	Redis   RedisConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	Environment  string
	ServiceName  string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	CORSOrigins  string // comma-separated list of allowed origins
}

// MarketConfig holds the marketplace business constants. All amounts are in
// the smallest currency unit; shares are whole percentages.
type MarketConfig struct {
	BaseFare        int64
	FarePerUnit     int64
	DriverSharePct  int64
	PlatformOwnerID string
}

// PlatformSharePct is the platform's cut, the complement of the driver share.
func (m *MarketConfig) PlatformSharePct() int64 {
	return 100 - m.DriverSharePct
}

// NATSConfig holds event bus configuration.
type NATSConfig struct {
	URL     string
	Enabled bool
}

// ArchiveConfig holds the Postgres ride archive configuration.
type ArchiveConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Enabled  bool
}

// DSN returns the archive database connection string.
func (a *ArchiveConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		a.Host, a.Port, a.User, a.Password, a.DBName, a.SSLMode,
	)
}

// RedisConfig holds rate limiter backend configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// Addr returns the Redis address.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load reads configuration from environment variables, consulting a .env
// file when present.
func Load(serviceName string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),
			CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Market: MarketConfig{
			BaseFare:        getEnvAsInt64("MARKET_BASE_FARE", 250),
			FarePerUnit:     getEnvAsInt64("MARKET_FARE_PER_UNIT", 125),
			DriverSharePct:  getEnvAsInt64("MARKET_DRIVER_SHARE_PCT", 95),
			PlatformOwnerID: getEnv("MARKET_PLATFORM_OWNER_ID", ""),
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Enabled: getEnvAsBool("NATS_ENABLED", false),
		},
		Archive: ArchiveConfig{
			Host:     getEnv("ARCHIVE_DB_HOST", "localhost"),
			Port:     getEnv("ARCHIVE_DB_PORT", "5432"),
			User:     getEnv("ARCHIVE_DB_USER", "postgres"),
			Password: getEnv("ARCHIVE_DB_PASSWORD", "postgres"),
			DBName:   getEnv("ARCHIVE_DB_NAME", "ridemarket"),
			SSLMode:  getEnv("ARCHIVE_DB_SSLMODE", "disable"),
			Enabled:  getEnvAsBool("ARCHIVE_ENABLED", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},
	}

	if cfg.Market.BaseFare < 0 || cfg.Market.FarePerUnit <= 0 {
		return nil, fmt.Errorf("invalid fare configuration: base=%d per_unit=%d",
			cfg.Market.BaseFare, cfg.Market.FarePerUnit)
	}
	if cfg.Market.DriverSharePct < 0 || cfg.Market.DriverSharePct > 100 {
		return nil, fmt.Errorf("driver share must be a percentage, got %d", cfg.Market.DriverSharePct)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, err := strconv.ParseInt(getEnv(key, ""), 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
