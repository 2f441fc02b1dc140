package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Orphan policies applied to items whose category is deleted.
const (
	OrphanPolicyOther = "other"
	OrphanPolicyNull  = "null"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Catalog  CatalogConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	AppEnv string
	Port   string
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type CatalogConfig struct {
	OrphanPolicy    string
	DefaultPageSize int
	MaxPageSize     int
}

type AdminConfig struct {
	Email    string
	Password string
}

func LoadEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			AppEnv: getEnv("APP_ENV", "development"),
			Port:   getEnv("PORT", "3000"),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "catalog"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
			TTL:    getEnvDuration("JWT_TTL", 7*24*time.Hour),
		},
		Catalog: CatalogConfig{
			OrphanPolicy:    getEnv("CATALOG_ORPHAN_POLICY", OrphanPolicyOther),
			DefaultPageSize: getEnvInt("CATALOG_DEFAULT_PAGE_SIZE", 10),
			MaxPageSize:     getEnvInt("CATALOG_MAX_PAGE_SIZE", 100),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@example.com"),
			Password: getEnv("ADMIN_PASSWORD", "admin123"),
		},
	}
	return cfg
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	switch c.Catalog.OrphanPolicy {
	case OrphanPolicyOther, OrphanPolicyNull:
	default:
		return fmt.Errorf("CATALOG_ORPHAN_POLICY must be %q or %q, got %q", OrphanPolicyOther, OrphanPolicyNull, c.Catalog.OrphanPolicy)
	}
	if c.Catalog.DefaultPageSize < 1 {
		return fmt.Errorf("CATALOG_DEFAULT_PAGE_SIZE must be positive, got %d", c.Catalog.DefaultPageSize)
	}
	if c.Catalog.MaxPageSize < c.Catalog.DefaultPageSize {
		return fmt.Errorf("CATALOG_MAX_PAGE_SIZE (%d) is below CATALOG_DEFAULT_PAGE_SIZE (%d)", c.Catalog.MaxPageSize, c.Catalog.DefaultPageSize)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	return nil
}

// DSN builds the postgres connection string, preferring DATABASE_URL.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone,
	)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
