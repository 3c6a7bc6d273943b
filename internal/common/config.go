package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/jobs-tracker/constants"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Parcel   ParcelConfig
	Schema   SchemaConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string
	DSN              string
	MaxConns         int32
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// ParcelConfig holds the county parcel lookup service configuration
type ParcelConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// SchemaConfig holds the table names and ordered column lists of both job tables.
type SchemaConfig struct {
	ArchivalTable      string
	OperationalTable   string
	ArchivalColumns    []string
	OperationalColumns []string
	UpdateColumns      []string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:           getEnv("DB_DRIVER", "sqlite"),
			DSN:              getEnv("DB_URL", "file:jobs.db?_pragma=busy_timeout(5000)"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 1),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		Parcel: ParcelConfig{
			BaseURL: getEnv("PARCEL_API_URL", ""),
			APIKey:  getEnv("PARCEL_API_KEY", ""),
			Timeout: getEnvAsDuration("PARCEL_TIMEOUT", 20*time.Second),
		},
		Schema: SchemaConfig{
			ArchivalTable:      getEnv("JOBS_ARCHIVAL_TABLE", constants.ArchivalTable),
			OperationalTable:   getEnv("JOBS_OPERATIONAL_TABLE", constants.OperationalTable),
			ArchivalColumns:    getEnvAsList("JOBS_ARCHIVAL_COLUMNS", constants.ArchivalColumns),
			OperationalColumns: getEnvAsList("JOBS_OPERATIONAL_COLUMNS", constants.OperationalColumns),
			UpdateColumns:      getEnvAsList("JOBS_UPDATE_COLUMNS", constants.UpdateColumns),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList reads a comma separated list. The default is copied so callers
// can never mutate the package-level column orders.
func getEnvAsList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return append([]string(nil), defaultValue...)
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be sqlite or postgres", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Database.MaxConns < 1 {
		return NewAppError("CONFIG_ERROR", "DB_MAX_CONNS must be positive", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	return nil
}
