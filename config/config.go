package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/quasarbase/quasar-backend/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// Config holds application configuration values
type Config struct {
	ServerPort    string
	JWTSecret     string
	JWTExpiration time.Duration

	// Control-plane catalog (SQLite)
	CatalogDbDir  string
	CatalogDbFile string

	// Tenant data plane (Postgres). Fixed credentials; one physical
	// database per logical database, created by the provisioner.
	PgHost          string
	PgPort          int
	PgUser          string
	PgPassword      string
	PgSSLMode       string
	PgMaintenanceDB string
}

// LoadConfig loads configuration from environment variables.
// It uses a .env file for local development if present (ignores it for production).
func LoadConfig() (*Config, error) {
	customLog.Println("Loading configuration from environment variables...")

	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			customLog.Warnf("Warning: Error loading .env file: %v", err)
		}
	}

	port := getEnv("SERVER_PORT", "8080")
	jwtSecret := getEnv("JWT_SECRET", "")
	jwtExpHoursStr := getEnv("JWT_EXPIRATION_HOURS", "24")
	catalogDir := getEnv("CATALOG_DIRECTORY", "data")
	catalogFile := getEnv("CATALOG_FILE", "catalog.db")

	pgHost := getEnv("PG_HOST", "localhost")
	pgPortStr := getEnv("PG_PORT", "5432")
	pgUser := getEnv("PG_USER", "postgres")
	pgPassword := getEnv("PG_PASSWORD", "")
	pgSSLMode := getEnv("PG_SSLMODE", "disable")
	pgMaintenanceDB := getEnv("PG_MAINTENANCE_DB", "postgres")

	// Critical: Ensure JWT Secret is set
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable must be set")
	}

	jwtExpHours, err := strconv.Atoi(jwtExpHoursStr)
	if err != nil || jwtExpHours <= 0 {
		customLog.Warnf("Invalid JWT_EXPIRATION_HOURS '%s'. Using default 24h. Error: %v", jwtExpHoursStr, err)
		jwtExpHours = 24
	}

	pgPort, err := strconv.Atoi(pgPortStr)
	if err != nil || pgPort <= 0 {
		customLog.Warnf("Invalid PG_PORT '%s'. Using default 5432. Error: %v", pgPortStr, err)
		pgPort = 5432
	}

	cfg := &Config{
		ServerPort:      port,
		JWTSecret:       jwtSecret,
		JWTExpiration:   time.Hour * time.Duration(jwtExpHours),
		CatalogDbDir:    catalogDir,
		CatalogDbFile:   catalogFile,
		PgHost:          pgHost,
		PgPort:          pgPort,
		PgUser:          pgUser,
		PgPassword:      pgPassword,
		PgSSLMode:       pgSSLMode,
		PgMaintenanceDB: pgMaintenanceDB,
	}

	customLog.Printf("Configuration loaded successfully. Port: %s, PG: %s:%d, JWT Exp: %v",
		cfg.ServerPort, cfg.PgHost, cfg.PgPort, cfg.JWTExpiration)
	return cfg, nil
}

// ConnString builds a pgx connection string for the given physical database.
func (c *Config) ConnString(dbName string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PgHost, c.PgPort, c.PgUser, c.PgPassword, dbName, c.PgSSLMode)
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
