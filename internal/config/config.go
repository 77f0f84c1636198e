package config

import (
	"os"
	"strconv"
	"time"

	"goenrich/domain/stats"
	"goenrich/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig `validate:"required"`
	Enrichment EnrichmentConfig
	Paths      PathConfig
}

// DatabaseConfig holds database connection settings. A missing URL
// disables persistence rather than failing startup; runs still work
// end to end without a database.
type DatabaseConfig struct {
	URL     string
	User    string
	Name    string
	Host    string
	Port    int
	SSLMode string
}

// Enabled reports whether persistence was configured
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string `validate:"required"`
	GinMode         string
	ShutdownTimeout time.Duration
}

// EnrichmentConfig holds the analysis defaults
type EnrichmentConfig struct {
	PvalCalc   string         // p-value backend name
	TestType   stats.TestType // up, down, or updown
	Alpha      float64        // significance threshold for reports
	MaxWorkers int            // concurrent term workers
}

// PathConfig holds file system paths for batch runs
type PathConfig struct {
	StudyFile        string
	PopulationFile   string
	AssociationsFile string
	ReportDir        string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	config.Database = loadDatabaseConfig()
	config.Server = loadServerConfig()

	enrichment, err := loadEnrichmentConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load enrichment configuration")
	}
	config.Enrichment = *enrichment

	config.Paths = loadPathConfig()

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:     getEnvOrDefault("DATABASE_URL", ""),
		User:    getEnvOrDefault("DB_USER", ""),
		Name:    getEnvOrDefault("DB_NAME", ""),
		Host:    getEnvOrDefault("DB_HOST", ""),
		Port:    getEnvIntOrDefault("DB_PORT", 5432),
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		GinMode:         getEnvOrDefault("GIN_MODE", "debug"),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadEnrichmentConfig() (*EnrichmentConfig, error) {
	testType, err := stats.ParseTestType(getEnvOrDefault("TEST_TYPE", string(stats.TestUpDown)))
	if err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}

	return &EnrichmentConfig{
		PvalCalc:   getEnvOrDefault("PVALCALC", "fisher"),
		TestType:   testType,
		Alpha:      getEnvFloatOrDefault("ALPHA", 0.05),
		MaxWorkers: getEnvIntOrDefault("MAX_WORKERS", 4),
	}, nil
}

func loadPathConfig() PathConfig {
	return PathConfig{
		StudyFile:        getEnvOrDefault("STUDY_FILE", ""),
		PopulationFile:   getEnvOrDefault("POP_FILE", ""),
		AssociationsFile: getEnvOrDefault("ASSOC_FILE", ""),
		ReportDir:        getEnvOrDefault("REPORT_DIR", "."),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Enrichment.PvalCalc == "" {
		return errors.ConfigInvalid("p-value backend name is required")
	}
	if config.Enrichment.Alpha <= 0 || config.Enrichment.Alpha > 1 {
		return errors.ConfigInvalid("ALPHA must be in (0, 1]")
	}
	if config.Enrichment.MaxWorkers < 1 {
		return errors.ConfigInvalid("MAX_WORKERS must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
