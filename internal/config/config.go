package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the form service
type Config struct {
	Environment string
	Server      ServerConfig
	Logging     LoggingConfig
	Storage     StorageConfig
	RateLimit   RateLimitConfig
	Form        FormConfig
	CORS        CORSConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

type StorageConfig struct {
	// DataDir holds the two state files: rate_limits.json and
	// form-submissions.json. Created on first write.
	DataDir string
}

type RateLimitConfig struct {
	MaxRequestsPerHour int
	Window             time.Duration
}

type FormConfig struct {
	MaxNameLength    int
	MaxCompanyLength int
	MaxPhoneLength   int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// LoadConfig reads configuration from the environment, loading a .env file
// first when one is present. Every option has a default.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", ""),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Storage: StorageConfig{
			DataDir: getEnv("DATA_DIR", "./data"),
		},
		RateLimit: RateLimitConfig{
			MaxRequestsPerHour: getEnvInt("MAX_REQUESTS_PER_HOUR", 10),
			Window:             time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 3600)) * time.Second,
		},
		Form: FormConfig{
			MaxNameLength:    getEnvInt("MAX_NAME_LENGTH", 50),
			MaxCompanyLength: getEnvInt("MAX_COMPANY_LENGTH", 100),
			MaxPhoneLength:   getEnvInt("MAX_PHONE_LENGTH", 20),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		},
	}
}

// GetServerAddress returns the host:port the HTTP server binds to
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
