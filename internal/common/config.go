package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Upload   UploadConfig
	Provider ProviderConfig
	BREX     BREXConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int
	ConnMaxLifetime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
}

// UploadConfig holds document storage configuration
type UploadConfig struct {
	Dir    string
	ICNDir string
}

// ProviderConfig holds AI provider selection and credentials
type ProviderConfig struct {
	TextProvider   string
	TextModel      string
	VisionProvider string
	VisionModel    string
	OpenAIKey      string
	OpenAIBaseURL  string
	AnthropicKey   string
	LocalBaseURL   string
	Temperature    float32
	Timeout        time.Duration
}

// BREXConfig holds validation rule set configuration
type BREXConfig struct {
	RulesPath string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", "aquila.db"),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			ConnMaxLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		Upload: UploadConfig{
			Dir:    getEnv("UPLOAD_DIR", "./uploads"),
			ICNDir: getEnv("ICN_DIR", "./uploads/icns"),
		},
		Provider: ProviderConfig{
			TextProvider:   getEnv("TEXT_PROVIDER", "openai"),
			TextModel:      getEnv("TEXT_MODEL", "gpt-4o-mini"),
			VisionProvider: getEnv("VISION_PROVIDER", "openai"),
			VisionModel:    getEnv("VISION_MODEL", "gpt-4o-mini"),
			OpenAIKey:      getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			AnthropicKey:   getEnv("ANTHROPIC_API_KEY", ""),
			LocalBaseURL:   getEnv("LOCAL_PROVIDER_URL", "http://127.0.0.1:8008"),
			Temperature:    getEnvAsFloat32("PROVIDER_TEMPERATURE", 0.1),
			Timeout:        getEnvAsDuration("PROVIDER_TIMEOUT", 45*time.Second),
		},
		BREX: BREXConfig{
			RulesPath: getEnv("BREX_RULES_PATH", ""),
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

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Provider.TextProvider == "openai" && c.Provider.OpenAIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required for the openai text provider", ErrInvalidInput)
	}
	if c.Provider.TextProvider == "anthropic" && c.Provider.AnthropicKey == "" {
		return NewAppError("CONFIG_ERROR", "ANTHROPIC_API_KEY is required for the anthropic text provider", ErrInvalidInput)
	}
	return nil
}
