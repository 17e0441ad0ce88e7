package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Library  LibraryConfig
	OCR      OCRConfig
	Capture  CaptureConfig
	LogLevel slog.Level
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // sqlite | postgres | memory
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// LibraryConfig holds record store behaviour switches
type LibraryConfig struct {
	Codec      string // json | proto
	StrictRefs bool
	Locale     string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine           string // tesseract | gosseract
	Tesseract        string
	TesseractLang    string
	TessdataDir      string
	PSM              int
	HeicConverter    string
	ArtifactCacheDir string
}

// CaptureConfig holds capture orchestration configuration
type CaptureConfig struct {
	Timeout time.Duration
	Workers int
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	CodecJSON  = "json"
	CodecProto = "proto"

	EngineTesseract = "tesseract"
	EngineGosseract = "gosseract"
)

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:           strings.ToLower(getEnv("BOOKNOTES_DB_DRIVER", DriverSQLite)),
			DSN:              getEnv("BOOKNOTES_DB_URL", "file:booknotes.db?_pragma=busy_timeout(5000)"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Library: LibraryConfig{
			Codec:      strings.ToLower(getEnv("BOOKNOTES_CODEC", CodecJSON)),
			StrictRefs: getEnvAsBool("BOOKNOTES_STRICT_REFS", false),
			Locale:     getEnv("BOOKNOTES_LOCALE", "en"),
		},
		OCR: OCRConfig{
			Engine:           strings.ToLower(getEnv("OCR_ENGINE", EngineTesseract)),
			Tesseract:        getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang:    getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:      getEnv("TESSDATA_PREFIX", ""),
			PSM:              getEnvAsInt("TESSERACT_PSM", 3),
			HeicConverter:    getEnv("HEIC_CONVERTER", "magick"),
			ArtifactCacheDir: getEnv("ARTIFACT_CACHE_DIR", "./tmp"),
		},
		Capture: CaptureConfig{
			Timeout: getEnvAsDuration("CAPTURE_TIMEOUT", 30*time.Second),
			Workers: getEnvAsInt("CAPTURE_WORKERS", 2),
		},
		LogLevel: getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	if value := os.Getenv(key); value != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(value)); err == nil {
			return lvl
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
		if c.Database.DSN == "" {
			return NewAppError("CONFIG_ERROR", "BOOKNOTES_DB_URL is required", ErrInvalidInput)
		}
	case DriverMemory:
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown BOOKNOTES_DB_DRIVER %q", c.Database.Driver), ErrInvalidInput)
	}
	switch c.Library.Codec {
	case CodecJSON, CodecProto:
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown BOOKNOTES_CODEC %q", c.Library.Codec), ErrInvalidInput)
	}
	switch c.OCR.Engine {
	case EngineTesseract, EngineGosseract:
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown OCR_ENGINE %q", c.OCR.Engine), ErrInvalidInput)
	}
	if c.Capture.Timeout <= 0 {
		return NewAppError("CONFIG_ERROR", "CAPTURE_TIMEOUT must be positive", ErrInvalidInput)
	}
	return nil
}
