package common

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"BOOKNOTES_DB_DRIVER", "BOOKNOTES_DB_URL", "BOOKNOTES_CODEC", "BOOKNOTES_STRICT_REFS",
		"BOOKNOTES_LOCALE", "OCR_ENGINE", "CAPTURE_TIMEOUT", "CAPTURE_WORKERS", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, CodecJSON, cfg.Library.Codec)
	assert.False(t, cfg.Library.StrictRefs)
	assert.Equal(t, "en", cfg.Library.Locale)
	assert.Equal(t, EngineTesseract, cfg.OCR.Engine)
	assert.Equal(t, 30*time.Second, cfg.Capture.Timeout)
	assert.Equal(t, 2, cfg.Capture.Workers)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("BOOKNOTES_DB_DRIVER", "Memory")
	t.Setenv("BOOKNOTES_CODEC", "PROTO")
	t.Setenv("BOOKNOTES_STRICT_REFS", "true")
	t.Setenv("BOOKNOTES_LOCALE", "de")
	t.Setenv("CAPTURE_TIMEOUT", "5s")
	t.Setenv("CAPTURE_WORKERS", "not-a-number")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadConfig()
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, CodecProto, cfg.Library.Codec)
	assert.True(t, cfg.Library.StrictRefs)
	assert.Equal(t, "de", cfg.Library.Locale)
	assert.Equal(t, 5*time.Second, cfg.Capture.Timeout)
	assert.Equal(t, 2, cfg.Capture.Workers)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: DriverSQLite, DSN: "file:x.db"},
			Library:  LibraryConfig{Codec: CodecJSON},
			OCR:      OCRConfig{Engine: EngineTesseract},
			Capture:  CaptureConfig{Timeout: time.Second},
		}
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(c *Config){
		"missing dsn":    func(c *Config) { c.Database.DSN = "" },
		"unknown driver": func(c *Config) { c.Database.Driver = "mysql" },
		"unknown codec":  func(c *Config) { c.Library.Codec = "yaml" },
		"unknown engine": func(c *Config) { c.OCR.Engine = "easyocr" },
		"zero timeout":   func(c *Config) { c.Capture.Timeout = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			err := c.Validate()
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	mem := valid()
	mem.Database = DatabaseConfig{Driver: DriverMemory}
	assert.NoError(t, mem.Validate())
}
