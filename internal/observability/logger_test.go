// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/codit04/TechMCP/internal/config"
)

// setupTestLogger initializes the global logger to write to a buffer.
func setupTestLogger(cfg config.LoggerConfig) *bytes.Buffer {
	buf := new(bytes.Buffer)
	initializeLogger(cfg, zapcore.AddSync(buf))
	return buf
}

// resetGlobalLogger is critical for test isolation, as the logger is a
// global singleton.
func resetGlobalLogger() {
	once = sync.Once{}
	globalLogger.Store(nil)
}

func TestInitializeLogger(t *testing.T) {
	t.Run("console format carries level and message", func(t *testing.T) {
		resetGlobalLogger()

		buf := setupTestLogger(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "techmcp-test",
		})

		GetLogger().Info("portal session established")
		Sync()

		output := buf.String()
		assert.Contains(t, output, "INFO")
		assert.Contains(t, output, "portal session established")
		assert.Contains(t, output, "techmcp-test")
	})

	t.Run("json format emits structured entries", func(t *testing.T) {
		resetGlobalLogger()

		buf := setupTestLogger(config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "techmcp-test",
		})

		GetLogger().Warn("scrape retried")
		Sync()

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "scrape retried", entry["msg"])
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		resetGlobalLogger()

		buf := setupTestLogger(config.LoggerConfig{
			Level:  "shouting",
			Format: "console",
		})

		GetLogger().Debug("should be filtered")
		GetLogger().Info("should appear")
		Sync()

		output := buf.String()
		assert.NotContains(t, output, "should be filtered")
		assert.Contains(t, output, "should appear")
	})

	t.Run("log file core writes json", func(t *testing.T) {
		resetGlobalLogger()

		logFile := filepath.Join(t.TempDir(), "techmcp.log")
		buf := new(bytes.Buffer)
		initializeLogger(config.LoggerConfig{
			Level:   "info",
			Format:  "console",
			LogFile: logFile,
			MaxSize: 1,
		}, zapcore.AddSync(buf))

		GetLogger().Info("written to both cores")
		Sync()

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "written to both cores")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(data, &entry))
		assert.Equal(t, "INFO", entry["level"])
	})
}

func TestGetLoggerFallback(t *testing.T) {
	resetGlobalLogger()
	logger := GetLogger()
	require.NotNil(t, logger)
	// Must not panic even before InitializeLogger runs.
	logger.Info("fallback logger works")
}
