package helpers

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	applogger "sjsage522/cardmonitor/logger"
	apperrors "sjsage522/cardmonitor/pkg/errors"
)

func TestLogger(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "error.log")

	// Create a logger
	logger := NewLogger(tmpFile)

	// Log an error
	logger.LogError("dylan harper d-2 refractor", errors.New("test error"))

	// Check that the file was created and contains the error
	data, err := os.ReadFile(tmpFile)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "dylan harper d-2 refractor")
	assert.Contains(t, string(data), "test error")

	// Info messages only go to the structured logger
	logger.LogInfo("Test info message: %s", "hello")
	data, err = os.ReadFile(tmpFile)
	assert.NoError(t, err)
	assert.NotContains(t, string(data), "hello")
}

func TestLoggerWithoutFile(t *testing.T) {
	logger := NewLogger("")

	assert.NotPanics(t, func() {
		logger.LogError("query", errors.New("test error"))
	})
}

func TestLoggerMonitorErrorFields(t *testing.T) {
	var buf bytes.Buffer
	applogger.InitWithWriter(&buf)
	defer applogger.Init()

	NewLogger("").LogError("cooper flagg", apperrors.NewNotify("cooper flagg", "smtp down", nil))

	out := buf.String()
	assert.Contains(t, out, "retryable")
	assert.Contains(t, out, "notify")
	assert.Contains(t, out, "cooper flagg")
}
