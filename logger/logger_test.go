package logger

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitWithWriter(t *testing.T) {
	os.Setenv("LOG_LEVEL", "debug")
	defer os.Unsetenv("LOG_LEVEL")

	var buf bytes.Buffer
	InitWithWriter(&buf)
	defer Init()

	ForScraper("dylan harper").Info().Msg("scraped")
	LogError("worker", errors.New("boom"), "scan %d failed", 3)

	out := buf.String()
	assert.Contains(t, out, "scraped")
	assert.Contains(t, out, "dylan harper")
	assert.Contains(t, out, "scan 3 failed")
	assert.Contains(t, out, "boom")
}

func TestGetLogLevel(t *testing.T) {
	os.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, "warn", getLogLevel().String())

	os.Setenv("LOG_LEVEL", "nonsense")
	assert.Equal(t, "info", getLogLevel().String())
	os.Unsetenv("LOG_LEVEL")

	os.Setenv("CARDMONITOR_ENVIRONMENT", "production")
	assert.Equal(t, "info", getLogLevel().String())
	os.Unsetenv("CARDMONITOR_ENVIRONMENT")

	assert.Equal(t, "debug", getLogLevel().String())
}
