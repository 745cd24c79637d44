package errors

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonitorError(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewNetwork("dylan harper", "fetch failed", cause)

	assert.Equal(t, "[network] dylan harper: fetch failed - connection refused", err.Error())
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, err.IsRetryable())

	var target *MonitorError
	assert.True(t, stderrors.As(error(err), &target))
	assert.Equal(t, ErrorTypeNetwork, target.Type)
}

func TestMonitorError_WithoutCause(t *testing.T) {
	err := NewRateLimit("amen thompson", 30*time.Second)

	assert.Equal(t, "[rate_limit] amen thompson: rate limited for 30s", err.Error())
	assert.False(t, err.IsRetryable())
	assert.Nil(t, err.Unwrap())
}

func TestMonitorError_Retryable(t *testing.T) {
	assert.True(t, NewNotify("q", "smtp", nil).IsRetryable())
	assert.False(t, NewParsing("q", "bad html", nil).IsRetryable())
	assert.False(t, NewStore("save", nil).IsRetryable())
	assert.False(t, NewValidation("q", "empty").IsRetryable())
	assert.False(t, NewConfiguration("bad", nil).IsRetryable())
}

func TestMonitorError_WithoutQuery(t *testing.T) {
	err := NewStore("failed to save seen listings", stderrors.New("disk full"))
	assert.Equal(t, "[store] failed to save seen listings - disk full", err.Error())

	err = NewConfiguration("STORE_PATH is required", nil)
	assert.Equal(t, "[configuration] STORE_PATH is required", err.Error())
}
