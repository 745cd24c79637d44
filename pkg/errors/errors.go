package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeNotify represents alert delivery errors
	ErrorTypeNotify ErrorType = "notify"
	// ErrorTypeStore represents seen-store persistence errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// MonitorError represents an error raised while scanning a watch query
type MonitorError struct {
	Type    ErrorType
	Query   string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *MonitorError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if e.Query != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Type, e.Query, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s - %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *MonitorError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *MonitorError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeNotify:
		return true
	default:
		return false
	}
}

// New creates a new MonitorError
func New(errType ErrorType, query, message string, err error) *MonitorError {
	return &MonitorError{
		Type:    errType,
		Query:   query,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(query, message string, err error) *MonitorError {
	return New(ErrorTypeNetwork, query, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(query, message string, err error) *MonitorError {
	return New(ErrorTypeParsing, query, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(query string, duration time.Duration) *MonitorError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, query, message, nil)
}

// NewCache creates a new cache error
func NewCache(query, message string, err error) *MonitorError {
	return New(ErrorTypeCache, query, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(query, message string, err error) *MonitorError {
	return New(ErrorTypePublisher, query, message, err)
}

// NewNotify creates a new alert delivery error
func NewNotify(query, message string, err error) *MonitorError {
	return New(ErrorTypeNotify, query, message, err)
}

// NewStore creates a new store error
func NewStore(message string, err error) *MonitorError {
	return New(ErrorTypeStore, "", message, err)
}

// NewValidation creates a new validation error
func NewValidation(query, message string) *MonitorError {
	return New(ErrorTypeValidation, query, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *MonitorError {
	return New(ErrorTypeConfiguration, "", message, err)
}
