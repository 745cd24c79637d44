package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sjsage522/cardmonitor/internal/deal"
	apperrors "sjsage522/cardmonitor/pkg/errors"
)

// Store backends
const (
	StoreBackendFile   = "file"
	StoreBackendSQLite = "sqlite"
)

// Scrape modes
const (
	ScrapeModeHTTP   = "http"
	ScrapeModeChrome = "chrome"
)

// Config represents the application configuration
type Config struct {
	// Watchlist
	WatchlistFile string

	// Seen store
	StoreBackend string
	StorePath    string

	// Scanning
	ScanSchedule   string
	RunOnce        bool
	ScanDelayMin   time.Duration
	ScanDelayMax   time.Duration
	ListingFormats []deal.ListingType

	// Scraping
	SearchBaseURL  string
	ScrapeMode     string
	ChromeAddr     string
	RateLimitBlock time.Duration

	// Auction policy
	AuctionWindow     time.Duration
	AuctionMaxBids    int
	AuctionPriceRatio decimal.Decimal

	// Memcache configuration
	MemcacheAddr string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Email
	EmailEnabled   bool
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	EmailFrom      string
	EmailRecipient string

	// Telegram
	TelegramToken  string
	TelegramChatID int64

	// Clear-history server
	ServerEnabled bool
	ServerAddr    string
	PublicURL     string

	// Logging
	ErrorLogFile string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	serverAddr := getEnv("SERVER_ADDR", "127.0.0.1:5050")

	return &Config{
		WatchlistFile: getEnv("WATCHLIST_FILE", "watchlist.yaml"),

		StoreBackend: getEnv("STORE_BACKEND", StoreBackendFile),
		StorePath:    getEnv("STORE_PATH", "seen_listings.json"),

		ScanSchedule:   getEnv("SCAN_SCHEDULE", "@every 1h"),
		RunOnce:        getEnvBool("RUN_ONCE", false),
		ScanDelayMin:   time.Duration(getEnvInt("SCAN_DELAY_MIN_MS", 3000)) * time.Millisecond,
		ScanDelayMax:   time.Duration(getEnvInt("SCAN_DELAY_MAX_MS", 5000)) * time.Millisecond,
		ListingFormats: parseListingFormats(getEnv("LISTING_FORMATS", "bin")),

		SearchBaseURL:  getEnv("EBAY_SEARCH_URL", "https://www.ebay.com/sch/i.html"),
		ScrapeMode:     getEnv("SCRAPE_MODE", ScrapeModeChrome),
		ChromeAddr:     getEnv("CHROME_ADDR", ""),
		RateLimitBlock: time.Duration(getEnvInt("RATE_LIMIT_BLOCK_SECONDS", 600)) * time.Second,

		AuctionWindow:     time.Duration(getEnvFloat("AUCTION_WINDOW_HOURS", 24) * float64(time.Hour)),
		AuctionMaxBids:    getEnvInt("AUCTION_MAX_BIDS", 2),
		AuctionPriceRatio: getEnvDecimal("AUCTION_PRICE_RATIO", "0.5"),

		MemcacheAddr: getEnv("MEMCACHE_ADDR", ""),

		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "carddeals"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),

		EmailEnabled:   getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:       getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:       getEnvInt("SMTP_PORT", 587),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		EmailFrom:      getEnv("EMAIL_FROM", ""),
		EmailRecipient: getEnv("EMAIL_RECIPIENT", ""),

		TelegramToken:  getEnv("TELEGRAM_TOKEN", ""),
		TelegramChatID: int64(getEnvInt("TELEGRAM_CHAT_ID", 0)),

		ServerEnabled: getEnvBool("SERVER_ENABLED", true),
		ServerAddr:    serverAddr,
		PublicURL:     getEnv("PUBLIC_URL", "http://"+serverAddr),

		ErrorLogFile: getEnv("ERROR_LOG_FILE", ""),

		Environment: getEnv("CARDMONITOR_ENVIRONMENT", "development"),
	}
}

// Validate checks that configuration values are usable
func (c *Config) Validate() error {
	if c.WatchlistFile == "" {
		return apperrors.NewConfiguration("WATCHLIST_FILE is required", nil)
	}

	switch c.StoreBackend {
	case StoreBackendFile, StoreBackendSQLite:
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("STORE_BACKEND must be %q or %q, got %q", StoreBackendFile, StoreBackendSQLite, c.StoreBackend), nil)
	}
	if c.StorePath == "" {
		return apperrors.NewConfiguration("STORE_PATH is required", nil)
	}

	switch c.ScrapeMode {
	case ScrapeModeHTTP, ScrapeModeChrome:
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("SCRAPE_MODE must be %q or %q, got %q", ScrapeModeHTTP, ScrapeModeChrome, c.ScrapeMode), nil)
	}

	if len(c.ListingFormats) == 0 {
		return apperrors.NewConfiguration("LISTING_FORMATS must name at least one of bin, auction", nil)
	}

	if c.ScanDelayMin < 0 || c.ScanDelayMax < c.ScanDelayMin {
		return apperrors.NewConfiguration(fmt.Sprintf("scan delay range %s..%s is invalid", c.ScanDelayMin, c.ScanDelayMax), nil)
	}

	if c.AuctionWindow <= 0 {
		return apperrors.NewConfiguration("AUCTION_WINDOW_HOURS must be positive", nil)
	}
	if c.AuctionMaxBids < 0 {
		return apperrors.NewConfiguration("AUCTION_MAX_BIDS must not be negative", nil)
	}
	if !c.AuctionPriceRatio.IsPositive() {
		return apperrors.NewConfiguration("AUCTION_PRICE_RATIO must be positive", nil)
	}

	if c.RedisAddr != "" && c.RedisStreamCount < 1 {
		return apperrors.NewConfiguration("REDIS_STREAM_COUNT must be at least 1", nil)
	}

	if c.EmailEnabled && (c.EmailFrom == "" || c.EmailRecipient == "") {
		return apperrors.NewConfiguration("EMAIL_FROM and EMAIL_RECIPIENT are required when EMAIL_ENABLED is set", nil)
	}

	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return apperrors.NewConfiguration("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set", nil)
	}

	return nil
}

// AuctionPolicy returns the classifier policy described by the config
func (c *Config) AuctionPolicy() deal.Policy {
	return deal.Policy{
		AuctionWindow:     c.AuctionWindow,
		MaxBids:           c.AuctionMaxBids,
		AuctionPriceRatio: c.AuctionPriceRatio,
	}
}

// MaskedSMTPPassword returns the SMTP password with most characters hidden for logging
func (c *Config) MaskedSMTPPassword() string {
	return maskSecret(c.SMTPPassword)
}

// MaskedTelegramToken returns the bot token with most characters hidden for logging
func (c *Config) MaskedTelegramToken() string {
	return maskSecret(c.TelegramToken)
}

// maskSecret hides all but the first and last 4 characters of a secret
func maskSecret(s string) string {
	if len(s) <= 8 {
		if len(s) == 0 {
			return "(not set)"
		}
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

func parseListingFormats(value string) []deal.ListingType {
	var formats []deal.ListingType
	for _, part := range strings.Split(value, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "bin", "buy_it_now":
			formats = append(formats, deal.BuyItNow)
		case "auction":
			formats = append(formats, deal.Auction)
		}
	}
	return formats
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDecimal(key, defaultValue string) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return decimal.RequireFromString(defaultValue)
}
