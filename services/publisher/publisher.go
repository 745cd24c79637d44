package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	"sjsage522/cardmonitor/internal/deal"
	apperrors "sjsage522/cardmonitor/pkg/errors"
)

// MessageKey is the stream field that carries a base64 encoded deal batch
const MessageKey = "b64_carddeals"

// Publisher represents a service for publishing messages
type Publisher interface {
	// Publish publishes a message to a stream
	Publish(key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}

// DealMessage is the JSON payload published for one watch entry's new deals
type DealMessage struct {
	WatchKey    string            `json:"watch_key"`
	MaxPrice    string            `json:"max_price"`
	Deals       []deal.DealResult `json:"deals"`
	PublishedAt time.Time         `json:"published_at"`
}

// PublishDeals encodes the deals for entry as a DealMessage and publishes it
func PublishDeals(p Publisher, entry deal.WatchEntry, deals []deal.DealResult, now time.Time) error {
	if len(deals) == 0 {
		return nil
	}

	data, err := json.Marshal(DealMessage{
		WatchKey:    entry.Key,
		MaxPrice:    entry.MaxPrice.StringFixed(2),
		Deals:       deals,
		PublishedAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal deals: %w", err)
	}

	if err := p.Publish(MessageKey, data); err != nil {
		return apperrors.NewPublisher(entry.Key, "failed to publish deals", err)
	}
	return nil
}
