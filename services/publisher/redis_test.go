package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/cardmonitor/internal/deal"
)

// This test requires a running Redis instance
// If Redis is not available, the test will be skipped
func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()
	publisher := NewRedisPublisher(ctx, "localhost:6379", 0, "test_carddeals", 1, 10)
	defer publisher.Close()

	if err := publisher.Ping(); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   0,
	})
	defer client.Close()
	defer client.Del(ctx, "test_carddeals:0")

	err := publisher.Publish(MessageKey, []byte("test_message"))
	require.NoError(t, err)

	messages, err := client.XRevRangeN(ctx, "test_carddeals:0", "+", "-", 1).Result()
	require.NoError(t, err)
	require.Len(t, messages, 1)
	// base64 of "test_message"
	assert.Equal(t, "dGVzdF9tZXNzYWdl", messages[0].Values[MessageKey])

	for i := 0; i < 15; i++ {
		require.NoError(t, publisher.Publish(MessageKey, []byte("x")))
	}
	require.NoError(t, publisher.TrimStreams())

	length, err := client.XLen(ctx, "test_carddeals:0").Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, length, int64(10))
}

type recordingPublisher struct {
	key      string
	messages [][]byte
}

func (r *recordingPublisher) Publish(key string, message []byte) error {
	r.key = key
	r.messages = append(r.messages, message)
	return nil
}

func (r *recordingPublisher) TrimStreams() error { return nil }
func (r *recordingPublisher) Close() error       { return nil }

func TestPublishDeals(t *testing.T) {
	p := &recordingPublisher{}
	entry := deal.WatchEntry{Key: "dylan harper d-2", MaxPrice: decimal.NewFromInt(50)}
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	// Nothing to publish
	require.NoError(t, PublishDeals(p, entry, nil, now))
	assert.Empty(t, p.messages)

	deals := []deal.DealResult{{
		Listing: deal.Listing{
			ID:    "123",
			Title: "Dylan Harper D-2",
			Price: decimal.NewNullDecimal(decimal.RequireFromString("45.00")),
			Type:  deal.BuyItNow,
			URL:   "https://www.ebay.com/itm/123",
		},
		WatchKey:  entry.Key,
		Type:      deal.DealTypeBIN,
		Qualifies: true,
	}}
	require.NoError(t, PublishDeals(p, entry, deals, now))
	require.Len(t, p.messages, 1)
	assert.Equal(t, MessageKey, p.key)

	var msg DealMessage
	require.NoError(t, json.Unmarshal(p.messages[0], &msg))
	assert.Equal(t, "dylan harper d-2", msg.WatchKey)
	assert.Equal(t, "50.00", msg.MaxPrice)
	require.Len(t, msg.Deals, 1)
	assert.Equal(t, "123", msg.Deals[0].Listing.ID)
	assert.True(t, now.Equal(msg.PublishedAt))
}
