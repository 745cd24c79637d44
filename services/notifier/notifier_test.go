package notifier

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/cardmonitor/internal/deal"
	apperrors "sjsage522/cardmonitor/pkg/errors"
)

func testAlert() Alert {
	bids := 1
	endsAt := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	return Alert{
		Entry: deal.WatchEntry{Key: "dylan harper d-2", MaxPrice: decimal.NewFromInt(50)},
		Deals: []deal.DealResult{
			{
				Listing: deal.Listing{
					ID:       "111",
					Title:    "2024 Prizm Dylan Harper D-2",
					Price:    decimal.NewNullDecimal(decimal.RequireFromString("45")),
					Shipping: decimal.RequireFromString("4.99"),
					Type:     deal.BuyItNow,
					URL:      "https://www.ebay.com/itm/111",
				},
				WatchKey:  "dylan harper d-2",
				Type:      deal.DealTypeBIN,
				Qualifies: true,
			},
			{
				Listing: deal.Listing{
					ID:       "222",
					Title:    "Dylan Harper D-2 Auto <1/1>",
					Price:    decimal.NewNullDecimal(decimal.RequireFromString("20")),
					Type:     deal.Auction,
					BidCount: &bids,
					EndsAt:   &endsAt,
					URL:      "https://www.ebay.com/itm/222",
				},
				WatchKey:  "dylan harper d-2",
				Type:      deal.DealTypeAuction,
				Qualifies: true,
			},
		},
		ClearURL: "http://127.0.0.1:5050/clear?query=dylan+harper+d-2",
	}
}

func TestAlertSubject(t *testing.T) {
	assert.Equal(t, "eBay Deal Alert: 2 card(s) found under $50.00", testAlert().Subject())
}

func TestFormatText(t *testing.T) {
	text := FormatText(testAlert())

	assert.True(t, strings.HasPrefix(text, "Deals found for: dylan harper d-2\nYour max price: $50.00\n\n"))
	assert.Contains(t, text, strings.Repeat("=", 50))
	assert.Contains(t, text, "2024 Prizm Dylan Harper D-2\n   Price: $45.00 + $4.99 shipping\n   Total: $49.99\n   Link: https://www.ebay.com/itm/111\n")
	assert.Contains(t, text, "   Price: $20.00\n   Total: $20.00\n")
	assert.Contains(t, text, "1 bid(s)")
	assert.Contains(t, text, "Clear history for this search: http://127.0.0.1:5050/clear?query=dylan+harper+d-2")
}

func TestEmailNotifier(t *testing.T) {
	n := NewEmailNotifier("smtp.example.com", 587, "user@example.com", "secret", "from@example.com", "to@example.com")

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	err := n.Notify(context.Background(), testAlert())
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "from@example.com", gotFrom)
	assert.Equal(t, []string{"to@example.com"}, gotTo)

	msg := string(gotMsg)
	assert.Contains(t, msg, "Subject: eBay Deal Alert: 2 card(s) found under $50.00\r\n")
	assert.Contains(t, msg, "To: to@example.com\r\n")
	assert.Contains(t, msg, "\r\n\r\nDeals found for: dylan harper d-2\r\n")
	assert.Equal(t, "email", n.Name())
}

func TestEmailNotifierFailure(t *testing.T) {
	n := NewEmailNotifier("smtp.example.com", 587, "", "", "from@example.com", "to@example.com")
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		assert.Nil(t, a)
		return errors.New("535 authentication failed")
	}

	err := n.Notify(context.Background(), testAlert())
	require.Error(t, err)
	var monitorErr *apperrors.MonitorError
	require.True(t, errors.As(err, &monitorErr))
	assert.Equal(t, apperrors.ErrorTypeNotify, monitorErr.Type)
	assert.Equal(t, "dylan harper d-2", monitorErr.Query)
}

func TestEmailNotifierCancelled(t *testing.T) {
	n := NewEmailNotifier("smtp.example.com", 587, "", "", "from@example.com", "to@example.com")
	called := false
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		called = true
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Notify(ctx, testAlert()), context.Canceled)
	assert.False(t, called)
}

// MockTelegramSender records sent messages
type MockTelegramSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (m *MockTelegramSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m.err != nil {
		return tgbotapi.Message{}, m.err
	}
	msg, ok := c.(tgbotapi.MessageConfig)
	if ok {
		m.sent = append(m.sent, msg)
	}
	return tgbotapi.Message{MessageID: len(m.sent)}, nil
}

func TestTelegramNotifier(t *testing.T) {
	sender := &MockTelegramSender{}
	n := NewTelegramNotifier(sender, 42)

	err := n.Notify(context.Background(), testAlert())
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "eBay Deal Alert: 2 card(s) found under $50.00")
	assert.Contains(t, msg.Text, "Dylan Harper D-2 Auto &lt;1/1&gt;")
	assert.Contains(t, msg.Text, "$45.00 + $4.99 shipping (total $49.99)")
	assert.Contains(t, msg.Text, "Clear history for this search")
	assert.Equal(t, "telegram", n.Name())
}

func TestTelegramNotifierFailure(t *testing.T) {
	sender := &MockTelegramSender{err: errors.New("chat not found")}
	n := NewTelegramNotifier(sender, 42)

	err := n.Notify(context.Background(), testAlert())
	var monitorErr *apperrors.MonitorError
	require.True(t, errors.As(err, &monitorErr))
	assert.Equal(t, apperrors.ErrorTypeNotify, monitorErr.Type)
}

func TestFormatTelegramSplitsLongAlerts(t *testing.T) {
	alert := testAlert()
	base := alert.Deals[0]
	alert.Deals = nil
	for i := 0; i < 60; i++ {
		d := base
		d.Listing.Title = strings.Repeat("Dylan Harper Prizm Silver ", 4)
		alert.Deals = append(alert.Deals, d)
	}

	messages := FormatTelegram(alert)
	require.Greater(t, len(messages), 1)
	for _, m := range messages {
		assert.LessOrEqual(t, len(m), maxTelegramMessage)
	}
	assert.Contains(t, messages[len(messages)-1], "Clear history for this search")
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier()
	assert.Equal(t, "log", n.Name())
	assert.NoError(t, n.Notify(context.Background(), testAlert()))
}
