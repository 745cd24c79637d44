package notifier

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sjsage522/cardmonitor/internal/deal"
	apperrors "sjsage522/cardmonitor/pkg/errors"
)

// telegram rejects messages over 4096 characters
const maxTelegramMessage = 4000

// TelegramSender is the part of tgbotapi.BotAPI used for sending
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts alerts to a Telegram chat
type TelegramNotifier struct {
	sender TelegramSender
	chatID int64
}

// NewTelegramNotifier creates a new Telegram notifier
func NewTelegramNotifier(sender TelegramSender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{
		sender: sender,
		chatID: chatID,
	}
}

// NewTelegramBot connects to the Bot API with token
func NewTelegramBot(token string) (*tgbotapi.BotAPI, error) {
	return tgbotapi.NewBotAPI(token)
}

// Name returns the notifier name
func (n *TelegramNotifier) Name() string {
	return "telegram"
}

// Notify sends the alert, split over several messages when it is long
func (n *TelegramNotifier) Notify(ctx context.Context, alert Alert) error {
	for _, text := range FormatTelegram(alert) {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg := tgbotapi.NewMessage(n.chatID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := n.sender.Send(msg); err != nil {
			return apperrors.NewNotify(alert.Entry.Key, "failed to send telegram message", err)
		}
	}
	return nil
}

// FormatTelegram renders the alert as one or more HTML messages
func FormatTelegram(a Alert) []string {
	header := fmt.Sprintf("🃏 <b>%s</b>\n<i>%s</i>\n\n",
		html.EscapeString(a.Subject()), html.EscapeString(a.Entry.Key))

	var messages []string
	var b strings.Builder
	b.WriteString(header)

	for _, d := range a.Deals {
		l := d.Listing
		var item strings.Builder
		fmt.Fprintf(&item, "<a href=\"%s\">%s</a>\n", html.EscapeString(l.URL), html.EscapeString(l.Title))
		fmt.Fprintf(&item, "%s", formatPrice(l))
		if l.Shipping.IsPositive() {
			fmt.Fprintf(&item, " + %s shipping", formatMoney(l.Shipping))
		}
		fmt.Fprintf(&item, " (total %s)\n", formatMoney(l.Total()))
		if d.Type == deal.DealTypeAuction {
			item.WriteString(html.EscapeString(auctionLine(l)))
			item.WriteString("\n")
		}
		item.WriteString("\n")

		if b.Len()+item.Len() > maxTelegramMessage && b.Len() > len(header) {
			messages = append(messages, b.String())
			b.Reset()
			b.WriteString(header)
		}
		b.WriteString(item.String())
	}

	if a.ClearURL != "" {
		footer := fmt.Sprintf("<a href=\"%s\">Clear history for this search</a>", html.EscapeString(a.ClearURL))
		if b.Len()+len(footer) > maxTelegramMessage {
			messages = append(messages, b.String())
			b.Reset()
		}
		b.WriteString(footer)
	}

	return append(messages, b.String())
}
