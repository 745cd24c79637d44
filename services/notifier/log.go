package notifier

import (
	"context"

	"sjsage522/cardmonitor/logger"
)

// LogNotifier writes every alert to the application log
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a new log notifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.ForNotifier("log")}
}

// Name returns the notifier name
func (n *LogNotifier) Name() string {
	return "log"
}

// Notify logs the alert and each of its deals
func (n *LogNotifier) Notify(ctx context.Context, alert Alert) error {
	n.log.Info().
		Str("query", alert.Entry.Key).
		Str("max_price", formatMoney(alert.Entry.MaxPrice)).
		Int("deals", len(alert.Deals)).
		Msg(alert.Subject())

	for _, d := range alert.Deals {
		n.log.Info().
			Str("id", d.Listing.ID).
			Str("type", string(d.Type)).
			Str("price", formatPrice(d.Listing)).
			Str("total", formatMoney(d.Listing.Total())).
			Str("url", d.Listing.URL).
			Msg(d.Listing.Title)
	}
	return nil
}
