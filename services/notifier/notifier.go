package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sjsage522/cardmonitor/internal/deal"
)

// Notifier delivers alerts for newly qualifying deals
type Notifier interface {
	// Name identifies the notifier in logs
	Name() string

	// Notify delivers one alert. An error means the alert was not delivered.
	Notify(ctx context.Context, alert Alert) error
}

// Alert groups the new deals found for one watch entry in a scan
type Alert struct {
	Entry    deal.WatchEntry
	Deals    []deal.DealResult
	ClearURL string
}

// Subject returns the alert headline
func (a Alert) Subject() string {
	return fmt.Sprintf("eBay Deal Alert: %d card(s) found under %s", len(a.Deals), formatMoney(a.Entry.MaxPrice))
}

// FormatText renders the alert as plain text
func FormatText(a Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Deals found for: %s\n", a.Entry.Key)
	fmt.Fprintf(&b, "Your max price: %s\n\n", formatMoney(a.Entry.MaxPrice))
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n\n")

	for _, d := range a.Deals {
		l := d.Listing
		b.WriteString(l.Title)
		b.WriteString("\n")
		fmt.Fprintf(&b, "   Price: %s", formatPrice(l))
		if l.Shipping.IsPositive() {
			fmt.Fprintf(&b, " + %s shipping", formatMoney(l.Shipping))
		}
		fmt.Fprintf(&b, "\n   Total: %s\n", formatMoney(l.Total()))
		if d.Type == deal.DealTypeAuction {
			b.WriteString("   ")
			b.WriteString(auctionLine(l))
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "   Link: %s\n\n", l.URL)
	}

	if a.ClearURL != "" {
		fmt.Fprintf(&b, "Clear history for this search: %s\n", a.ClearURL)
	}
	return b.String()
}

func auctionLine(l deal.Listing) string {
	parts := []string{"Auction"}
	if l.BidCount != nil {
		parts = append(parts, fmt.Sprintf("%d bid(s)", *l.BidCount))
	}
	if l.EndsAt != nil {
		parts = append(parts, "ends "+l.EndsAt.Local().Format(time.DateTime))
	}
	return strings.Join(parts, " | ")
}

func formatPrice(l deal.Listing) string {
	if !l.Price.Valid {
		return "n/a"
	}
	return formatMoney(l.Price.Decimal)
}

func formatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
