package deal

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingType is the selling format of a listing
type ListingType string

const (
	// BuyItNow is a fixed price listing
	BuyItNow ListingType = "buy_it_now"
	// Auction is a timed auction listing
	Auction ListingType = "auction"
)

// DealType is the evaluation path a deal qualified on
type DealType string

const (
	DealTypeBIN     DealType = "BIN"
	DealTypeAuction DealType = "Auction"
)

// RejectionReason explains why a matching listing did not qualify
type RejectionReason string

const (
	ReasonMissingPrice    RejectionReason = "MissingPrice"
	ReasonPriceTooHigh    RejectionReason = "PriceTooHigh"
	ReasonExpired         RejectionReason = "Expired"
	ReasonTooManyBids     RejectionReason = "TooManyBids"
	ReasonMissingEndTime  RejectionReason = "MissingEndTime"
	ReasonNotEndingSoon   RejectionReason = "NotEndingSoon"
	ReasonMissingBidCount RejectionReason = "MissingBidCount"
)

// Listing represents a scraped eBay listing.
// Price holds the Buy-It-Now price, or the current bid for auctions.
type Listing struct {
	ID       string              `json:"id"`
	Title    string              `json:"title"`
	Price    decimal.NullDecimal `json:"price"`
	Shipping decimal.Decimal     `json:"shipping"`
	Currency string              `json:"currency,omitempty"`
	Type     ListingType         `json:"type"`
	BidCount *int                `json:"bid_count,omitempty"`
	EndsAt   *time.Time          `json:"ends_at,omitempty"`
	URL      string              `json:"url"`
}

// Total returns price plus shipping, for display only
func (l Listing) Total() decimal.Decimal {
	if !l.Price.Valid {
		return l.Shipping
	}
	return l.Price.Decimal.Add(l.Shipping)
}

// QuerySpec is the parsed form of a watchlist key
type QuerySpec struct {
	Include  []string
	Exclude  map[string]struct{}
	MaxPrice decimal.Decimal
}

// WatchEntry is a single watchlist rule
type WatchEntry struct {
	Key      string          `json:"key" yaml:"key"`
	MaxPrice decimal.Decimal `json:"max_price" yaml:"max_price"`
}

// Watchlist is an ordered list of watch entries. Order is the scan order.
type Watchlist []WatchEntry

// DealResult is the outcome of classifying one listing against one watch entry
type DealResult struct {
	Listing   Listing         `json:"listing"`
	WatchKey  string          `json:"watch_key"`
	Type      DealType        `json:"deal_type"`
	Qualifies bool            `json:"qualifies"`
	Reason    RejectionReason `json:"rejection_reason,omitempty"`
}

// SeenStore records which (listing, watch key) pairs have already been alerted
type SeenStore interface {
	HasSeen(listingID, watchKey string) bool
	MarkSeen(listingID, watchKey string, now time.Time)
}
