package deal

import (
	"time"

	"github.com/shopspring/decimal"
)

// Policy holds the auction qualification thresholds
type Policy struct {
	// AuctionWindow is how soon an auction must end to be considered
	AuctionWindow time.Duration
	// MaxBids is the highest bid count still considered uncontested
	MaxBids int
	// AuctionPriceRatio is the fraction of the max price the current bid must stay under
	AuctionPriceRatio decimal.Decimal
}

// DefaultPolicy returns the standard auction thresholds: ending within 24h,
// at most 2 bids, current bid under half the target.
func DefaultPolicy() Policy {
	return Policy{
		AuctionWindow:     24 * time.Hour,
		MaxBids:           2,
		AuctionPriceRatio: decimal.NewFromFloat(0.5),
	}
}

// Classifier decides whether a matching listing is a deal
type Classifier struct {
	Policy Policy
}

// NewClassifier creates a classifier with the given policy
func NewClassifier(policy Policy) *Classifier {
	return &Classifier{Policy: policy}
}

// Classify evaluates a listing that already matched spec.
func (c *Classifier) Classify(listing Listing, spec QuerySpec, now time.Time) DealResult {
	if listing.Type == Auction {
		return c.classifyAuction(listing, spec, now)
	}
	return c.classifyBIN(listing, spec)
}

func (c *Classifier) classifyBIN(listing Listing, spec QuerySpec) DealResult {
	result := DealResult{Listing: listing, Type: DealTypeBIN}

	switch {
	case !listing.Price.Valid:
		result.Reason = ReasonMissingPrice
	case !listing.Price.Decimal.LessThan(spec.MaxPrice):
		result.Reason = ReasonPriceTooHigh
	default:
		result.Qualifies = true
	}

	return result
}

func (c *Classifier) classifyAuction(listing Listing, spec QuerySpec, now time.Time) DealResult {
	result := DealResult{Listing: listing, Type: DealTypeAuction}

	if reason := c.checkEndTime(listing, now); reason != "" {
		result.Reason = reason
		return result
	}
	if reason := c.checkBids(listing); reason != "" {
		result.Reason = reason
		return result
	}

	threshold := spec.MaxPrice.Mul(c.Policy.AuctionPriceRatio)
	switch {
	case !listing.Price.Valid:
		result.Reason = ReasonMissingPrice
	case !listing.Price.Decimal.LessThan(threshold):
		result.Reason = ReasonPriceTooHigh
	default:
		result.Qualifies = true
	}

	return result
}

func (c *Classifier) checkEndTime(listing Listing, now time.Time) RejectionReason {
	if listing.EndsAt == nil {
		return ReasonMissingEndTime
	}

	remaining := listing.EndsAt.Sub(now)
	if remaining <= 0 {
		return ReasonExpired
	}
	if remaining > c.Policy.AuctionWindow {
		return ReasonNotEndingSoon
	}
	return ""
}

func (c *Classifier) checkBids(listing Listing) RejectionReason {
	if listing.BidCount == nil {
		return ReasonMissingBidCount
	}

	bids := *listing.BidCount
	if bids < 0 || bids > c.Policy.MaxBids {
		return ReasonTooManyBids
	}
	return ""
}
