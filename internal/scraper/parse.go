package scraper

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"sjsage522/cardmonitor/helpers"
	"sjsage522/cardmonitor/internal/deal"
)

var (
	itemLinkRegex = regexp.MustCompile(`/itm/(?:[^/?]+/)?(\d+)`)
	bidsRegex     = regexp.MustCompile(`(?i)(\d+)\s+bids?\b`)
	timeLeftRegex = regexp.MustCompile(`(?i)(\d+)\s*([dhms])\b`)
)

// ExtractItemID pulls the numeric item id out of a listing link
func ExtractItemID(link string) (string, error) {
	match := itemLinkRegex.FindStringSubmatch(link)
	if match == nil {
		return "", fmt.Errorf("no item id in %q", link)
	}
	return match[1], nil
}

// Parser turns a results page into listings
type Parser struct {
	Selectors   Selectors
	IDExtractor IDExtractorFunc
}

// NewParser creates a parser with the default eBay selectors
func NewParser() *Parser {
	return &Parser{
		Selectors:   DefaultSelectors(),
		IDExtractor: ExtractItemID,
	}
}

// ParseListings parses every result card in document order. Relative
// "time left" values are resolved against now.
func (p *Parser) ParseListings(r io.Reader, now time.Time) ([]deal.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("HTML parsing error: %w", err)
	}

	var listings []deal.Listing
	doc.Find(p.Selectors.Card).Each(func(_ int, s *goquery.Selection) {
		if listing, ok := p.parseCard(s, now); ok {
			listings = append(listings, listing)
		}
	})
	return listings, nil
}

func (p *Parser) parseCard(s *goquery.Selection, now time.Time) (deal.Listing, bool) {
	// Placeholder cards carry no item id attribute
	cardID, _ := s.Attr("id")
	if !strings.HasPrefix(cardID, p.Selectors.CardIDPrefix) {
		return deal.Listing{}, false
	}

	title := strings.TrimSpace(s.Find(p.Selectors.Title).First().Text())
	if title == "" || strings.Contains(title, p.Selectors.SkipTitle) {
		return deal.Listing{}, false
	}

	link, _ := s.Find(p.Selectors.Link).First().Attr("href")
	link = strings.TrimSpace(link)

	id := strings.TrimPrefix(cardID, p.Selectors.CardIDPrefix)
	if id == "" && p.IDExtractor != nil && link != "" {
		id, _ = p.IDExtractor(link)
	}

	price, currency := helpers.ParsePrice(s.Find(p.Selectors.Price).First().Text())

	listing := deal.Listing{
		ID:       id,
		Title:    title,
		Price:    price,
		Currency: currency,
		Type:     deal.BuyItNow,
		URL:      link,
	}

	s.Find(p.Selectors.AttributeRow).Each(func(_ int, row *goquery.Selection) {
		p.applyAttributeRow(&listing, strings.TrimSpace(row.Text()), now)
	})

	if listing.BidCount != nil || listing.EndsAt != nil {
		listing.Type = deal.Auction
	}

	return listing, true
}

func (p *Parser) applyAttributeRow(listing *deal.Listing, text string, now time.Time) {
	lower := strings.ToLower(text)

	if strings.Contains(lower, "delivery") || strings.Contains(lower, "shipping") {
		if !strings.Contains(lower, "free") {
			if shipping, _ := helpers.ParsePrice(text); shipping.Valid {
				listing.Shipping = shipping.Decimal
			}
		} else {
			listing.Shipping = decimal.Zero
		}
	}

	if match := bidsRegex.FindStringSubmatch(text); match != nil && listing.BidCount == nil {
		if bids, err := strconv.Atoi(match[1]); err == nil {
			listing.BidCount = &bids
		}
	}

	if strings.Contains(lower, "left") && listing.EndsAt == nil {
		if remaining, ok := ParseTimeLeft(text); ok {
			endsAt := now.Add(remaining)
			listing.EndsAt = &endsAt
		}
	}
}

// ParseTimeLeft parses eBay's remaining time text such as "2d 5h left" or "45m left"
func ParseTimeLeft(text string) (time.Duration, bool) {
	text = bidsRegex.ReplaceAllString(text, "")

	matches := timeLeftRegex.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, false
	}

	var total time.Duration
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		switch strings.ToLower(m[2]) {
		case "d":
			total += time.Duration(n) * 24 * time.Hour
		case "h":
			total += time.Duration(n) * time.Hour
		case "m":
			total += time.Duration(n) * time.Minute
		case "s":
			total += time.Duration(n) * time.Second
		}
	}
	return total, true
}
