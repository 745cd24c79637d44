package scraper

import (
	"context"
	"io"

	"sjsage522/cardmonitor/internal/deal"
)

// Fetcher retrieves a page as UTF-8 HTML
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.Reader, error)
}

// Searcher returns listings for a query, newest first
type Searcher interface {
	Search(ctx context.Context, query string, spec deal.QuerySpec, listingType deal.ListingType) ([]deal.Listing, error)
}

// IDExtractorFunc extracts an item id from a listing link
type IDExtractorFunc func(string) (string, error)

// Selectors contains CSS selectors for the search results page
type Selectors struct {
	Results      string
	Card         string
	CardIDPrefix string
	Title        string
	Price        string
	Link         string
	AttributeRow string
	SkipTitle    string
}

// DefaultSelectors returns the selectors for eBay's card-style result list
func DefaultSelectors() Selectors {
	return Selectors{
		Results:      ".srp-results",
		Card:         "li.s-card",
		CardIDPrefix: "item",
		Title:        ".s-card__title",
		Price:        ".s-card__price",
		Link:         "a.s-card__link",
		AttributeRow: ".s-card__attribute-row",
		SkipTitle:    "Shop on eBay",
	}
}
