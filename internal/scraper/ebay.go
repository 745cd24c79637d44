package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"sjsage522/cardmonitor/helpers"
	"sjsage522/cardmonitor/internal/deal"
	"sjsage522/cardmonitor/logger"
	apperrors "sjsage522/cardmonitor/pkg/errors"
	"sjsage522/cardmonitor/services/cache"
)

const (
	// rateLimitKey is shared by every query; eBay throttles per client, not per search
	rateLimitKey = "ebay:rate_limited"

	sortNewlyListed = "10"
)

// BuildSearchURL builds the search results URL for a query and listing format,
// sorted by newly listed.
func BuildSearchURL(base string, spec deal.QuerySpec, listingType deal.ListingType) string {
	terms := make([]string, 0, len(spec.Include)+len(spec.Exclude))
	terms = append(terms, spec.Include...)
	for _, term := range spec.ExcludeTerms() {
		terms = append(terms, "-"+term)
	}

	params := url.Values{}
	params.Set("_nkw", strings.Join(terms, " "))
	params.Set("_sop", sortNewlyListed)
	switch listingType {
	case deal.Auction:
		params.Set("LH_Auction", "1")
	default:
		params.Set("LH_BIN", "1")
	}

	return base + "?" + params.Encode()
}

// EbayScraper searches eBay and parses the results page
type EbayScraper struct {
	BaseURL   string
	Fetcher   Fetcher
	Parser    *Parser
	CacheSvc  cache.CacheService
	BlockTime time.Duration
	now       func() time.Time
}

// NewEbayScraper creates a new eBay scraper
func NewEbayScraper(baseURL string, fetcher Fetcher, cacheSvc cache.CacheService, blockTime time.Duration) *EbayScraper {
	return &EbayScraper{
		BaseURL:   baseURL,
		Fetcher:   fetcher,
		Parser:    NewParser(),
		CacheSvc:  cacheSvc,
		BlockTime: blockTime,
		now:       time.Now,
	}
}

// Search fetches one listing format for the query and returns the parsed listings.
// While a rate-limit block is active no request is sent.
func (s *EbayScraper) Search(ctx context.Context, query string, spec deal.QuerySpec, listingType deal.ListingType) ([]deal.Listing, error) {
	log := logger.ForScraper(query)

	if s.isBlocked(query) {
		return nil, apperrors.NewRateLimit(query, s.BlockTime)
	}

	searchURL := BuildSearchURL(s.BaseURL, spec, listingType)
	log.Debug().Str("url", searchURL).Str("format", string(listingType)).Msg("Searching")

	body, err := s.Fetcher.Fetch(ctx, searchURL)
	if err != nil {
		if errors.Is(err, helpers.ErrRateLimited) {
			s.block(query)
			return nil, apperrors.NewRateLimit(query, s.BlockTime)
		}
		return nil, apperrors.NewNetwork(query, "failed to fetch search results", err)
	}

	listings, err := s.Parser.ParseListings(body, s.now())
	if err != nil {
		return nil, apperrors.NewParsing(query, "failed to parse search results", err)
	}

	// The URL filter already restricts the format
	for i := range listings {
		listings[i].Type = listingType
	}

	log.Debug().Int("count", len(listings)).Str("format", string(listingType)).Msg("Parsed listings")
	return listings, nil
}

func (s *EbayScraper) isBlocked(query string) bool {
	if s.CacheSvc == nil {
		return false
	}
	_, err := s.CacheSvc.Get(rateLimitKey)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		// An unreachable cache never blocks scanning
		logger.ForCache().Warn().Err(apperrors.NewCache(query, "failed to read rate limit block", err)).Send()
	}
	return err == nil
}

func (s *EbayScraper) block(query string) {
	if s.CacheSvc == nil || s.BlockTime <= 0 {
		return
	}
	value := []byte(fmt.Sprintf("%d", s.BlockTime/time.Second))
	if err := s.CacheSvc.Set(rateLimitKey, value, s.BlockTime); err != nil {
		logger.ForCache().Warn().Err(apperrors.NewCache(query, "failed to store rate limit block", err)).Send()
	}
}
