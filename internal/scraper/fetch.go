package scraper

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"sjsage522/cardmonitor/helpers"
	"sjsage522/cardmonitor/logger"
)

// HTTPFetcher fetches pages with a plain HTTP GET and browser-like headers
type HTTPFetcher struct{}

// NewHTTPFetcher creates a new HTTP fetcher
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{}
}

// Fetch retrieves the page at url
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	return helpers.FetchWithRandomHeaders(ctx, url)
}

// ChromeFetcher renders pages in a headless Chrome so that client-side
// result lists are populated before parsing.
type ChromeFetcher struct {
	allocCtx     context.Context
	cancel       context.CancelFunc
	waitSelector string
	settle       time.Duration
	timeout      time.Duration
}

// NewChromeFetcher creates a Chrome fetcher. With a remoteAddr
// (ws://host:9222) it attaches to a running browser, otherwise it launches
// a local headless one.
func NewChromeFetcher(remoteAddr string, waitSelector string) *ChromeFetcher {
	var allocCtx context.Context
	var cancel context.CancelFunc

	if remoteAddr != "" {
		allocCtx, cancel = chromedp.NewRemoteAllocator(context.Background(), remoteAddr)
		logger.ForScraper("").Info().Str("chrome_addr", remoteAddr).Msg("Using remote Chrome")
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.UserAgent(helpers.RandomUserAgent()),
			chromedp.WindowSize(1920, 1080),
		)
		allocCtx, cancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	return &ChromeFetcher{
		allocCtx:     allocCtx,
		cancel:       cancel,
		waitSelector: waitSelector,
		settle:       3 * time.Second,
		timeout:      60 * time.Second,
	}
}

// Fetch navigates to url, waits for the results container and returns the rendered HTML
func (f *ChromeFetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	tabCtx, cancelTab := chromedp.NewContext(f.allocCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.timeout)
	defer cancelTimeout()

	// Tie the tab to the caller's lifetime
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	actions := []chromedp.Action{chromedp.Navigate(url)}
	if f.waitSelector != "" {
		actions = append(actions, chromedp.WaitReady(f.waitSelector, chromedp.ByQuery))
	}
	if f.settle > 0 {
		actions = append(actions, chromedp.Sleep(f.settle))
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}

	return strings.NewReader(html), nil
}

// Close shuts down the browser allocator
func (f *ChromeFetcher) Close() {
	f.cancel()
}
