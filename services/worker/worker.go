package worker

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"sjsage522/cardmonitor/helpers"
	"sjsage522/cardmonitor/internal/deal"
	"sjsage522/cardmonitor/internal/scraper"
	apperrors "sjsage522/cardmonitor/pkg/errors"
	"sjsage522/cardmonitor/services/notifier"
	"sjsage522/cardmonitor/services/publisher"
	"sjsage522/cardmonitor/services/server"
	"sjsage522/cardmonitor/services/store"
)

// Options controls a scan
type Options struct {
	// ListingFormats are searched in order for every watch entry
	ListingFormats []deal.ListingType
	// DelayMin and DelayMax bound the random pause between watch entries
	DelayMin time.Duration
	DelayMax time.Duration
	// PublicURL is the clear server base URL embedded in alerts; empty disables the link
	PublicURL string
}

// Summary describes the outcome of one scan
type Summary struct {
	ScanID    string
	Entries   int
	Skipped   int
	Failed    int
	Listings  int
	NewDeals  int
	Committed int
	Duration  time.Duration
}

// Worker runs scans over the watchlist
type Worker struct {
	watchlist deal.Watchlist
	searcher  scraper.Searcher
	pipeline  *deal.Pipeline
	store     *store.Store
	publisher publisher.Publisher
	notifiers []notifier.Notifier
	logger    helpers.LoggerInterface
	opts      Options
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewWorker creates a new worker. pub may be nil.
func NewWorker(
	watchlist deal.Watchlist,
	searcher scraper.Searcher,
	pipeline *deal.Pipeline,
	st *store.Store,
	pub publisher.Publisher,
	notifiers []notifier.Notifier,
	logger helpers.LoggerInterface,
	opts Options,
) *Worker {
	if len(opts.ListingFormats) == 0 {
		opts.ListingFormats = []deal.ListingType{deal.BuyItNow}
	}
	return &Worker{
		watchlist: watchlist,
		searcher:  searcher,
		pipeline:  pipeline,
		store:     st,
		publisher: pub,
		notifiers: notifiers,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// RunScan scans every watch entry once, in watchlist order. Entries are
// processed one at a time; a failure in one entry never stops the scan.
func (w *Worker) RunScan(ctx context.Context) Summary {
	start := w.now()
	summary := Summary{ScanID: uuid.NewString()}
	w.logger.LogInfo("[scan %s] started with %d watch entries", summary.ScanID, len(w.watchlist))

	// Pick up resets made while we were idle
	if err := w.store.Load(); err != nil {
		w.logger.LogError("store", err)
	}

	for i, entry := range w.watchlist {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			if err := w.sleep(ctx, w.jitter()); err != nil {
				break
			}
		}

		summary.Entries++
		w.scanEntry(ctx, entry, &summary)
	}

	if w.store.Dirty() {
		if err := w.store.Save(); err != nil {
			w.logger.LogError("store", err)
		}
	}

	if w.publisher != nil {
		if err := w.publisher.TrimStreams(); err != nil {
			w.logger.LogError("StreamTrimming", err)
		}
	}

	summary.Duration = w.now().Sub(start)
	w.logger.LogInfo("[scan %s] complete: %d new deal(s) from %d listing(s) in %s",
		summary.ScanID, summary.NewDeals, summary.Listings, summary.Duration)
	return summary
}

func (w *Worker) scanEntry(ctx context.Context, entry deal.WatchEntry, summary *Summary) {
	spec, err := deal.ParseQuery(entry.Key, entry.MaxPrice)
	if err != nil {
		w.logger.LogError(entry.Key, apperrors.NewValidation(entry.Key, err.Error()))
		summary.Skipped++
		return
	}

	var listings []deal.Listing
	failures := 0
	for _, format := range w.opts.ListingFormats {
		found, err := w.searcher.Search(ctx, entry.Key, spec, format)
		if err != nil {
			w.logger.LogError(entry.Key, err)
			failures++
			continue
		}
		listings = append(listings, found...)
	}
	if failures == len(w.opts.ListingFormats) {
		summary.Failed++
		return
	}
	summary.Listings += len(listings)

	batch := store.NewBatch(w.store)
	deals, err := w.pipeline.EvaluateEntry(entry, listings, batch, w.now())
	if err != nil {
		w.logger.LogError(entry.Key, err)
		summary.Skipped++
		return
	}

	if len(deals) == 0 {
		w.logger.LogInfo("%s: no new deals under $%s in %d listing(s)", entry.Key, entry.MaxPrice.StringFixed(2), len(listings))
		return
	}

	summary.NewDeals += len(deals)
	if w.deliver(ctx, entry, deals) {
		summary.Committed += batch.Commit()
		w.logger.LogInfo("%s: %d new deal(s) alerted", entry.Key, len(deals))
		return
	}

	// Undelivered deals alert again next scan
	batch.Discard()
}

// deliver sends the deals to every sink and reports whether all of them succeeded
func (w *Worker) deliver(ctx context.Context, entry deal.WatchEntry, deals []deal.DealResult) bool {
	ok := true

	if w.publisher != nil {
		if err := publisher.PublishDeals(w.publisher, entry, deals, w.now()); err != nil {
			w.logger.LogError(entry.Key, err)
			ok = false
		}
	}

	alert := notifier.Alert{Entry: entry, Deals: deals}
	if w.opts.PublicURL != "" {
		alert.ClearURL = server.ClearURL(w.opts.PublicURL, entry.Key)
	}

	for _, n := range w.notifiers {
		if err := n.Notify(ctx, alert); err != nil {
			w.logger.LogError(entry.Key, err)
			ok = false
		}
	}

	return ok
}

func (w *Worker) jitter() time.Duration {
	lo, hi := w.opts.DelayMin, w.opts.DelayMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo+1)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
