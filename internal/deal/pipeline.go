package deal

import "time"

// Pipeline runs match, classify and dedup for watch entries
type Pipeline struct {
	classifier *Classifier
}

// NewPipeline creates a pipeline around the given classifier
func NewPipeline(classifier *Classifier) *Pipeline {
	return &Pipeline{classifier: classifier}
}

// EvaluateEntry evaluates listings, in the order given, against a single
// watch entry. Qualifying listings that the store has not seen for this key
// are returned and marked seen. Rejected listings leave no trace, so a later
// price drop can still qualify.
func (p *Pipeline) EvaluateEntry(entry WatchEntry, listings []Listing, store SeenStore, now time.Time) ([]DealResult, error) {
	spec, err := ParseQuery(entry.Key, entry.MaxPrice)
	if err != nil {
		return nil, err
	}

	var deals []DealResult
	for _, listing := range listings {
		if listing.ID == "" {
			continue
		}
		if !Matches(listing, spec) {
			continue
		}

		result := p.classifier.Classify(listing, spec, now)
		if !result.Qualifies {
			continue
		}
		if store.HasSeen(listing.ID, entry.Key) {
			continue
		}

		result.WatchKey = entry.Key
		deals = append(deals, result)
		store.MarkSeen(listing.ID, entry.Key, now)
	}

	return deals, nil
}

// Evaluate runs every watchlist entry, in order, over the same listings.
// Entries whose key does not parse are skipped.
func (p *Pipeline) Evaluate(listings []Listing, watchlist Watchlist, store SeenStore, now time.Time) []DealResult {
	var deals []DealResult
	for _, entry := range watchlist {
		entryDeals, err := p.EvaluateEntry(entry, listings, store, now)
		if err != nil {
			continue
		}
		deals = append(deals, entryDeals...)
	}
	return deals
}
