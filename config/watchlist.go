package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"sjsage522/cardmonitor/internal/deal"
)

// watchlistFile is the on-disk layout:
//
//	watchlist:
//	  "dylan harper d-2 refractor": 7.00
//	  "amen thompson 150 silver -ice": 38.00
//
// The mapping is decoded node by node so entries keep file order.
type watchlistFile struct {
	Watchlist yaml.Node `yaml:"watchlist"`
}

// LoadWatchlist reads the ordered watchlist from a YAML file
func LoadWatchlist(path string) (deal.Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading watchlist %s: %w", path, err)
	}
	return ParseWatchlist(data)
}

// ParseWatchlist decodes watchlist YAML, preserving entry order. Keys are
// not validated here; unparseable keys are skipped at scan time.
func ParseWatchlist(data []byte) (deal.Watchlist, error) {
	var file watchlistFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing watchlist: %w", err)
	}

	node := file.Watchlist
	if node.Kind == 0 {
		return nil, fmt.Errorf("parsing watchlist: missing top-level watchlist mapping")
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parsing watchlist: line %d: watchlist must be a mapping of query to max price", node.Line)
	}

	watchlist := make(deal.Watchlist, 0, len(node.Content)/2)
	seen := make(map[string]bool)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		var key string
		if err := keyNode.Decode(&key); err != nil {
			return nil, fmt.Errorf("parsing watchlist: line %d: %w", keyNode.Line, err)
		}
		if seen[key] {
			return nil, fmt.Errorf("parsing watchlist: line %d: duplicate query %q", keyNode.Line, key)
		}
		seen[key] = true

		maxPrice, err := decimal.NewFromString(valueNode.Value)
		if err != nil {
			return nil, fmt.Errorf("parsing watchlist: line %d: max price for %q: %w", valueNode.Line, key, err)
		}

		watchlist = append(watchlist, deal.WatchEntry{Key: key, MaxPrice: maxPrice})
	}

	return watchlist, nil
}
