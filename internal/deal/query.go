package deal

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidQuery is returned for a watchlist key that cannot be searched
var ErrInvalidQuery = errors.New("invalid query")

// ParseQuery turns a raw watchlist key into include and exclude terms.
// Tokens prefixed with "-" (longer than the prefix alone) are exclusions.
func ParseQuery(rawKey string, maxPrice decimal.Decimal) (QuerySpec, error) {
	spec := QuerySpec{
		Exclude:  make(map[string]struct{}),
		MaxPrice: maxPrice,
	}

	for _, token := range strings.Fields(rawKey) {
		token = strings.ToLower(token)
		if len(token) > 1 && strings.HasPrefix(token, "-") {
			spec.Exclude[token[1:]] = struct{}{}
			continue
		}
		spec.Include = append(spec.Include, token)
	}

	if len(spec.Include) == 0 {
		return QuerySpec{}, fmt.Errorf("%w: %q has no include terms", ErrInvalidQuery, rawKey)
	}
	if !maxPrice.IsPositive() {
		return QuerySpec{}, fmt.Errorf("%w: %q max price %s must be positive", ErrInvalidQuery, rawKey, maxPrice)
	}

	return spec, nil
}

// ExcludeTerms returns the exclusions in sorted order
func (s QuerySpec) ExcludeTerms() []string {
	terms := make([]string, 0, len(s.Exclude))
	for term := range s.Exclude {
		terms = append(terms, term)
	}
	slices.Sort(terms)
	return terms
}
