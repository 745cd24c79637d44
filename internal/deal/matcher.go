package deal

import "strings"

// Matches reports whether the listing title contains every include term and
// none of the exclude terms. Containment is plain substring matching, so
// "psa10" satisfies the include term "10".
func Matches(listing Listing, spec QuerySpec) bool {
	title := strings.ToLower(listing.Title)

	for _, term := range spec.Include {
		if !strings.Contains(title, term) {
			return false
		}
	}

	for term := range spec.Exclude {
		if strings.Contains(title, term) {
			return false
		}
	}

	return true
}
