package schedule

import (
	"strings"

	"github.com/tutorcal/tutorcal-api/internal/models"
)

// BaseClassID strips the "#<slot>" variant suffix used internally to
// disambiguate multi-schedule entries.
func BaseClassID(variantID string) string {
	if i := strings.IndexByte(variantID, '#'); i >= 0 {
		return variantID[:i]
	}
	return variantID
}

type dedupeKey struct {
	ClassID string
	Date    models.DateKey
}

// Dedupe collapses same-day duplicates to one occurrence per (base class,
// date). Two slots of a multiple-schedule class emitting to the same day
// should not happen by construction, but is tolerated: the first encountered
// wins.
func Dedupe(occurrences []RawOccurrence) []RawOccurrence {
	seen := make(map[dedupeKey]struct{}, len(occurrences))
	result := make([]RawOccurrence, 0, len(occurrences))
	for _, occ := range occurrences {
		key := dedupeKey{ClassID: BaseClassID(occ.VariantID), Date: occ.Date}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, occ)
	}
	return result
}
