package ingest

import (
	"sort"

	"github.com/david/ai-lead-finder/internal/models"
)

// Deduplicate keeps the first record seen for each (title, agency) key and
// orders the survivors by posted date, newest first. Records without a date
// sort last. Ties keep their input order, so the function is idempotent.
func Deduplicate(records []models.OpportunityRecord) []models.OpportunityRecord {
	seen := make(map[models.RecordKey]struct{}, len(records))
	result := make([]models.OpportunityRecord, 0, len(records))

	for _, r := range records {
		key := r.Key()
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, r)
	}

	sort.SliceStable(result, func(i, j int) bool {
		di, dj := result[i].PostedDate, result[j].PostedDate
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.After(*dj)
		}
	})
	return result
}
