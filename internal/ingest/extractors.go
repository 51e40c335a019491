package ingest

import (
	"fmt"
	"sort"
	"time"

	"github.com/david/ai-lead-finder/internal/models"
)

// Extractor turns one fetched payload into per-item results.
type Extractor interface {
	Extract(payload []byte, src SourceConfig, now time.Time) []ItemResult
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(payload []byte, src SourceConfig, now time.Time) []ItemResult

func (f ExtractorFunc) Extract(payload []byte, src SourceConfig, now time.Time) []ItemResult {
	return f(payload, src, now)
}

// ExtractorRegistry maps extractor ids (from sources.yaml) to implementations.
type ExtractorRegistry struct {
	extractors map[string]Extractor
}

func NewExtractorRegistry() *ExtractorRegistry {
	return &ExtractorRegistry{
		extractors: make(map[string]Extractor),
	}
}

// DefaultExtractors returns a registry with the built-in extractors.
func DefaultExtractors() *ExtractorRegistry {
	r := NewExtractorRegistry()
	r.Register(string(models.SourceIndexSite), NewIndexSiteExtractor(defaultRelevance))
	r.Register(string(models.SourceChallengeSite), NewChallengeSiteExtractor(defaultRelevance))
	r.Register(string(models.SourceArticleSite), NewArticleSiteExtractor(defaultRelevance))
	return r
}

func (r *ExtractorRegistry) Register(id string, e Extractor) {
	r.extractors[id] = e
}

func (r *ExtractorRegistry) Get(id string) (Extractor, error) {
	e, ok := r.extractors[id]
	if !ok {
		return nil, fmt.Errorf("extractor not found: %s", id)
	}
	return e, nil
}

// IDs returns the registered ids in sorted order.
func (r *ExtractorRegistry) IDs() []string {
	ids := make([]string, 0, len(r.extractors))
	for id := range r.extractors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// placeholders are the contact defaults an extractor assigns to its records.
type placeholders struct {
	name, role, office, agency, kind string
}

// newRecord builds a record with the source's placeholders applied. The
// source configuration overrides the extractor defaults.
func newRecord(src SourceConfig, kind models.SourceKind, def placeholders, seq int, now time.Time) *models.OpportunityRecord {
	pick := func(override, fallback string) string {
		if override != "" {
			return override
		}
		return fallback
	}
	posted := now
	return &models.OpportunityRecord{
		ID:         fmt.Sprintf("%s-%d", src.ID, seq),
		Source:     kind,
		SourceID:   src.ID,
		Type:       pick(src.Type, def.kind),
		Name:       pick(src.Placeholder.Name, def.name),
		Role:       pick(src.Placeholder.Role, def.role),
		Office:     pick(src.Placeholder.Office, def.office),
		Agency:     pick(src.Placeholder.Agency, def.agency),
		PostedDate: &posted,
		DateAdded:  now,
	}
}
