package ingest

import (
	"bytes"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/david/ai-lead-finder/internal/models"
)

var indexPlaceholders = placeholders{
	name:   "Technology Leadership",
	role:   "AI Program Lead",
	office: "Technology and Innovation",
	kind:   "agency_info",
}

// IndexSiteExtractor reads an A-Z style index of agencies. Every content link
// is an agency; its description comes from the surrounding markup.
type IndexSiteExtractor struct {
	Relevance *Relevance
}

func NewIndexSiteExtractor(rel *Relevance) *IndexSiteExtractor {
	return &IndexSiteExtractor{Relevance: rel}
}

func (e *IndexSiteExtractor) Extract(payload []byte, src SourceConfig, now time.Time) []ItemResult {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return []ItemResult{skipped(src.ID, 0, SkipMalformed, err.Error())}
	}

	_, containers := firstCandidates(contentScope(doc), []candidateStrategy{
		bySelector("configured", src.Selectors.Container),
		bySelector("semantic", "[role=region], section[aria-labelledby]"),
		byClassKeyword("section, div", "content", "agency", "department"),
		byHeadingAndLink("div", false),
	})

	base := src.ResolveBase()
	seen := make(map[string]struct{})
	var results []ItemResult
	index := 0
	kept := 0

	containers.Each(func(_ int, container *goquery.Selection) {
		container.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			href := link.AttrOr("href", "")
			name := selectionText(link)

			// Nested containers expose the same anchor more than once.
			key := name + "\x00" + href
			if _, dup := seen[key]; dup {
				return
			}
			seen[key] = struct{}{}
			index++

			if isNavigation(link) {
				results = append(results, skipped(src.ID, index, SkipNavigation, href))
				return
			}
			if utf8.RuneCountInString(name) < 3 {
				results = append(results, skipped(src.ID, index, SkipNoTitle, href))
				return
			}

			description := recoverDescription(link, container, name)
			if !e.relevance().Match(name, description) {
				results = append(results, skipped(src.ID, index, SkipIrrelevant, name))
				return
			}

			kept++
			rec := newRecord(src, models.SourceIndexSite, indexPlaceholders, kept, now)
			rec.Title = name
			rec.Agency = name
			rec.Description = description
			rec.Contact.URL = resolveURL(base, href)
			results = append(results, accepted(rec))
		})
	})

	return results
}

func (e *IndexSiteExtractor) relevance() *Relevance {
	if e.Relevance == nil {
		return defaultRelevance
	}
	return e.Relevance
}
