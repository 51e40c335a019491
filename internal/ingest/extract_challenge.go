package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/david/ai-lead-finder/internal/models"
)

var challengePlaceholders = placeholders{
	name:   "Challenge Manager",
	role:   "Challenge Lead",
	office: "Challenge.gov",
	agency: "Challenge.gov",
	kind:   "challenge",
}

// ChallengeSiteExtractor reads prize-competition listings. The payload is
// expected to be JSON; when it does not decode, the HTML listing is parsed
// instead.
type ChallengeSiteExtractor struct {
	Relevance *Relevance
}

func NewChallengeSiteExtractor(rel *Relevance) *ChallengeSiteExtractor {
	return &ChallengeSiteExtractor{Relevance: rel}
}

func (e *ChallengeSiteExtractor) Extract(payload []byte, src SourceConfig, now time.Time) []ItemResult {
	items, err := decodeChallengeList(payload)
	if err != nil {
		return e.extractHTML(payload, src, now)
	}
	return e.extractJSON(items, src, now)
}

// decodeChallengeList accepts a bare array or an object wrapping the array.
func decodeChallengeList(payload []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(payload)
	var list []json.RawMessage
	if err := json.Unmarshal(trimmed, &list); err == nil {
		return list, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, fmt.Errorf("decode challenges: %w", err)
	}
	for _, key := range []string{"challenges", "data", "results", "items"} {
		raw, ok := wrapper[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &list); err == nil {
			return list, nil
		}
	}
	return nil, fmt.Errorf("decode challenges: no challenge list in object")
}

func (e *ChallengeSiteExtractor) extractJSON(items []json.RawMessage, src SourceConfig, now time.Time) []ItemResult {
	base := src.ResolveBase()
	results := make([]ItemResult, 0, len(items))
	kept := 0

	for i, raw := range items {
		index := i + 1
		var item map[string]any
		if err := json.Unmarshal(raw, &item); err != nil || item == nil {
			detail := "not an object"
			if err != nil {
				detail = err.Error()
			}
			results = append(results, skipped(src.ID, index, SkipMalformed, detail))
			continue
		}

		title := sanitizeText(stringField(item, "title", "name"))
		if utf8.RuneCountInString(title) < 3 {
			results = append(results, skipped(src.ID, index, SkipNoTitle, ""))
			continue
		}

		description := sanitizeText(stringField(item, "description", "summary", "brief_description", "tagline"))
		tags := stringList(item, "tags", "categories", "types")
		if !e.relevance().Match(title, description, strings.Join(tags, " ")) {
			results = append(results, skipped(src.ID, index, SkipIrrelevant, title))
			continue
		}

		link := stringField(item, "url", "external_url", "link")
		if link == "" {
			if slug := stringField(item, "slug", "custom_url"); slug != "" {
				link = "/challenge/" + strings.Trim(slug, "/")
			}
		}

		kept++
		rec := newRecord(src, models.SourceChallengeSite, challengePlaceholders, kept, now)
		if id := stringField(item, "id"); id != "" {
			rec.ID = src.ID + "-" + id
		}
		rec.Title = title
		if agency := sanitizeText(stringField(item, "agency", "agency_name")); agency != "" {
			rec.Agency = agency
		}
		rec.Description = challengeDescription(title, description)
		rec.Contact.URL = resolveURL(base, link)
		rec.Tags = tags
		if posted := parseDatePtr(stringField(item, "start_date", "published_at", "created_at")); posted != nil {
			rec.PostedDate = posted
		}
		rec.DueDate = parseDatePtr(stringField(item, "end_date", "deadline", "close_date"))
		for _, key := range []string{"prize_total", "total_prize", "prize_amount"} {
			if v := amountFromAny(item[key]); v > 0 {
				rec.Value = v
				break
			}
		}
		results = append(results, accepted(rec))
	}
	return results
}

func (e *ChallengeSiteExtractor) extractHTML(payload []byte, src SourceConfig, now time.Time) []ItemResult {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return []ItemResult{skipped(src.ID, 0, SkipMalformed, err.Error())}
	}

	_, candidates := firstCandidates(contentScope(doc), []candidateStrategy{
		bySelector("configured", src.Selectors.Container),
		bySelector("semantic", "article"),
		byClassKeyword("div, article, li", "card", "item", "challenge", "listing"),
		byHeadingAndLink("div, article", true),
	})
	cards := innermost(candidates)

	base := src.ResolveBase()
	var results []ItemResult
	kept := 0

	cards.Each(func(i int, card *goquery.Selection) {
		index := i + 1

		titleElem := findFirst(card, "h2, h3, h4", "title")
		if titleElem.Length() == 0 {
			titleElem = card.Find("h2, h3, h4").First()
		}
		title := selectionText(titleElem)
		if utf8.RuneCountInString(title) < 3 {
			results = append(results, skipped(src.ID, index, SkipNoTitle, ""))
			return
		}

		agencyElem := findFirst(card, "div, span, p", "agency", "department")
		if agencyElem.Length() == 0 {
			agencyElem = card.Find("div, span, p").FilterFunction(func(_ int, s *goquery.Selection) bool {
				lower := strings.ToLower(strings.TrimSpace(s.Text()))
				return strings.HasPrefix(lower, "agency:") || strings.HasPrefix(lower, "department:")
			}).First()
		}
		agency := stripLabel(selectionText(agencyElem), "agency:", "department:")

		description := selectionText(findFirst(card, "div, p, span", "desc", "excerpt", "summary", "content"))
		if description == "" {
			description = selectionText(card.Find("[data-description]").First())
		}
		if description == "" {
			card.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
				if agencyElem.Length() > 0 && p.IsSelection(agencyElem) {
					return true
				}
				if t := selectionText(p); t != "" && t != title {
					description = t
					return false
				}
				return true
			})
		}

		link := titleElem.Find("a[href]").First()
		if link.Length() == 0 {
			link = card.Find("a[href]").First()
		}
		href := link.AttrOr("href", "")
		if href == "" {
			href = card.AttrOr("data-url", "")
		}
		if description == "" && link.Length() > 0 {
			description = recoverDescription(link, card, title)
		}

		if !e.relevance().Match(title, description) {
			results = append(results, skipped(src.ID, index, SkipIrrelevant, title))
			return
		}

		kept++
		rec := newRecord(src, models.SourceChallengeSite, challengePlaceholders, kept, now)
		rec.Title = title
		if agency != "" {
			rec.Agency = agency
		}
		rec.Description = challengeDescription(title, description)
		rec.Contact.URL = resolveURL(base, href)
		if posted := parseDatePtr(card.Find("time[datetime]").First().AttrOr("datetime", "")); posted != nil {
			rec.PostedDate = posted
		}
		rec.Value = parseAmount(selectionText(findFirst(card, "div, span, p", "prize", "award")))
		results = append(results, accepted(rec))
	})

	return results
}

func (e *ChallengeSiteExtractor) relevance() *Relevance {
	if e.Relevance == nil {
		return defaultRelevance
	}
	return e.Relevance
}

func challengeDescription(title, description string) string {
	if description == "" {
		return title
	}
	return title + " - " + description
}

// stringField returns the first non-empty string-like value among keys.
func stringField(item map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := item[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		case map[string]any:
			if s := stringField(v, "name", "title", "value"); s != "" {
				return s
			}
		}
	}
	return ""
}

// stringList reads tag-like fields that may hold strings or {"name": ...}
// objects.
func stringList(item map[string]any, keys ...string) []string {
	var out []string
	for _, k := range keys {
		switch v := item[k].(type) {
		case []any:
			for _, el := range v {
				switch t := el.(type) {
				case string:
					out = appendUnique(out, t)
				case map[string]any:
					out = appendUnique(out, stringField(t, "name", "title", "value"))
				}
			}
		case string:
			out = mergeUniqueFold(out, strings.Split(v, ","))
		}
	}
	return out
}
