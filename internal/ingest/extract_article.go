package ingest

import (
	"bytes"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/david/ai-lead-finder/internal/models"
)

var articlePlaceholders = placeholders{
	name:   "Digital.gov Team",
	role:   "Digital.gov Author",
	office: "Digital.gov",
	agency: "Digital.gov",
	kind:   "tech_info",
}

// ArticleSiteExtractor reads article/blog listings. The byline, when present,
// becomes the contact name.
type ArticleSiteExtractor struct {
	Relevance *Relevance
}

func NewArticleSiteExtractor(rel *Relevance) *ArticleSiteExtractor {
	return &ArticleSiteExtractor{Relevance: rel}
}

func (e *ArticleSiteExtractor) Extract(payload []byte, src SourceConfig, now time.Time) []ItemResult {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return []ItemResult{skipped(src.ID, 0, SkipMalformed, err.Error())}
	}

	_, candidates := firstCandidates(contentScope(doc), []candidateStrategy{
		bySelector("configured", src.Selectors.Container),
		bySelector("semantic", "article"),
		byClassKeyword("div, li", "post", "article"),
		byHeadingAndLink("div, li", false),
	})

	articles := innermost(candidates)

	base := src.ResolveBase()
	var results []ItemResult
	kept := 0

	articles.Each(func(i int, article *goquery.Selection) {
		index := i + 1

		titleElem := findFirst(article, "h2, h3, h4", "title")
		if titleElem.Length() == 0 {
			titleElem = article.Find("h2, h3, h4").First()
		}
		title := selectionText(titleElem)
		if utf8.RuneCountInString(title) < 3 {
			results = append(results, skipped(src.ID, index, SkipNoTitle, ""))
			return
		}

		description := selectionText(findFirst(article, "div, p", "excerpt", "summary"))
		if description == "" {
			description = selectionText(findFirst(article, "div, p", "content"))
		}
		if description == "" {
			description = selectionText(article.Find("p").First())
		}

		link := titleElem.Find("a[href]").First()
		if link.Length() == 0 {
			link = article.Find("a[href]").First()
		}

		if !e.relevance().Match(title, description) {
			results = append(results, skipped(src.ID, index, SkipIrrelevant, title))
			return
		}

		kept++
		rec := newRecord(src, models.SourceArticleSite, articlePlaceholders, kept, now)
		rec.Title = title
		rec.Description = description
		rec.Contact.URL = resolveURL(base, link.AttrOr("href", ""))
		if author := articleAuthor(article); author != "" {
			rec.Name = author
		}
		if posted := parseDatePtr(articleDate(article)); posted != nil {
			rec.PostedDate = posted
		}
		article.Find("a[rel=tag], .tag, .tags a").Each(func(_ int, t *goquery.Selection) {
			rec.Tags = appendUnique(rec.Tags, selectionText(t))
		})
		results = append(results, accepted(rec))
	})

	return results
}

func (e *ArticleSiteExtractor) relevance() *Relevance {
	if e.Relevance == nil {
		return defaultRelevance
	}
	return e.Relevance
}

func articleAuthor(article *goquery.Selection) string {
	text := selectionText(findFirst(article, "div, span, p, a", "author", "byline"))
	text = strings.TrimSpace(text)
	if strings.HasPrefix(strings.ToLower(text), "by ") {
		text = strings.TrimSpace(text[3:])
	}
	return text
}

func articleDate(article *goquery.Selection) string {
	t := article.Find("time").First()
	if dt := t.AttrOr("datetime", ""); dt != "" {
		return dt
	}
	if text := selectionText(t); text != "" {
		return text
	}
	return selectionText(findFirst(article, "div, span, p", "date", "published"))
}
