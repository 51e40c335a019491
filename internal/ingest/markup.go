package ingest

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// navClassTokens marks links that belong to page chrome rather than content.
var navClassTokens = []string{"nav", "menu", "utility", "footer", "breadcrumb", "skip-link"}

// candidateStrategy is one structural hypothesis for where items live on a page.
type candidateStrategy struct {
	name string
	find func(scope *goquery.Selection) *goquery.Selection
}

// firstCandidates evaluates strategies in order; the first one that yields at
// least one container wins.
func firstCandidates(scope *goquery.Selection, strategies []candidateStrategy) (string, *goquery.Selection) {
	for _, s := range strategies {
		found := s.find(scope)
		if found != nil && found.Length() > 0 {
			return s.name, found
		}
	}
	return "", scope.Slice(0, 0)
}

// bySelector matches an explicit CSS selector. An empty selector never matches.
func bySelector(name, selector string) candidateStrategy {
	return candidateStrategy{
		name: name,
		find: func(scope *goquery.Selection) *goquery.Selection {
			if strings.TrimSpace(selector) == "" {
				return nil
			}
			return scope.Find(selector)
		},
	}
}

// byClassKeyword matches elements of the given tags whose class attribute
// contains any keyword (case-insensitive substring).
func byClassKeyword(tags string, keywords ...string) candidateStrategy {
	return candidateStrategy{
		name: "class:" + strings.Join(keywords, "|"),
		find: func(scope *goquery.Selection) *goquery.Selection {
			return scope.Find(tags).FilterFunction(func(_ int, s *goquery.Selection) bool {
				return classContains(s, keywords...)
			})
		},
	}
}

// byHeadingAndLink is the generic fallback: any element of the given tags that
// holds a heading and a link (and a paragraph when withParagraph is set).
func byHeadingAndLink(tags string, withParagraph bool) candidateStrategy {
	return candidateStrategy{
		name: "heading+link",
		find: func(scope *goquery.Selection) *goquery.Selection {
			return scope.Find(tags).FilterFunction(func(_ int, s *goquery.Selection) bool {
				if s.Find("h1, h2, h3, h4").Length() == 0 || s.Find("a[href]").Length() == 0 {
					return false
				}
				return !withParagraph || s.Find("p").Length() > 0
			})
		},
	}
}

// innermost drops candidates that contain another candidate, so list wrappers
// and cards nested in cards do not emit the same item twice.
func innermost(candidates *goquery.Selection) *goquery.Selection {
	return candidates.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find("*").FilterFunction(func(_ int, d *goquery.Selection) bool {
			return d.IsSelection(candidates)
		}).Length() == 0
	})
}

// contentScope returns <main> when the page has one, otherwise the whole document.
func contentScope(doc *goquery.Document) *goquery.Selection {
	if main := doc.Find("main").First(); main.Length() > 0 {
		return main
	}
	return doc.Selection
}

func classContains(s *goquery.Selection, keywords ...string) bool {
	class := strings.ToLower(s.AttrOr("class", ""))
	if class == "" {
		return false
	}
	for _, k := range keywords {
		if strings.Contains(class, k) {
			return true
		}
	}
	return false
}

func hasClassToken(s *goquery.Selection, tokens ...string) bool {
	for _, c := range strings.Fields(strings.ToLower(s.AttrOr("class", ""))) {
		for _, t := range tokens {
			if c == t {
				return true
			}
		}
	}
	return false
}

// isNavigation reports links styled as navigation or sitting in page chrome,
// and hrefs that cannot point at a content page.
func isNavigation(link *goquery.Selection) bool {
	if hasClassToken(link, navClassTokens...) {
		return true
	}
	if link.Closest("nav, header, footer").Length() > 0 {
		return true
	}
	href := strings.ToLower(strings.TrimSpace(link.AttrOr("href", "")))
	for _, p := range []string{"#", "javascript:", "mailto:", "tel:"} {
		if strings.HasPrefix(href, p) {
			return true
		}
	}
	return false
}

// findFirst returns the first descendant of s matching selector whose class
// contains one of the keywords. With no keywords any match is accepted.
func findFirst(s *goquery.Selection, selector string, keywords ...string) *goquery.Selection {
	found := s.Find(selector)
	if len(keywords) == 0 {
		return found.First()
	}
	return found.FilterFunction(func(_ int, e *goquery.Selection) bool {
		return classContains(e, keywords...)
	}).First()
}

// recoverDescription finds descriptive text for an anchor that differs from
// its title. It tries the enclosing paragraph, following paragraphs and a
// description block, then walks up the ancestors. The walk never leaves the
// candidate container.
func recoverDescription(link, container *goquery.Selection, title string) string {
	differs := func(text string) bool {
		return text != "" && !strings.EqualFold(text, title)
	}

	parent := link.Parent()
	parentIsContainer := parent.IsSelection(container)

	var steps []*goquery.Selection
	if goquery.NodeName(parent) == "p" {
		steps = append(steps, parent)
	}
	steps = append(steps, link.NextAllFiltered("p").First())
	if !parentIsContainer {
		steps = append(steps, parent.NextAllFiltered("p").First())
	}
	for _, s := range steps {
		if t := selectionText(s); differs(t) {
			return t
		}
	}

	if !parentIsContainer {
		following := parent.NextAll()
		desc := following.FilterFunction(isDescriptionBlock).AddSelection(
			following.Find("div").FilterFunction(isDescriptionBlock)).First()
		if t := selectionText(desc); differs(t) {
			return t
		}
	}

	for anc := parent; anc.Length() > 0; anc = anc.Parent() {
		if anc.IsSelection(container) || anc.Is("body, html") {
			break
		}
		// Past this point the text belongs to sibling items as well.
		if anc.Find("a[href]").Length() > 1 {
			break
		}
		t := selectionText(anc)
		if !differs(t) {
			continue
		}
		if rest := strings.TrimSpace(strings.Replace(t, title, "", 1)); rest != "" {
			return cleanText(strings.Trim(rest, "-–:|"))
		}
	}
	return ""
}

func isDescriptionBlock(_ int, s *goquery.Selection) bool {
	return goquery.NodeName(s) == "div" && classContains(s, "description")
}

// stripLabel removes a leading "Label:" prefix such as "Agency: NASA".
func stripLabel(text string, labels ...string) string {
	lower := strings.ToLower(text)
	for _, l := range labels {
		if strings.HasPrefix(lower, l) {
			return strings.TrimSpace(text[len(l):])
		}
	}
	return text
}
