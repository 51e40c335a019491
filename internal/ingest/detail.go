package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/david/ai-lead-finder/internal/models"
)

var (
	emailRegex = regexp.MustCompile(`[\w.+-]+@[\w.-]+\.\w+`)
	phoneRegex = regexp.MustCompile(`\(?(\d{3})\)?[-.\s]*(\d{3})[-.\s]*(\d{4})`)

	techFocusKeywords = []string{
		"technology", "digital", "innovation", "modernization", "data",
		"artificial intelligence", "machine learning",
	}
)

// AgencyDetail is what an agency's own page says about it.
type AgencyDetail struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Email       string   `json:"email,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Address     string   `json:"address,omitempty"`
	TechFocus   []string `json:"tech_focus,omitempty"`
}

// ParseAgencyDetail reads the heading, meta description, contact block and
// technology keywords of an agency page.
func ParseAgencyDetail(payload []byte) (*AgencyDetail, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("parse agency page: %w", err)
	}

	d := &AgencyDetail{
		Name:        selectionText(doc.Find("h1").First()),
		Description: sanitizeText(doc.Find(`meta[name="description"]`).AttrOr("content", "")),
	}
	if d.Description == "" {
		d.Description = selectionText(doc.Find("p.usa-intro").First())
	}

	if contact := doc.Find("div.contact-info, div.contact-information").First(); contact.Length() > 0 {
		d.Email, d.Phone, d.Address = parseContactBlock(contact)
	}

	content := strings.ToLower(doc.Text())
	for _, k := range techFocusKeywords {
		if strings.Contains(content, k) {
			d.TechFocus = append(d.TechFocus, k)
		}
	}
	return d, nil
}

func parseContactBlock(s *goquery.Selection) (email, phone, address string) {
	if href := s.Find(`a[href^="mailto:"]`).First().AttrOr("href", ""); href != "" {
		email = strings.TrimPrefix(href, "mailto:")
		email, _, _ = strings.Cut(email, "?")
	}
	if href := s.Find(`a[href^="tel:"]`).First().AttrOr("href", ""); href != "" {
		phone = formatTel(strings.TrimPrefix(href, "tel:"))
	}

	text := s.Text()
	if email == "" {
		email = emailRegex.FindString(text)
	}
	if phone == "" {
		phone = formatPhone(text)
	}

	if addr := s.Find("address").First(); addr.Length() > 0 {
		address = selectionText(addr)
	} else {
		s.Find("p, div, span").EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if !classContains(el, "address") {
				return true
			}
			if t := selectionText(el); len(t) > 10 {
				address = t
				return false
			}
			return true
		})
	}
	return email, phone, address
}

// formatPhone finds a US phone number in text and renders it NNN-NNN-NNNN.
func formatPhone(text string) string {
	if m := phoneRegex.FindStringSubmatch(text); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3]
	}
	return ""
}

// formatTel normalizes a tel: link target, dropping a +1 country code.
func formatTel(target string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, target)
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return formatPhone(target)
	}
	return digits[:3] + "-" + digits[3:6] + "-" + digits[6:]
}

// detailEnricher fetches agency pages for index-site records and merges the
// contact data into them.
type detailEnricher struct {
	fetcher Fetcher
	cache   DetailCache
}

// lookup returns the cached detail for url or fetches and caches it. The
// second result reports whether a fetch was made.
func (e *detailEnricher) lookup(ctx context.Context, url string) (*AgencyDetail, bool, error) {
	if e.cache != nil {
		if d, ok := e.cache.Get(ctx, url); ok {
			return d, false, nil
		}
	}

	doc, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, true, err
	}
	defer doc.Body.Close()

	body, err := io.ReadAll(doc.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read agency page %s: %w", url, err)
	}
	d, err := ParseAgencyDetail(body)
	if err != nil {
		return nil, true, err
	}
	if e.cache != nil {
		e.cache.Set(ctx, url, d)
	}
	return d, true, nil
}

// applyDetail fills empty contact fields of rec from d.
func applyDetail(rec *models.OpportunityRecord, d *AgencyDetail) {
	if rec.Contact.Email == "" {
		rec.Contact.Email = d.Email
	}
	if rec.Contact.Phone == "" {
		rec.Contact.Phone = d.Phone
	}
	if rec.Description == "" {
		rec.Description = d.Description
	}
	rec.TechFocus = mergeUniqueFold(rec.TechFocus, d.TechFocus)
}
