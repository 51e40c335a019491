package leads

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/david/ai-lead-finder/internal/models"
)

// Filter selects leads. Empty fields do not filter.
type Filter struct {
	// ValidationKinds keeps leads carrying at least one message of any kind.
	ValidationKinds []models.MessageKind
	DateFrom        *time.Time
	DateTo          *time.Time
	// EmailDomains keeps leads whose email ends with any of the suffixes.
	EmailDomains []string
}

func (f Filter) Match(l models.Lead) bool {
	if len(f.ValidationKinds) > 0 && !hasKind(l.ValidationMessages, f.ValidationKinds) {
		return false
	}
	if f.DateFrom != nil || f.DateTo != nil {
		if l.PostedDate == nil {
			return false
		}
		if f.DateFrom != nil && l.PostedDate.Before(*f.DateFrom) {
			return false
		}
		if f.DateTo != nil && l.PostedDate.After(*f.DateTo) {
			return false
		}
	}
	if len(f.EmailDomains) > 0 {
		email := strings.ToLower(l.Email)
		if email == "" {
			return false
		}
		found := false
		for _, d := range f.EmailDomains {
			if d = strings.ToLower(strings.TrimSpace(d)); d != "" && strings.HasSuffix(email, d) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func hasKind(msgs []models.ValidationMessage, kinds []models.MessageKind) bool {
	for _, m := range msgs {
		for _, k := range kinds {
			if m.Kind == k {
				return true
			}
		}
	}
	return false
}

// Apply returns the leads that match, in their original order.
func (f Filter) Apply(in []models.Lead) []models.Lead {
	out := make([]models.Lead, 0, len(in))
	for _, l := range in {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out
}

// SortKey names a sortable lead field.
type SortKey string

const (
	SortTitle      SortKey = "title"
	SortAgency     SortKey = "agency"
	SortType       SortKey = "type"
	SortValue      SortKey = "value"
	SortPostedDate SortKey = "posted_date"
	SortDueDate    SortKey = "due_date"
	SortSource     SortKey = "source"
	SortScore      SortKey = "score"
)

func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortPostedDate, nil
	case SortTitle, SortAgency, SortType, SortValue, SortPostedDate, SortDueDate, SortSource, SortScore:
		return k, nil
	default:
		return "", fmt.Errorf("unsupported sort key %q", s)
	}
}

// Sort orders leads in place by key. Missing dates compare as the oldest.
// The sort is stable, so equal leads keep their scan order.
func Sort(in []models.Lead, key SortKey, desc bool) {
	less := lessFunc(key)
	sort.SliceStable(in, func(i, j int) bool {
		if desc {
			return less(in[j], in[i])
		}
		return less(in[i], in[j])
	})
}

func lessFunc(key SortKey) func(a, b models.Lead) bool {
	switch key {
	case SortTitle:
		return func(a, b models.Lead) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case SortAgency:
		return func(a, b models.Lead) bool { return strings.ToLower(a.Agency) < strings.ToLower(b.Agency) }
	case SortType:
		return func(a, b models.Lead) bool { return a.Type < b.Type }
	case SortValue:
		return func(a, b models.Lead) bool { return a.Value < b.Value }
	case SortDueDate:
		return func(a, b models.Lead) bool { return timeLess(a.DueDate, b.DueDate) }
	case SortSource:
		return func(a, b models.Lead) bool { return a.Source < b.Source }
	case SortScore:
		return func(a, b models.Lead) bool { return a.Score < b.Score }
	default:
		return func(a, b models.Lead) bool { return timeLess(a.PostedDate, b.PostedDate) }
	}
}

func timeLess(a, b *time.Time) bool {
	switch {
	case a == nil:
		return b != nil
	case b == nil:
		return false
	default:
		return a.Before(*b)
	}
}

const (
	DefaultPerPage = 10
	MinPerPage     = 5
	MaxPerPage     = 100
)

// Page describes one slice of a result set.
type Page struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Paginate returns the 1-indexed page of leads. Page numbers below 1 select
// the first page; perPage is clamped to [MinPerPage, MaxPerPage].
func Paginate(in []models.Lead, page, perPage int) ([]models.Lead, Page) {
	if page < 1 {
		page = 1
	}
	switch {
	case perPage <= 0:
		perPage = DefaultPerPage
	case perPage < MinPerPage:
		perPage = MinPerPage
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}

	meta := Page{
		Page:       page,
		PerPage:    perPage,
		Total:      len(in),
		TotalPages: (len(in) + perPage - 1) / perPage,
	}
	start := (page - 1) * perPage
	if start >= len(in) {
		return []models.Lead{}, meta
	}
	end := start + perPage
	if end > len(in) {
		end = len(in)
	}
	return in[start:end], meta
}

// Stats summarises a lead set.
type Stats struct {
	Total        int                        `json:"total"`
	ByType       map[string]int             `json:"by_type"`
	ByValidation map[models.MessageKind]int `json:"by_validation"`
}

// Summarize counts leads by type and by the message kinds they carry. A lead
// with several warnings counts once under "warning".
func Summarize(in []models.Lead) Stats {
	s := Stats{
		Total:  len(in),
		ByType: make(map[string]int),
		ByValidation: map[models.MessageKind]int{
			models.KindError:   0,
			models.KindWarning: 0,
			models.KindInfo:    0,
		},
	}
	for _, l := range in {
		s.ByType[l.Type]++
		for kind := range s.ByValidation {
			if hasKind(l.ValidationMessages, []models.MessageKind{kind}) {
				s.ByValidation[kind]++
			}
		}
	}
	return s
}
