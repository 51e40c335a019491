package ingest

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	isoDateRegex   = regexp.MustCompile(`\b(20\d{2})-(\d{2})-(\d{2})\b`)
	usDateRegex    = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(20\d{2})\b`)
	monthDateRegex = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sept|Sep|Oct|Nov|Dec)\.?\s+(\d{1,2}),?\s+(20\d{2})\b`)
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02 January 2006",
	"2 Jan 2006",
	"01/02/2006",
	"1/2/2006",
}

// parseDate parses the posting/closing dates found on listings and in JSON
// payloads. Results are UTC.
func parseDate(text string) (time.Time, error) {
	text = cleanDateString(text)
	if text == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), nil
		}
	}

	if t := parseDateWithRegex(text); !t.IsZero() {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", text)
}

// parseDateWithRegex extracts a date embedded in longer text.
func parseDateWithRegex(text string) time.Time {
	if m := isoDateRegex.FindString(text); m != "" {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return t
		}
	}

	if m := usDateRegex.FindStringSubmatch(text); len(m) == 4 {
		if t, err := time.Parse("1/2/2006", fmt.Sprintf("%s/%s/%s", m[1], m[2], m[3])); err == nil {
			return t
		}
	}

	if m := monthDateRegex.FindStringSubmatch(text); len(m) == 4 {
		month := strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:])
		if month == "Sept" {
			month = "Sep"
		}
		layout := "January 2 2006"
		if len(month) == 3 {
			layout = "Jan 2 2006"
		}
		if t, err := time.Parse(layout, fmt.Sprintf("%s %s %s", month, m[2], m[3])); err == nil {
			return t
		}
	}
	return time.Time{}
}

// cleanDateString removes common prefixes and cleans up date strings
func cleanDateString(s string) string {
	prefixes := []string{
		"Posted:", "Published:", "Posted on", "Published on", "Updated:",
		"Closing date:", "Deadline:", "Open:", "Due date:", "Ends:",
	}
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, strings.ToLower(p)) {
			s = s[len(p):]
			break
		}
	}
	return strings.TrimSpace(s)
}

// parseDatePtr is parseDate for optional fields.
func parseDatePtr(text string) *time.Time {
	t, err := parseDate(text)
	if err != nil {
		return nil
	}
	return &t
}
