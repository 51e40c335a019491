// Package leads shapes scan records into the lead view and applies the
// caller-side filtering, sorting and pagination.
package leads

import (
	"fmt"
	"strings"
	"time"

	"github.com/david/ai-lead-finder/internal/models"
)

const (
	defaultName   = "Chief Technology Officer"
	defaultTitle  = "Technology Director"
	defaultOffice = "Technology"
)

// NormalizeAgency rewrites an agency containing a parenthesized acronym into
// "Full Name (ACRONYM)". Text after the closing parenthesis is dropped.
// Strings without an acronym are returned trimmed.
func NormalizeAgency(agency string) string {
	agency = strings.TrimSpace(agency)
	if !strings.Contains(agency, "(") || !strings.Contains(agency, ")") {
		return agency
	}
	name, rest, _ := strings.Cut(agency, "(")
	acronym, _, _ := strings.Cut(rest, ")")
	name, acronym = strings.TrimSpace(name), strings.TrimSpace(acronym)
	if name == "" || acronym == "" {
		return agency
	}
	return fmt.Sprintf("%s (%s)", name, acronym)
}

// Shape converts records to leads, keeping their order.
func Shape(records []models.OpportunityRecord) []models.Lead {
	out := make([]models.Lead, 0, len(records))
	for i := range records {
		out = append(out, ShapeRecord(&records[i]))
	}
	return out
}

// ShapeRecord builds the lead view of one record. Two info messages about
// the record's origin precede its validation findings.
func ShapeRecord(rec *models.OpportunityRecord) models.Lead {
	msgs := []models.ValidationMessage{{
		Kind:    models.KindInfo,
		Message: fmt.Sprintf("Found via %s: %s", sourceLabel(rec), rec.Title),
	}}
	if rec.Contact.URL != "" {
		msgs = append(msgs, models.ValidationMessage{
			Kind:    models.KindInfo,
			Message: fmt.Sprintf("Contact page available: %s", rec.Contact.URL),
		})
	}
	msgs = append(msgs, rec.ValidationMessages...)

	lead := models.Lead{
		ID:                 rec.ID,
		Name:               orDefault(rec.Name, defaultName),
		Title:              orDefault(rec.Title, defaultTitle),
		Agency:             NormalizeAgency(rec.Agency),
		Email:              rec.Contact.Email,
		Phone:              rec.Contact.Phone,
		Office:             orDefault(rec.Office, defaultOffice),
		DateAdded:          dateAdded(rec.DateAdded),
		ValidationMessages: msgs,
		Opportunity:        rec.Title,
		Description:        rec.Description,
		Source:             rec.Source,
		Type:               rec.Type,
		URL:                rec.Contact.URL,
		Value:              rec.Value,
		PostedDate:         rec.PostedDate,
		DueDate:            rec.DueDate,
	}
	if rec.Score != nil {
		lead.Score = rec.Score.TotalScore
		lead.Analysis = rec.Score.Analysis
	}
	return lead
}

func sourceLabel(rec *models.OpportunityRecord) string {
	if rec.SourceID != "" {
		return rec.SourceID
	}
	if rec.Source != "" {
		return string(rec.Source)
	}
	return "unknown"
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func dateAdded(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}
