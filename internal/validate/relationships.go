package validate

import (
	"fmt"
	"strings"

	"github.com/david/ai-lead-finder/internal/models"
)

// areaCodeRegions maps area codes to the region they imply.
var areaCodeRegions = map[string]string{
	"202": "Washington DC",
	"703": "Northern Virginia",
	"301": "Maryland",
	"571": "Northern Virginia",
	"240": "Maryland",
	"757": "Virginia Beach",
	"410": "Baltimore",
	"212": "New York City",
	"312": "Chicago",
	"415": "San Francisco",
	"310": "Los Angeles",
}

// CheckRelationships compares fields of one record with each other. Every
// finding is a warning.
func CheckRelationships(rec *models.OpportunityRecord) []models.ValidationMessage {
	var msgs []models.ValidationMessage
	warn := func(field, message, context, impact, suggestion string) {
		msgs = append(msgs, models.ValidationMessage{
			Kind:       models.KindWarning,
			Field:      field,
			Message:    message,
			Context:    context,
			Impact:     impact,
			Suggestion: suggestion,
			Priority:   2,
		})
	}

	hasName := strings.TrimSpace(rec.Name) != ""
	hasReach := rec.Contact.Email != "" || rec.Contact.Phone != ""
	switch {
	case hasName && !hasReach:
		warn("contact", "Contact has name but no email/phone",
			fmt.Sprintf("'%s' has no email or phone", rec.Name),
			"Contact cannot be reached directly",
			"Find an email address or phone number for this contact")
	case !hasName && hasReach:
		warn("name", "Contact has email/phone but no name",
			"Email or phone present without associated name",
			"Incomplete contact information",
			"Add name for this contact")
	}

	dept, role := strings.TrimSpace(rec.Department), strings.TrimSpace(rec.Role)
	if dept != "" && role != "" && !strings.Contains(strings.ToLower(role), strings.ToLower(dept)) {
		warn("department", "Department and role mismatch",
			fmt.Sprintf("Department '%s' not reflected in role '%s'", dept, role),
			"Possible incorrect department assignment",
			"Verify department and role alignment")
	}

	if rec.Contact.Phone != "" && rec.Office != "" {
		if region, ok := areaCodeRegions[areaCode(rec.Contact.Phone)]; ok &&
			!strings.Contains(strings.ToLower(rec.Office), strings.ToLower(region)) {
			warn("phone", "Phone area code and office location mismatch",
				fmt.Sprintf("Area code suggests %s but office is %s", region, rec.Office),
				"Possible incorrect location or phone number",
				"Verify phone and office location match")
		}
	}
	return msgs
}
