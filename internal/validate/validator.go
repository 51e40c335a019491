package validate

import (
	"github.com/david/ai-lead-finder/internal/models"
)

// Validator runs the field checks for a record and attaches the findings to
// it.
type Validator struct {
	// CheckContacts enables the email, phone and cross-field checks. The
	// office check always runs.
	CheckContacts bool
}

func New(checkContacts bool) *Validator {
	return &Validator{CheckContacts: checkContacts}
}

// Validate appends every finding to rec.ValidationMessages and returns the
// combined result. Errors lower the confidence but never drop the record.
func (v *Validator) Validate(rec *models.OpportunityRecord) models.ValidationResult {
	result := ValidateOffice(rec.Office)

	var infos []models.ValidationMessage
	if v.CheckContacts {
		var extra []models.ValidationMessage
		extra = append(extra, ValidateEmail(rec.Contact.Email, rec.Agency)...)
		extra = append(extra, ValidatePhone(rec.Contact.Phone)...)
		extra = append(extra, CheckRelationships(rec)...)

		for _, m := range extra {
			switch m.Kind {
			case models.KindError:
				result.Errors = append(result.Errors, m)
			case models.KindWarning:
				result.Warnings = append(result.Warnings, m)
			default:
				infos = append(infos, m)
			}
		}
		result.IsValid = len(result.Errors) == 0
		if rec.Office != "" {
			result.ConfidenceScore = confidence(len(result.Errors), len(result.Warnings))
		}
	}

	rec.AddMessages(result.Messages()...)
	rec.AddMessages(infos...)
	return result
}
