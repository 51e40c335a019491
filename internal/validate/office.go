// Package validate checks the quality of contact and location fields. It
// reports problems as messages and never rejects a record.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/david/ai-lead-finder/internal/models"
)

type abbreviation struct {
	short, full string
	re          *regexp.Regexp
}

func newAbbreviation(short, full string) abbreviation {
	// Matches "St", "st" and "St." as whole words. All-caps forms are left
	// alone so state codes such as CT or FL are not expanded.
	pattern := fmt.Sprintf(`\b(?:%s|%s)\b\.?`, regexp.QuoteMeta(short), regexp.QuoteMeta(strings.ToLower(short)))
	return abbreviation{short: short, full: full, re: regexp.MustCompile(pattern)}
}

// Abbreviations are evaluated in this order.
var abbreviations = []abbreviation{
	newAbbreviation("St", "Street"),
	newAbbreviation("Ave", "Avenue"),
	newAbbreviation("Rd", "Road"),
	newAbbreviation("Blvd", "Boulevard"),
	newAbbreviation("Ln", "Lane"),
	newAbbreviation("Dr", "Drive"),
	newAbbreviation("Ct", "Court"),
	newAbbreviation("Pl", "Place"),
	newAbbreviation("Sq", "Square"),
	newAbbreviation("Ste", "Suite"),
	newAbbreviation("Rm", "Room"),
	newAbbreviation("Fl", "Floor"),
	newAbbreviation("Bldg", "Building"),
	newAbbreviation("Dept", "Department"),
}

const (
	minOfficeLength = 5
	maxOfficeLength = 200
)

// ValidateOffice checks an office/location string. Empty input is the only
// error; everything else is a warning. Suggested fixes map the original text
// to a single corrected value that accumulates every fix.
func ValidateOffice(office string) models.ValidationResult {
	result := models.ValidationResult{
		Errors:         []models.ValidationMessage{},
		Warnings:       []models.ValidationMessage{},
		SuggestedFixes: map[string]string{},
	}

	if strings.TrimSpace(office) == "" {
		result.Errors = append(result.Errors, models.ValidationMessage{
			Kind:       models.KindError,
			Field:      "office",
			Message:    "Office location is missing",
			Context:    "No office location provided",
			Impact:     "Cannot determine physical location",
			Suggestion: "Add the office location",
			Priority:   2,
		})
		return result
	}

	warn := func(msg models.ValidationMessage) {
		msg.Kind = models.KindWarning
		msg.Field = "office"
		if msg.Priority == 0 {
			msg.Priority = 3
		}
		result.Warnings = append(result.Warnings, msg)
	}

	length := utf8.RuneCountInString(office)
	switch {
	case length < minOfficeLength:
		warn(models.ValidationMessage{
			Message:    "Office location seems too short",
			Context:    fmt.Sprintf("Location '%s' is only %d characters", office, length),
			Impact:     "May be incomplete",
			Suggestion: "Provide full office location",
		})
	case length > maxOfficeLength:
		warn(models.ValidationMessage{
			Message:    "Office location unusually long",
			Context:    fmt.Sprintf("Location is %d characters", length),
			Impact:     "May contain extra information",
			Suggestion: "Consider shortening or splitting",
		})
	}

	fixed := office
	first, _ := utf8.DecodeRuneInString(office)
	if !unicode.IsUpper(first) {
		warn(models.ValidationMessage{
			Message:    "Location should be capitalized",
			Context:    fmt.Sprintf("Location '%s' does not start with a capital letter", office),
			Impact:     "Non-standard formatting",
			Suggestion: "Capitalize first letter",
		})
		fixed = capitalizeFirstLetter(fixed)
	}

	lower := strings.ToLower(office)
	for _, a := range abbreviations {
		if !a.re.MatchString(office) || strings.Contains(lower, strings.ToLower(a.full)) {
			continue
		}
		warn(models.ValidationMessage{
			Message:    fmt.Sprintf("Found abbreviation '%s'", a.short),
			Context:    fmt.Sprintf("Consider using full form '%s'", a.full),
			Impact:     "May be unclear to some readers",
			Suggestion: fmt.Sprintf("Replace with '%s'", a.full),
		})
		fixed = a.re.ReplaceAllLiteralString(fixed, a.full)
	}

	if fixed != office {
		result.SuggestedFixes[office] = fixed
	}
	result.IsValid = len(result.Errors) == 0
	result.ConfidenceScore = confidence(len(result.Errors), len(result.Warnings))
	return result
}

// confidence is 1 minus 0.3 per error and 0.1 per warning, clamped to [0,1].
func confidence(errors, warnings int) float64 {
	c := 1.0 - 0.3*float64(errors) - 0.1*float64(warnings)
	c = math.Max(0, math.Min(1, c))
	return math.Round(c*100) / 100
}

// capitalizeFirstLetter upper-cases the first letter, skipping any leading
// digits or punctuation ("123 main" becomes "123 Main").
func capitalizeFirstLetter(s string) string {
	for i, r := range s {
		if unicode.IsLetter(r) {
			return s[:i] + string(unicode.ToUpper(r)) + s[i+utf8.RuneLen(r):]
		}
	}
	return s
}
