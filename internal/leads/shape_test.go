package leads

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david/ai-lead-finder/internal/models"
)

func TestNormalizeAgency(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Department of Energy (DOE)", "Department of Energy (DOE)"},
		{"Department of Energy(DOE)", "Department of Energy (DOE)"},
		{"  Department of Energy ( DOE )  ", "Department of Energy (DOE)"},
		{"Department of Energy (DOE) - Office of Science", "Department of Energy (DOE)"},
		{"Department of Energy", "Department of Energy"},
		{"(DOE)", "(DOE)"},
		{"Department of Energy ()", "Department of Energy ()"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeAgency(tt.in), tt.in)
	}
}

func TestNormalizeAgency_Idempotent(t *testing.T) {
	for _, in := range []string{"Department of Energy(DOE)", "NASA", "General Services Administration (GSA) Region 3"} {
		once := NormalizeAgency(in)
		assert.Equal(t, once, NormalizeAgency(once), in)
	}
}

func TestShapeRecord(t *testing.T) {
	posted := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rec := models.OpportunityRecord{
		ID:          "usa_gov-1",
		Title:       "Department of Energy(DOE)",
		Agency:      "Department of Energy(DOE)",
		Description: "Energy research and technology",
		Source:      models.SourceIndexSite,
		SourceID:    "usa_gov",
		Type:        "agency_info",
		Contact:     models.Contact{URL: "https://www.usa.gov/agencies/energy", Email: "cio@energy.gov"},
		Office:      "Technology and Innovation",
		Name:        "Technology Leadership",
		Role:        "AI Program Lead",
		PostedDate:  &posted,
		DateAdded:   time.Date(2025, 3, 2, 15, 4, 5, 0, time.FixedZone("EST", -5*3600)),
		ValidationMessages: []models.ValidationMessage{
			{Kind: models.KindWarning, Message: "Contact has name but no email/phone"},
		},
		Score: &models.ScoreBreakdown{TotalScore: 61.5, Analysis: []string{"Strong tech initiatives: 100.0%"}},
	}

	lead := ShapeRecord(&rec)
	assert.Equal(t, "usa_gov-1", lead.ID)
	assert.Equal(t, "Department of Energy (DOE)", lead.Agency)
	assert.Equal(t, "Department of Energy(DOE)", lead.Title)
	assert.Equal(t, "Technology Leadership", lead.Name)
	assert.Equal(t, "cio@energy.gov", lead.Email)
	assert.Equal(t, "https://www.usa.gov/agencies/energy", lead.URL)
	assert.Equal(t, "2025-03-02T20:04:05Z", lead.DateAdded)
	assert.Equal(t, 61.5, lead.Score)
	assert.Equal(t, []string{"Strong tech initiatives: 100.0%"}, lead.Analysis)

	require.Len(t, lead.ValidationMessages, 3)
	assert.Equal(t, "Found via usa_gov: Department of Energy(DOE)", lead.ValidationMessages[0].Message)
	assert.Equal(t, "Contact page available: https://www.usa.gov/agencies/energy", lead.ValidationMessages[1].Message)
	assert.Equal(t, models.KindWarning, lead.ValidationMessages[2].Kind)
}

func TestShapeRecord_Defaults(t *testing.T) {
	lead := ShapeRecord(&models.OpportunityRecord{})
	assert.Equal(t, "Chief Technology Officer", lead.Name)
	assert.Equal(t, "Technology Director", lead.Title)
	assert.Equal(t, "Technology", lead.Office)
	assert.NotEmpty(t, lead.DateAdded)
	assert.Zero(t, lead.Score)

	require.Len(t, lead.ValidationMessages, 1)
	assert.Equal(t, "Found via unknown: ", lead.ValidationMessages[0].Message)
}

func TestShape_KeepsOrder(t *testing.T) {
	out := Shape([]models.OpportunityRecord{{ID: "b"}, {ID: "a"}, {ID: "c"}})
	require.Len(t, out, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{out[0].ID, out[1].ID, out[2].ID})

	assert.NotNil(t, Shape(nil))
}
