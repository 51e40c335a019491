package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/david/ai-lead-finder/internal/models"
)

// FromRecord builds scorer input from an extracted record. The listing date
// counts as the record's one recent activity.
func FromRecord(rec *models.OpportunityRecord) LeadData {
	description := strings.TrimSpace(rec.Title + " " + rec.Description)

	budget := rec.Description
	if rec.Value > 0 {
		budget = strings.TrimSpace(fmt.Sprintf("%s $%.2f million", budget, rec.Value/1e6))
	}

	var initiatives []string
	initiatives = append(initiatives, rec.Tags...)
	initiatives = append(initiatives, rec.TechFocus...)

	var activities []Activity
	if rec.PostedDate != nil {
		activities = append(activities, Activity{Name: rec.Title, Date: rec.PostedDate})
	}

	return LeadData{
		Description:      description,
		BudgetInfo:       budget,
		TechInitiatives:  initiatives,
		RecentActivities: activities,
		Contact: ContactInfo{
			Email: rec.Contact.Email,
			Phone: rec.Contact.Phone,
			Title: rec.Role,
		},
		Partnerships: rec.Partnerships,
	}
}

// ScoreRecord scores rec and attaches the breakdown to it.
func (s *Scorer) ScoreRecord(rec *models.OpportunityRecord, now time.Time) models.ScoreBreakdown {
	b := s.Score(FromRecord(rec), now)
	rec.Score = &b
	return b
}
