package models

import "time"

// ScoreBreakdown is the result of scoring one lead. FactorScores holds each
// factor's weighted contribution on a 0-100 scale, RawFactors the unweighted
// value on [0,1].
type ScoreBreakdown struct {
	TotalScore   float64            `json:"total_score"`
	FactorScores map[string]float64 `json:"factor_scores"`
	RawFactors   map[string]float64 `json:"raw_factors"`
	Analysis     []string           `json:"analysis"`
}

// Lead is the outward-facing view of an opportunity.
type Lead struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Title              string              `json:"title"`
	Agency             string              `json:"agency"`
	Email              string              `json:"email"`
	Phone              string              `json:"phone"`
	Office             string              `json:"office"`
	DateAdded          string              `json:"dateAdded"`
	ValidationMessages []ValidationMessage `json:"validationMessages"`

	Opportunity string     `json:"opportunity"`
	Description string     `json:"description"`
	Source      SourceKind `json:"source"`
	Type        string     `json:"type"`
	URL         string     `json:"url"`
	Value       float64    `json:"value"`
	PostedDate  *time.Time `json:"posted_date"`
	DueDate     *time.Time `json:"due_date"`
	Score       float64    `json:"score"`
	Analysis    []string   `json:"analysis,omitempty"`
}
