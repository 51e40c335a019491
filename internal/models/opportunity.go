package models

import (
	"time"
)

// SourceKind identifies which family of source produced a record.
type SourceKind string

const (
	SourceIndexSite     SourceKind = "index_site"
	SourceChallengeSite SourceKind = "challenge_site"
	SourceArticleSite   SourceKind = "article_site"
)

type Contact struct {
	URL   string `json:"url"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// OpportunityRecord is one discovered item of interest. Extractors create it;
// only ValidationMessages and Score are filled in afterwards.
type OpportunityRecord struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Agency      string     `json:"agency"`
	Description string     `json:"description"`
	Source      SourceKind `json:"source"`
	SourceID    string     `json:"source_id"` // registry id of the configured source
	Type        string     `json:"type"`      // agency_info, challenge, tech_info
	Contact     Contact    `json:"contact"`
	Office      string     `json:"office"`

	// Placeholder contact person until a detail page yields a better one.
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`

	PostedDate *time.Time `json:"posted_date"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	DateAdded  time.Time  `json:"dateAdded"`
	Value      float64    `json:"value,omitempty"`
	Tags       []string   `json:"tags,omitempty"`

	// Detail enrichment
	TechFocus    []string `json:"tech_focus,omitempty"`
	Partnerships []string `json:"partnerships,omitempty"`

	ValidationMessages []ValidationMessage `json:"validationMessages"`
	Score              *ScoreBreakdown     `json:"score,omitempty"`
}

// RecordKey is the identity used for deduplication.
type RecordKey struct {
	Title  string
	Agency string
}

func (r *OpportunityRecord) Key() RecordKey {
	return RecordKey{Title: r.Title, Agency: r.Agency}
}

// EffectivePostedDate returns PostedDate, or the zero time when missing.
func (r *OpportunityRecord) EffectivePostedDate() time.Time {
	if r.PostedDate == nil {
		return time.Time{}
	}
	return *r.PostedDate
}

func (r *OpportunityRecord) AddMessages(msgs ...ValidationMessage) {
	r.ValidationMessages = append(r.ValidationMessages, msgs...)
}
