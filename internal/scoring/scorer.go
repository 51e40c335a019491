// Package scoring ranks opportunities by how promising they are as AI sales
// leads.
package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/david/ai-lead-finder/internal/models"
)

// Factor names, in evaluation order.
const (
	AIReadiness          = "ai_readiness"
	AcademicPartnerships = "academic_partnerships"
	BudgetPotential      = "budget_potential"
	TechInitiatives      = "tech_initiatives"
	EngagementSignals    = "engagement_signals"
	Accessibility        = "accessibility"
)

type weightedTerm struct {
	term   string
	weight float64
}

// Factor is one weighted component of the total score.
type Factor struct {
	Name   string
	Weight float64
}

// DefaultFactors sum to 1.0.
var DefaultFactors = []Factor{
	{AIReadiness, 0.30},
	{AcademicPartnerships, 0.15},
	{BudgetPotential, 0.20},
	{TechInitiatives, 0.15},
	{EngagementSignals, 0.15},
	{Accessibility, 0.05},
}

var aiKeywords = []weightedTerm{
	{"artificial intelligence", 1.0},
	{"machine learning", 1.0},
	{"ai transformation", 1.0},
	{"data science", 0.8},
	{"digital transformation", 0.7},
	{"automation", 0.6},
	{"analytics", 0.5},
	{"modernization", 0.4},
	{"innovation", 0.3},
}

var budgetIndicators = []weightedTerm{
	{"enterprise", 1.0},
	{"multi-year", 0.9},
	{"million", 0.8},
	{"phase", 0.6},
	{"pilot", 0.4},
}

var academicIndicators = []weightedTerm{
	{"university", 1.0},
	{"research partnership", 1.0},
	{"academic collaboration", 1.0},
	{"research institute", 0.9},
	{"college", 0.9},
	{"academic", 0.8},
	{"research center", 0.8},
	{"laboratory", 0.7},
	{"fellowship", 0.6},
	{"internship", 0.5},
	{"student program", 0.5},
}

var topUniversities = []string{
	"mit", "stanford", "harvard", "carnegie mellon", "berkeley",
	"georgia tech", "caltech", "princeton", "illinois", "michigan",
	"purdue", "texas", "ucla", "ucsd", "columbia", "cornell",
	"washington", "maryland", "penn state", "virginia tech", "johns hopkins",
}

type specialUniversity struct {
	name          string
	display       string
	bonus         float64
	relationships []string
}

// Universities with an established government relationship earn a bonus
// when the text also mentions that relationship.
var specialUniversities = []specialUniversity{
	{
		name:    "johns hopkins",
		display: "Johns Hopkins",
		bonus:   1.0,
		relationships: []string{
			"existing partnership", "ongoing collaboration", "current contract",
			"active project", "jhu partnership", "apl", "applied physics laboratory",
		},
	},
}

const (
	academicMax         = 4.0
	topUniversityBonus  = 0.5
	activeResearchBonus = 0.5
	engagementWindow    = 180.0 // days
	maxInitiatives      = 5.0
	maxActivities       = 3.0
)

var budgetAmountRegex = regexp.MustCompile(`\$\s*(\d+(?:\.\d+)?)[\s-]*(million|k|thousand)`)

// Activity is a dated event showing the organisation is active.
type Activity struct {
	Name string
	Date *time.Time
}

// ContactInfo is the reachable part of a lead.
type ContactInfo struct {
	Email string
	Phone string
	Title string
}

// LeadData is the scorer's input. Every field is optional.
type LeadData struct {
	Description      string
	BudgetInfo       string
	TechInitiatives  []string
	RecentActivities []Activity
	Contact          ContactInfo
	Partnerships     []string
}

// Scorer computes ScoreBreakdowns. The zero value is not usable; call New.
type Scorer struct {
	factors []Factor
}

func New() *Scorer {
	return &Scorer{factors: DefaultFactors}
}

// Score returns a total in [0,100]. now is the reference time for activity
// recency.
func (s *Scorer) Score(lead LeadData, now time.Time) models.ScoreBreakdown {
	raw := make(map[string]float64, len(s.factors))
	weighted := make(map[string]float64, len(s.factors))

	var total float64
	var special string
	for _, f := range s.factors {
		var v float64
		switch f.Name {
		case AIReadiness:
			v = scoreAIReadiness(lead.Description)
		case AcademicPartnerships:
			v, special = scoreAcademic(lead)
		case BudgetPotential:
			v = scoreBudget(lead.BudgetInfo)
		case TechInitiatives:
			v = scoreInitiatives(lead.TechInitiatives)
		case EngagementSignals:
			v = scoreEngagement(lead.RecentActivities, now)
		case Accessibility:
			v = scoreAccessibility(lead.Contact)
		}
		raw[f.Name] = round2(v)
		weighted[f.Name] = round2(v * f.Weight * 100)
		total += v * f.Weight
	}

	return models.ScoreBreakdown{
		TotalScore:   round2(math.Max(0, math.Min(100, total*100))),
		FactorScores: weighted,
		RawFactors:   raw,
		Analysis:     s.analysis(raw, special),
	}
}

func (s *Scorer) analysis(raw map[string]float64, special string) []string {
	var notes []string
	for _, f := range s.factors {
		v := raw[f.Name]
		label := strings.ReplaceAll(f.Name, "_", " ")
		switch {
		case v >= 0.8:
			notes = append(notes, fmt.Sprintf("Strong %s: %.1f%%", label, v*100))
		case v <= 0.3:
			notes = append(notes, fmt.Sprintf("Weak %s: %.1f%%", label, v*100))
		}
	}

	if special != "" {
		notes = append(notes, fmt.Sprintf("Existing strong relationship with %s detected", special))
	}
	switch academic := raw[AcademicPartnerships]; {
	case academic >= 0.8:
		notes = append(notes, "Strong academic collaboration potential")
	case academic >= 0.5:
		notes = append(notes, "Moderate academic engagement")
	case academic > 0:
		notes = append(notes, "Limited academic partnerships - opportunity for growth")
	}
	return notes
}

func sumWeights(terms []weightedTerm) float64 {
	var sum float64
	for _, t := range terms {
		sum += t.weight
	}
	return sum
}

func matchWeights(text string, terms []weightedTerm) float64 {
	var sum float64
	for _, t := range terms {
		if strings.Contains(text, t.term) {
			sum += t.weight
		}
	}
	return sum
}

func scoreAIReadiness(description string) float64 {
	if description == "" {
		return 0
	}
	hits := matchWeights(strings.ToLower(description), aiKeywords)
	return math.Min(hits/sumWeights(aiKeywords), 1)
}

func scoreBudget(info string) float64 {
	if info == "" {
		return 0
	}
	info = strings.ToLower(info)

	var score float64
	for _, m := range budgetAmountRegex.FindAllStringSubmatch(info, -1) {
		amount, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		switch m[2] {
		case "million":
			score += math.Min(amount/10, 1)
		case "k", "thousand":
			score += math.Min(amount/10000, 1)
		}
	}
	score += matchWeights(info, budgetIndicators)
	return math.Min(score/sumWeights(budgetIndicators), 1)
}

func scoreInitiatives(initiatives []string) float64 {
	var ready float64
	for _, init := range initiatives {
		lower := strings.ToLower(init)
		for _, k := range aiKeywords {
			if strings.Contains(lower, k.term) {
				ready++
				break
			}
		}
	}
	return math.Min(ready/maxInitiatives, 1)
}

func scoreEngagement(activities []Activity, now time.Time) float64 {
	var score float64
	for _, a := range activities {
		if a.Date == nil {
			continue
		}
		days := math.Floor(now.Sub(*a.Date).Hours() / 24)
		if days < 0 {
			days = 0
		}
		if days <= engagementWindow {
			score += 1 - days/engagementWindow
		}
	}
	return math.Min(score/maxActivities, 1)
}

func scoreAccessibility(c ContactInfo) float64 {
	var score float64
	if c.Email != "" {
		score += 0.4
	}
	if c.Phone != "" {
		score += 0.3
	}
	if c.Title != "" {
		score += 0.3
	}
	return math.Min(score, 1)
}

// scoreAcademic also returns the display name of a special university whose
// relationship bonus applied.
func scoreAcademic(lead LeadData) (float64, string) {
	description := strings.ToLower(lead.Description)
	parts := []string{description}
	for _, p := range lead.Partnerships {
		parts = append(parts, strings.ToLower(p))
	}
	for _, i := range lead.TechInitiatives {
		parts = append(parts, strings.ToLower(i))
	}
	all := strings.Join(parts, " ")

	score := matchWeights(all, academicIndicators)
	for _, u := range topUniversities {
		if strings.Contains(all, u) {
			score += topUniversityBonus
		}
	}

	var special string
	for _, u := range specialUniversities {
		if !strings.Contains(all, u.name) {
			continue
		}
		for _, rel := range u.relationships {
			if strings.Contains(all, rel) {
				score += u.bonus
				special = u.display
				break
			}
		}
	}

	activeTexts := []string{description}
	for _, p := range lead.Partnerships {
		activeTexts = append(activeTexts, strings.ToLower(p))
	}
	for _, t := range activeTexts {
		if strings.Contains(t, "research") && (strings.Contains(t, "ongoing") || strings.Contains(t, "active")) {
			score += activeResearchBonus
			break
		}
	}

	return math.Min(score/academicMax, 1), special
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
