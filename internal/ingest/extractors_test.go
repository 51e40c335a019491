package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david/ai-lead-finder/internal/models"
)

var fixedNow = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

const indexFixture = `<html><body>
<header><nav><a href="/about">About USA.gov technology</a></nav></header>
<main>
  <section aria-labelledby="letter-a">
    <ul>
      <li><a href="/agencies/advanced-research-projects-agency-energy">Advanced Research Projects Agency-Energy (ARPA-E)</a>
        <p>Funds early-stage energy technology.</p></li>
      <li><a href="/agencies/administration-for-children-and-families">Administration for Children and Families</a></li>
      <li><a class="menu" href="/menu">Digital Services Menu</a></li>
      <li><a href="#top">Back to top</a></li>
      <li><a href="https://www.ai.gov/?utm_source=usagov">AI.gov</a></li>
    </ul>
  </section>
</main>
</body></html>`

const challengeJSONFixture = `{"challenges": [
  {"id": 101, "title": "AI for Wildfire Detection", "agency_name": "Department of Agriculture",
   "description": "<p>Use <b>machine learning</b> to spot fires.</p>", "slug": "ai-wildfire",
   "start_date": "2025-03-01", "end_date": "2025-06-30", "prize_total": 250000},
  "not an object",
  {"title": "Xy"},
  {"title": "Bake Sale Planning", "description": "Bring cookies."},
  {"title": "Cloud Modernization Prize", "url": "https://example.gov/prize", "prize_total": "$1.5 million",
   "tags": [{"name": "Cloud"}]}
]}`

const challengeHTMLFixture = `<html><body><main>
<div class="challenge-card">
  <h3 class="card-title"><a href="/challenge/robotics-prize">Robotics Innovation Prize</a></h3>
  <p class="agency">Agency: NASA</p>
  <p class="summary">Build autonomous rovers.</p>
  <span class="prize">$500,000 in prizes</span>
  <time datetime="2025-02-10">Feb 10, 2025</time>
</div>
<div class="challenge-card">
  <h3>Bake Sale</h3>
  <p>Cookies for a good cause.</p>
</div>
</main></body></html>`

const articleFixture = `<html><body><main>
<div class="post-list">
  <div class="post">
    <h3 class="post-title"><a href="/2025/01/ai-guide/">A Practical Guide to AI Procurement</a></h3>
    <span class="byline">By Jane Smith</span>
    <time datetime="2025-01-15T00:00:00Z">January 15, 2025</time>
    <div class="excerpt">How agencies buy artificial intelligence services.</div>
    <a rel="tag" href="/topics/ai">AI</a>
    <a rel="tag" href="/topics/acquisition">Acquisition</a>
  </div>
  <div class="post">
    <h3><a href="/2025/01/picnic/">Office Picnic Recap</a></h3>
    <p>Sandwiches were had.</p>
  </div>
</div>
</main></body></html>`

func acceptedRecords(results []ItemResult) []models.OpportunityRecord {
	var out []models.OpportunityRecord
	for _, r := range results {
		if r.Record != nil {
			out = append(out, *r.Record)
		}
	}
	return out
}

func skipReasons(results []ItemResult) []SkipReason {
	var out []SkipReason
	for _, r := range results {
		if r.Skip != nil {
			out = append(out, r.Skip.Reason)
		}
	}
	return out
}

func TestIndexSiteExtractor(t *testing.T) {
	src := SourceConfig{ID: "usa_gov", Kind: "index_site", Type: "agency_info", URL: "https://www.usa.gov/federal-agencies/a", BaseURL: "https://www.usa.gov"}
	results := NewIndexSiteExtractor(nil).Extract([]byte(indexFixture), src, fixedNow)

	recs := acceptedRecords(results)
	require.Len(t, recs, 2)

	arpa := recs[0]
	assert.Equal(t, "usa_gov-1", arpa.ID)
	assert.Equal(t, "Advanced Research Projects Agency-Energy (ARPA-E)", arpa.Title)
	assert.Equal(t, arpa.Title, arpa.Agency)
	assert.Equal(t, "Funds early-stage energy technology.", arpa.Description)
	assert.Equal(t, "https://www.usa.gov/agencies/advanced-research-projects-agency-energy", arpa.Contact.URL)
	assert.Equal(t, models.SourceIndexSite, arpa.Source)
	assert.Equal(t, "agency_info", arpa.Type)
	assert.Equal(t, "Technology Leadership", arpa.Name)
	assert.Equal(t, "AI Program Lead", arpa.Role)
	assert.Equal(t, "Technology and Innovation", arpa.Office)
	require.NotNil(t, arpa.PostedDate)
	assert.Equal(t, fixedNow, *arpa.PostedDate)

	assert.Equal(t, "AI.gov", recs[1].Title)
	assert.Equal(t, "https://www.ai.gov/", recs[1].Contact.URL)

	assert.Equal(t, []SkipReason{SkipIrrelevant, SkipNavigation, SkipNavigation}, skipReasons(results))
	for _, r := range results {
		if r.Skip != nil {
			assert.False(t, r.Skip.Failure(), "filtering is not a parse failure")
		}
	}
}

func TestIndexSiteExtractor_PlaceholderOverrides(t *testing.T) {
	src := SourceConfig{
		ID:          "usa_gov",
		URL:         "https://www.usa.gov/federal-agencies/a",
		Placeholder: PlaceholderConfig{Name: "CIO Office", Role: "Chief Information Officer"},
	}
	recs := acceptedRecords(NewIndexSiteExtractor(nil).Extract([]byte(indexFixture), src, fixedNow))
	require.NotEmpty(t, recs)
	assert.Equal(t, "CIO Office", recs[0].Name)
	assert.Equal(t, "Chief Information Officer", recs[0].Role)
	assert.Equal(t, "Technology and Innovation", recs[0].Office)
}

func TestChallengeSiteExtractor_JSON(t *testing.T) {
	src := SourceConfig{ID: "challenge_gov", Kind: "challenge_site", Type: "challenge", URL: "https://www.challenge.gov/api/challenges", BaseURL: "https://www.challenge.gov"}
	results := NewChallengeSiteExtractor(nil).Extract([]byte(challengeJSONFixture), src, fixedNow)
	require.Len(t, results, 5)

	recs := acceptedRecords(results)
	require.Len(t, recs, 2)

	wildfire := recs[0]
	assert.Equal(t, "challenge_gov-101", wildfire.ID)
	assert.Equal(t, "AI for Wildfire Detection", wildfire.Title)
	assert.Equal(t, "Department of Agriculture", wildfire.Agency)
	assert.Equal(t, "AI for Wildfire Detection - Use machine learning to spot fires.", wildfire.Description)
	assert.Equal(t, "https://www.challenge.gov/challenge/ai-wildfire", wildfire.Contact.URL)
	assert.Equal(t, 250000.0, wildfire.Value)
	require.NotNil(t, wildfire.PostedDate)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), *wildfire.PostedDate)
	require.NotNil(t, wildfire.DueDate)
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), *wildfire.DueDate)

	cloud := recs[1]
	assert.Equal(t, "challenge_gov-2", cloud.ID)
	assert.Equal(t, "Challenge.gov", cloud.Agency)
	assert.Equal(t, "https://example.gov/prize", cloud.Contact.URL)
	assert.Equal(t, 1500000.0, cloud.Value)
	assert.Equal(t, []string{"Cloud"}, cloud.Tags)
	assert.Equal(t, fixedNow, *cloud.PostedDate)

	assert.Equal(t, []SkipReason{SkipMalformed, SkipNoTitle, SkipIrrelevant}, skipReasons(results))
	assert.True(t, results[1].Skip.Failure())
	assert.False(t, results[2].Skip.Failure())
}

func TestChallengeSiteExtractor_BareArray(t *testing.T) {
	payload := `[{"title": "Digital Identity Challenge", "agency": {"name": "GSA"}}]`
	recs := acceptedRecords(NewChallengeSiteExtractor(nil).Extract([]byte(payload), SourceConfig{ID: "c"}, fixedNow))
	require.Len(t, recs, 1)
	assert.Equal(t, "GSA", recs[0].Agency)
	assert.Equal(t, "Digital Identity Challenge", recs[0].Description)
}

func TestChallengeSiteExtractor_HTMLFallback(t *testing.T) {
	src := SourceConfig{ID: "challenge_gov", URL: "https://www.challenge.gov/", BaseURL: "https://www.challenge.gov"}
	results := NewChallengeSiteExtractor(nil).Extract([]byte(challengeHTMLFixture), src, fixedNow)

	recs := acceptedRecords(results)
	require.Len(t, recs, 1)
	r := recs[0]
	assert.Equal(t, "Robotics Innovation Prize", r.Title)
	assert.Equal(t, "NASA", r.Agency)
	assert.Equal(t, "Robotics Innovation Prize - Build autonomous rovers.", r.Description)
	assert.Equal(t, "https://www.challenge.gov/challenge/robotics-prize", r.Contact.URL)
	assert.Equal(t, 500000.0, r.Value)
	assert.Equal(t, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), *r.PostedDate)
	assert.Equal(t, "challenge", r.Type)

	assert.Equal(t, []SkipReason{SkipIrrelevant}, skipReasons(results))
}

func TestArticleSiteExtractor(t *testing.T) {
	src := SourceConfig{ID: "digital_gov", URL: "https://digital.gov/topics/artificial-intelligence/", BaseURL: "https://digital.gov"}
	results := NewArticleSiteExtractor(nil).Extract([]byte(articleFixture), src, fixedNow)

	recs := acceptedRecords(results)
	require.Len(t, recs, 1)
	r := recs[0]
	assert.Equal(t, "A Practical Guide to AI Procurement", r.Title)
	assert.Equal(t, "How agencies buy artificial intelligence services.", r.Description)
	assert.Equal(t, "https://digital.gov/2025/01/ai-guide/", r.Contact.URL)
	assert.Equal(t, "Jane Smith", r.Name)
	assert.Equal(t, "Digital.gov Author", r.Role)
	assert.Equal(t, "Digital.gov", r.Agency)
	assert.Equal(t, "tech_info", r.Type)
	assert.Equal(t, []string{"AI", "Acquisition"}, r.Tags)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), *r.PostedDate)

	assert.Equal(t, []SkipReason{SkipIrrelevant}, skipReasons(results))
}

func TestExtractors_EmptyPayload(t *testing.T) {
	for _, id := range DefaultExtractors().IDs() {
		ex, err := DefaultExtractors().Get(id)
		require.NoError(t, err)
		assert.Empty(t, acceptedRecords(ex.Extract([]byte(""), SourceConfig{ID: id}, fixedNow)), id)
	}
}

func TestExtractorRegistry(t *testing.T) {
	reg := DefaultExtractors()
	assert.Equal(t, []string{"article_site", "challenge_site", "index_site"}, reg.IDs())

	_, err := reg.Get("rss")
	assert.Error(t, err)

	reg.Register("rss", ExtractorFunc(func(payload []byte, src SourceConfig, now time.Time) []ItemResult {
		return []ItemResult{skipped(src.ID, 1, SkipNoTitle, "")}
	}))
	ex, err := reg.Get("rss")
	require.NoError(t, err)
	assert.Len(t, ex.Extract(nil, SourceConfig{ID: "feed"}, fixedNow), 1)
}

func TestRelevance(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Machine Learning Pilot", true},
		{"AI.gov", true},
		{"Office of the CIO: IT modernization", true},
		{"Federal Maritime Commission", true}, // "it" inside a word still counts
		{"Email updates", true},
		{"Administration for Children and Families", false},
		{"Bake Sale", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, defaultRelevance.Match(tt.text))
		})
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base, href, want string
	}{
		{"https://www.usa.gov", "/agencies/nasa", "https://www.usa.gov/agencies/nasa"},
		{"https://www.usa.gov/federal-agencies/a", "b", "https://www.usa.gov/federal-agencies/b"},
		{"https://www.usa.gov", "https://WWW.NASA.GOV/?utm_campaign=x#top", "https://www.nasa.gov/"},
		{"https://www.usa.gov", "", ""},
		{"", "/relative", "/relative"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveURL(tt.base, tt.href), tt.href)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"$1.5 million in prizes", 1500000},
		{"Up to $50,000 per team, $250K total", 250000},
		{"Prize pool: $2M", 2000000},
		{"2025 awards", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, parseAmount(tt.text), 0.001, tt.text)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2025-03-07", "March 7, 2025", "Posted: Mar 7, 2025", "3/7/2025", "Deadline: 2025-03-07 (5pm ET)"} {
		got := parseDatePtr(in)
		require.NotNil(t, got, in)
		assert.True(t, want.Equal(*got), "%s: got %s", in, got)
	}
	assert.Nil(t, parseDatePtr("soon"))
	assert.Nil(t, parseDatePtr(""))
}
