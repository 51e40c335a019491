package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/david/ai-lead-finder/internal/ingest"
	"github.com/david/ai-lead-finder/internal/leads"
	"github.com/david/ai-lead-finder/internal/models"
)

type mockScans struct {
	mock.Mock
}

func (m *mockScans) Latest(ctx context.Context) (*ingest.ScanResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*ingest.ScanResult)
	return res, args.Error(1)
}

func (m *mockScans) Refresh(ctx context.Context) (*ingest.ScanResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*ingest.ScanResult)
	return res, args.Error(1)
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func sampleResult() *ingest.ScanResult {
	warn := []models.ValidationMessage{{Kind: models.KindWarning, Message: "Contact has name but no email/phone"}}
	return &ingest.ScanResult{
		Records: []models.OpportunityRecord{
			{ID: "r1", Title: "AI Pilot", Agency: "NASA", Type: "challenge", SourceID: "challenge_gov",
				Contact: models.Contact{Email: "ai@nasa.gov"}, PostedDate: day(2025, 3, 1),
				Score: &models.ScoreBreakdown{TotalScore: 70}},
			{ID: "r2", Title: "Data Office", Agency: "GSA", Type: "agency_info", SourceID: "usa_gov",
				PostedDate: day(2025, 2, 1), ValidationMessages: warn,
				Score: &models.ScoreBreakdown{TotalScore: 30}},
			{ID: "r3", Title: "Cloud Blog", Agency: "DOE", Type: "tech_info", SourceID: "digital_gov",
				Contact: models.Contact{Email: "team@energy.gov"}, PostedDate: day(2025, 1, 15),
				Score: &models.ScoreBreakdown{TotalScore: 50}},
		},
		Diagnostics: ingest.Diagnostics{ScanID: "scan-1", Extracted: 3},
	}
}

func serve(t *testing.T, srv *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := NewServer(new(mockScans), nil, nil)
	rec := serve(t, srv, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestScan(t *testing.T) {
	scans := new(mockScans)
	scans.On("Refresh", mock.Anything).Return(sampleResult(), nil)
	srv := NewServer(scans, nil, nil)

	rec := serve(t, srv, http.MethodPost, "/api/scan")
	require.Equal(t, http.StatusOK, rec.Code)

	var body scanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Total)
	assert.Equal(t, "scan-1", body.Diagnostics.ScanID)
	require.Len(t, body.Leads, 3)
	assert.Equal(t, "r1", body.Leads[0].ID)
	assert.Equal(t, 70.0, body.Leads[0].Score)
	scans.AssertExpectations(t)
}

func TestScan_AllSourcesFailed(t *testing.T) {
	scans := new(mockScans)
	scans.On("Refresh", mock.Anything).Return(&ingest.ScanResult{
		Records:     []models.OpportunityRecord{},
		Diagnostics: ingest.Diagnostics{FailedSources: 3},
	}, nil)
	srv := NewServer(scans, nil, nil)

	rec := serve(t, srv, http.MethodGet, "/api/scan")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"failed_sources":3`)
}

func TestScan_Error(t *testing.T) {
	scans := new(mockScans)
	scans.On("Refresh", mock.Anything).Return(nil, errors.New("context canceled"))
	srv := NewServer(scans, nil, nil)

	rec := serve(t, srv, http.MethodPost, "/api/scan")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Scan failed")
}

func TestListLeads(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantIDs   []string
		wantTotal int
	}{
		{"default newest first", "", []string{"r1", "r2", "r3"}, 3},
		{"score ascending", "?sort_by=score&sort_order=asc", []string{"r2", "r3", "r1"}, 3},
		{"legacy sort params", "?sort_field=agency&sort_direction=asc", []string{"r3", "r2", "r1"}, 3},
		{"warnings only", "?validation_status=warning", []string{"r2"}, 1},
		{"email domains", "?email_domains=nasa.gov,energy.gov", []string{"r1", "r3"}, 2},
		{"bare date_to covers the day", "?date_to=2025-02-01", []string{"r2", "r3"}, 2},
		{"date range", "?date_from=2025-01-20&date_to=2025-02-28", []string{"r2"}, 1},
		{"second page", "?per_page=5&page=2", []string{}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scans := new(mockScans)
			scans.On("Latest", mock.Anything).Return(sampleResult(), nil)
			srv := NewServer(scans, nil, nil)

			rec := serve(t, srv, http.MethodGet, "/api/leads"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var body struct {
				Leads []models.Lead `json:"leads"`
				leads.Page
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			ids := []string{}
			for _, l := range body.Leads {
				ids = append(ids, l.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantTotal, body.Total)
		})
	}
}

func TestListLeads_BadQuery(t *testing.T) {
	for _, query := range []string{
		"?per_page=2",
		"?per_page=500",
		"?page=0",
		"?sort_order=sideways",
		"?sort_by=password",
		"?date_from=yesterday",
		"?validation_status=fatal",
	} {
		t.Run(query, func(t *testing.T) {
			scans := new(mockScans)
			srv := NewServer(scans, nil, nil)
			rec := serve(t, srv, http.MethodGet, "/api/leads"+query)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			scans.AssertNotCalled(t, "Latest", mock.Anything)
		})
	}
}

func TestStats(t *testing.T) {
	scans := new(mockScans)
	scans.On("Latest", mock.Anything).Return(sampleResult(), nil)
	srv := NewServer(scans, nil, nil)

	rec := serve(t, srv, http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats leads.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, map[string]int{"challenge": 1, "agency_info": 1, "tech_info": 1}, stats.ByType)
	assert.Equal(t, 1, stats.ByValidation[models.KindWarning])
}

func TestStats_Error(t *testing.T) {
	scans := new(mockScans)
	scans.On("Latest", mock.Anything).Return(nil, errors.New("boom"))
	srv := NewServer(scans, nil, nil)

	rec := serve(t, srv, http.MethodGet, "/api/stats")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSources(t *testing.T) {
	sources := []ingest.SourceConfig{
		{ID: "usa_gov", Name: "USA.gov agency index", Kind: "index_site", URL: "https://www.usa.gov/agency-index"},
		{ID: "digital_gov", Name: "Digital.gov", Kind: "article_site", URL: "https://digital.gov/news", Disabled: true},
	}
	srv := NewServer(new(mockScans), sources, nil)

	rec := serve(t, srv, http.MethodGet, "/api/sources")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []sourceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.True(t, out[0].Enabled)
	assert.False(t, out[1].Enabled)
	assert.Equal(t, "article_site", out[1].Kind)
}

func TestCORS(t *testing.T) {
	srv := NewServer(new(mockScans), nil, []string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodOptions, "/api/leads", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
