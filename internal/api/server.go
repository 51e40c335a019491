package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/david/ai-lead-finder/internal/ingest"
	"github.com/david/ai-lead-finder/internal/leads"
	"github.com/david/ai-lead-finder/internal/models"
)

// ScanProvider hands out scan results. Latest may return a cached result;
// Refresh always runs a new scan.
type ScanProvider interface {
	Latest(ctx context.Context) (*ingest.ScanResult, error)
	Refresh(ctx context.Context) (*ingest.ScanResult, error)
}

type Server struct {
	Echo    *echo.Echo
	Scans   ScanProvider
	Sources []ingest.SourceConfig
	log     *logrus.Entry
}

func NewServer(scans ScanProvider, sources []ingest.SourceConfig, allowedOrigins []string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	if len(allowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: allowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	s := &Server{
		Echo:    e,
		Scans:   scans,
		Sources: sources,
		log:     logrus.WithField("component", "api"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api")
	api.GET("/scan", s.handleScan)
	api.POST("/scan", s.handleScan)
	api.GET("/leads", s.handleListLeads)
	api.GET("/stats", s.handleGetStats)
	api.GET("/sources", s.handleGetSources)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

type scanResponse struct {
	Leads       []models.Lead      `json:"leads"`
	Total       int                `json:"total"`
	Diagnostics ingest.Diagnostics `json:"diagnostics"`
}

// handleScan runs a fresh scan and returns every lead with the diagnostics.
func (s *Server) handleScan(c echo.Context) error {
	res, err := s.Scans.Refresh(c.Request().Context())
	if err != nil {
		s.log.Errorf("Scan failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Scan failed"})
	}
	shaped := leads.Shape(res.Records)
	if len(shaped) == 0 && res.Diagnostics.FailedSources > 0 {
		// Every source failed; surface it instead of an empty success.
		return c.JSON(http.StatusBadGateway, scanResponse{Leads: shaped, Diagnostics: res.Diagnostics})
	}
	return c.JSON(http.StatusOK, scanResponse{Leads: shaped, Total: len(shaped), Diagnostics: res.Diagnostics})
}

type leadsResponse struct {
	Leads []models.Lead `json:"leads"`
	leads.Page
}

func (s *Server) handleListLeads(c echo.Context) error {
	q, err := parseLeadQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	res, err := s.Scans.Latest(c.Request().Context())
	if err != nil {
		s.log.Errorf("Failed to load leads: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	list := q.filter.Apply(leads.Shape(res.Records))
	leads.Sort(list, q.sortBy, q.desc)
	page, meta := leads.Paginate(list, q.page, q.perPage)
	return c.JSON(http.StatusOK, leadsResponse{Leads: page, Page: meta})
}

func (s *Server) handleGetStats(c echo.Context) error {
	res, err := s.Scans.Latest(c.Request().Context())
	if err != nil {
		s.log.Errorf("Failed to load leads: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, leads.Summarize(leads.Shape(res.Records)))
}

type sourceView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	URL     string `json:"url"`
	Enabled bool   `json:"enabled"`
}

func (s *Server) handleGetSources(c echo.Context) error {
	out := make([]sourceView, 0, len(s.Sources))
	for _, src := range s.Sources {
		out = append(out, sourceView{ID: src.ID, Name: src.Name, Kind: src.Kind, URL: src.URL, Enabled: !src.Disabled})
	}
	return c.JSON(http.StatusOK, out)
}

type leadQuery struct {
	filter  leads.Filter
	sortBy  leads.SortKey
	desc    bool
	page    int
	perPage int
}

func parseLeadQuery(c echo.Context) (leadQuery, error) {
	q := leadQuery{desc: true, page: 1, perPage: leads.DefaultPerPage}

	for _, v := range multiValue(c, "validation_status") {
		kind, err := models.ParseMessageKind(v)
		if err != nil {
			return q, err
		}
		q.filter.ValidationKinds = append(q.filter.ValidationKinds, kind)
	}
	q.filter.EmailDomains = multiValue(c, "email_domains")

	var err error
	if q.filter.DateFrom, err = parseDateParam(c.QueryParam("date_from")); err != nil {
		return q, fmt.Errorf("date_from: %w", err)
	}
	if q.filter.DateTo, err = parseDateParam(c.QueryParam("date_to")); err != nil {
		return q, fmt.Errorf("date_to: %w", err)
	}
	if to := q.filter.DateTo; to != nil && len(c.QueryParam("date_to")) == len("2006-01-02") {
		// A bare date includes the whole day.
		end := to.Add(24*time.Hour - time.Nanosecond)
		q.filter.DateTo = &end
	}

	sortBy := firstNonEmpty(c.QueryParam("sort_by"), c.QueryParam("sort_field"))
	if q.sortBy, err = leads.ParseSortKey(sortBy); err != nil {
		return q, err
	}
	switch order := strings.ToLower(firstNonEmpty(c.QueryParam("sort_order"), c.QueryParam("sort_direction"))); order {
	case "", "desc":
	case "asc":
		q.desc = false
	default:
		return q, fmt.Errorf("sort_order must be 'asc' or 'desc'")
	}

	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			return q, fmt.Errorf("page must be a positive integer")
		}
		q.page = p
	}
	if v := c.QueryParam("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < leads.MinPerPage || n > leads.MaxPerPage {
			return q, fmt.Errorf("per_page must be between %d and %d", leads.MinPerPage, leads.MaxPerPage)
		}
		q.perPage = n
	}
	return q, nil
}

// multiValue accepts both repeated parameters and comma-separated values.
func multiValue(c echo.Context, name string) []string {
	var out []string
	for _, v := range c.QueryParams()[name] {
		out = append(out, splitCSV(v)...)
	}
	return out
}

// splitCSV splits a comma-separated query parameter into trimmed non-empty strings.
func splitCSV(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

func parseDateParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
