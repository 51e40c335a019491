package ingest

import (
	"context"
	"io"
	"time"

	"github.com/david/ai-lead-finder/internal/models"
)

// FetchedDocument represents the raw result of a fetch operation.
type FetchedDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
	FetchedAt   time.Time
	Headers     map[string][]string
}

// Fetcher retrieves raw content from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedDocument, error)
}

// SkipReason explains why an extractor did not emit a record for a candidate.
type SkipReason string

const (
	SkipMalformed  SkipReason = "malformed"   // payload for the item could not be read
	SkipNoTitle    SkipReason = "no_title"    // no usable title/name anchor
	SkipNavigation SkipReason = "navigation"  // nav/menu/footer link
	SkipIrrelevant SkipReason = "irrelevant"  // no relevance vocabulary hit
	SkipDuplicate  SkipReason = "duplicate"   // same anchor already emitted by this source
)

// ItemResult is the outcome for one candidate item: either a record or the
// reason it was skipped.
type ItemResult struct {
	Record *models.OpportunityRecord
	Skip   *ParseError
}

func accepted(rec *models.OpportunityRecord) ItemResult {
	return ItemResult{Record: rec}
}

func skipped(source string, index int, reason SkipReason, detail string) ItemResult {
	return ItemResult{Skip: &ParseError{Source: source, Index: index, Reason: reason, Detail: detail}}
}

// SourceStatus is the final state of one source within a scan.
type SourceStatus string

const (
	SourceOK       SourceStatus = "ok"
	SourceFailed   SourceStatus = "failed"
	SourceTimedOut SourceStatus = "timed_out"
)

// SourceReport summarises what happened to one configured source.
type SourceReport struct {
	ID            string             `json:"id"`
	URL           string             `json:"url"`
	Status        SourceStatus       `json:"status"`
	Attempts      int                `json:"attempts"`
	Candidates    int                `json:"candidates"`
	Accepted      int                `json:"accepted"`
	ParseFailures int                `json:"parse_failures"`
	Skipped       map[SkipReason]int `json:"skipped,omitempty"`
	DetailFetches int                `json:"detail_fetches"`
	Error         string             `json:"error,omitempty"`
	Duration      time.Duration      `json:"duration"`

	// DetailShortfall counts records left without agency details because the
	// scan deadline arrived during enrichment.
	DetailShortfall int `json:"detail_shortfall,omitempty"`
}

// Diagnostics describes a whole scan.
type Diagnostics struct {
	ScanID        string         `json:"scan_id"`
	StartedAt     time.Time      `json:"started_at"`
	Duration      time.Duration  `json:"duration"`
	Sources       []SourceReport `json:"sources"`
	FailedSources int            `json:"failed_sources"`
	ParseFailures int            `json:"parse_failures"`
	Skipped       int            `json:"skipped"`
	Extracted     int            `json:"extracted"`
	Deduplicated  int            `json:"deduplicated"`
	TimedOut      bool           `json:"timed_out"`
}

// ScanResult is the scored, deduplicated output of one scan.
type ScanResult struct {
	Records     []models.OpportunityRecord `json:"records"`
	Diagnostics Diagnostics                `json:"diagnostics"`
}
