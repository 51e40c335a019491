package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/david/ai-lead-finder/internal/models"
)

// DefaultScanTimeout caps the fetch phase of one scan.
const DefaultScanTimeout = 30 * time.Second

const defaultDetailMax = 10

// DefaultDetailTimeout caps a single agency page fetch, so one slow page
// cannot use up the rest of the scan.
const DefaultDetailTimeout = 10 * time.Second

// RecordValidator attaches validation findings to a record.
type RecordValidator interface {
	Validate(rec *models.OpportunityRecord) models.ValidationResult
}

// RecordScorer attaches a score to a record.
type RecordScorer interface {
	ScoreRecord(rec *models.OpportunityRecord, now time.Time) models.ScoreBreakdown
}

// Options configures a Pipeline. Zero values select the defaults.
type Options struct {
	ScanTimeout time.Duration
	// DetailTimeout bounds each agency page fetch within the scan deadline.
	DetailTimeout time.Duration
	// MaxAttempts and Backoff override every source's fetch settings when set.
	MaxAttempts int
	Backoff     time.Duration

	// Fetcher replaces the per-source transport. Retries still apply.
	Fetcher    Fetcher
	Extractors *ExtractorRegistry
	Cache      DetailCache
	Validator  RecordValidator
	Scorer     RecordScorer

	Now func() time.Time
	Log *logrus.Entry
}

type boundSource struct {
	cfg       SourceConfig
	extractor Extractor
	fetcher   *RetryingFetcher
	detail    *detailEnricher
}

// Pipeline scans the configured sources and turns them into deduplicated,
// validated and scored records. A Pipeline may run several scans
// concurrently; only the detail cache is shared between them.
type Pipeline struct {
	sources       []boundSource
	timeout       time.Duration
	detailTimeout time.Duration
	validator     RecordValidator
	scorer        RecordScorer
	now           func() time.Time
	log           *logrus.Entry
}

// NewPipeline resolves each source's extractor and transport. An unknown
// extractor id is a configuration error.
func NewPipeline(sources []SourceConfig, opts Options) (*Pipeline, error) {
	extractors := opts.Extractors
	if extractors == nil {
		extractors = DefaultExtractors()
	}
	p := &Pipeline{
		timeout:       opts.ScanTimeout,
		detailTimeout: opts.DetailTimeout,
		validator:     opts.Validator,
		scorer:        opts.Scorer,
		now:           opts.Now,
		log:           opts.Log,
	}
	if p.timeout <= 0 {
		p.timeout = DefaultScanTimeout
	}
	if p.detailTimeout <= 0 {
		p.detailTimeout = DefaultDetailTimeout
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.log == nil {
		p.log = logrus.WithField("component", "pipeline")
	}

	for _, src := range sources {
		ex, err := extractors.Get(src.ExtractorID())
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", src.ID, err)
		}

		base := opts.Fetcher
		if base == nil {
			base = transportFor(src.Fetch)
		}
		retry := NewRetryingFetcher(base, src.Fetch)
		retry.Log = p.log.WithField("source", src.ID)
		if opts.MaxAttempts > 0 {
			retry.MaxAttempts = opts.MaxAttempts
		}
		if opts.Backoff > 0 {
			retry.Backoff = opts.Backoff
		}

		bound := boundSource{cfg: src, extractor: ex, fetcher: retry}
		if src.Detail.Enabled {
			bound.detail = &detailEnricher{fetcher: base, cache: opts.Cache}
		}
		p.sources = append(p.sources, bound)
	}
	return p, nil
}

func transportFor(cfg FetchConfig) Fetcher {
	if cfg.Transport == "colly" {
		return CollyFetcherWithConfig(cfg)
	}
	return NewHTTPFetcher(cfg)
}

// Scan fetches every source concurrently, under one deadline for the whole
// fetch phase. Failed or timed-out sources are reported in the diagnostics
// and contribute no records; Scan itself only fails when ctx ends before the
// fetch phase is over.
func (p *Pipeline) Scan(ctx context.Context) (*ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	began := time.Now()
	start := p.now()
	diag := Diagnostics{ScanID: uuid.NewString(), StartedAt: start}
	log := p.log.WithField("scan_id", diag.ScanID)

	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	reports := make([]SourceReport, len(p.sources))
	batches := make([][]models.OpportunityRecord, len(p.sources))

	var g errgroup.Group
	for i := range p.sources {
		g.Go(func() error {
			reports[i], batches[i] = p.scanSource(fetchCtx, p.sources[i], start)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		log.Warnf("Scan abandoned: %v", err)
		return nil, err
	}

	var records []models.OpportunityRecord
	for i, r := range reports {
		switch r.Status {
		case SourceOK:
			records = append(records, batches[i]...)
			if r.DetailShortfall > 0 {
				diag.TimedOut = true
			}
		case SourceTimedOut:
			diag.TimedOut = true
			diag.FailedSources++
		default:
			diag.FailedSources++
		}
		diag.ParseFailures += r.ParseFailures
		for _, n := range r.Skipped {
			diag.Skipped += n
		}
	}
	diag.Sources = reports
	diag.Extracted = len(records)

	unique := Deduplicate(records)
	diag.Deduplicated = len(records) - len(unique)

	now := p.now()
	for i := range unique {
		if p.validator != nil {
			p.validator.Validate(&unique[i])
		}
		if p.scorer != nil {
			p.scorer.ScoreRecord(&unique[i], now)
		}
	}

	diag.Duration = time.Since(began)
	log.WithFields(logrus.Fields{
		"records":   len(unique),
		"failed":    diag.FailedSources,
		"skipped":   diag.Skipped,
		"timed_out": diag.TimedOut,
	}).Infof("Scan complete: %d records from %d sources", len(unique), len(p.sources))

	if unique == nil {
		unique = []models.OpportunityRecord{}
	}
	return &ScanResult{Records: unique, Diagnostics: diag}, nil
}

// scanSource fetches, extracts and enriches one source. Once extraction has
// succeeded the records are kept, even when the deadline cuts enrichment short.
func (p *Pipeline) scanSource(ctx context.Context, src boundSource, now time.Time) (SourceReport, []models.OpportunityRecord) {
	began := time.Now()
	report := SourceReport{ID: src.cfg.ID, URL: src.cfg.URL, Status: SourceOK}
	log := p.log.WithField("source", src.cfg.ID)

	fail := func(err error) (SourceReport, []models.OpportunityRecord) {
		report.Status = SourceFailed
		if errors.Is(err, ErrScanTimeout) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			report.Status = SourceTimedOut
		}
		report.Error = err.Error()
		report.Duration = time.Since(began)
		log.Warnf("Source abandoned (%s): %v", report.Status, err)
		return report, nil
	}

	doc, attempts, err := src.fetcher.FetchCounted(ctx, src.cfg.URL)
	report.Attempts = attempts
	if err != nil {
		return fail(err)
	}
	payload, err := io.ReadAll(doc.Body)
	doc.Body.Close()
	if err != nil {
		return fail(&FetchError{URL: src.cfg.URL, Attempts: attempts, Err: err})
	}

	results := src.extractor.Extract(payload, src.cfg, now)
	report.Candidates = len(results)

	var records []models.OpportunityRecord
	for _, r := range results {
		if r.Skip != nil {
			if report.Skipped == nil {
				report.Skipped = make(map[SkipReason]int)
			}
			report.Skipped[r.Skip.Reason]++
			if r.Skip.Failure() {
				report.ParseFailures++
			}
			log.Debug(r.Skip.Error())
			continue
		}
		records = append(records, *r.Record)
	}
	report.Accepted = len(records)

	if src.detail != nil {
		report.DetailFetches, report.DetailShortfall = p.enrich(ctx, src, records, log)
		if report.DetailShortfall > 0 {
			log.Warnf("Scan deadline reached; %d records left without agency details", report.DetailShortfall)
		}
	}

	report.Duration = time.Since(began)
	log.Debugf("Extracted %d/%d candidates", report.Accepted, report.Candidates)
	return report, records
}

// enrich merges agency detail pages into up to Detail.Max records. It returns
// the number of pages fetched and the number of records the scan deadline left
// unenriched. Other detail failures only log.
func (p *Pipeline) enrich(ctx context.Context, src boundSource, records []models.OpportunityRecord, log *logrus.Entry) (fetched, shortfall int) {
	limit := src.cfg.Detail.Max
	if limit <= 0 {
		limit = defaultDetailMax
	}

	looked := 0
	for i := range records {
		if looked >= limit {
			break
		}
		url := records[i].Contact.URL
		if url == "" {
			continue
		}
		looked++
		if ctx.Err() != nil {
			shortfall++
			continue
		}

		detailCtx, cancel := context.WithTimeout(ctx, p.detailTimeout)
		d, didFetch, err := src.detail.lookup(detailCtx, url)
		cancel()
		if didFetch {
			fetched++
		}
		if err != nil {
			if ctx.Err() != nil {
				shortfall++
			}
			log.Debugf("Detail page %s: %v", url, err)
			continue
		}
		applyDetail(&records[i], d)
	}
	return fetched, shortfall
}
