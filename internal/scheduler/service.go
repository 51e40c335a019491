package scheduler

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/david/ai-lead-finder/internal/config"
	"github.com/david/ai-lead-finder/internal/ingest"
)

// Scanner runs one scan.
type Scanner interface {
	Scan(ctx context.Context) (*ingest.ScanResult, error)
}

// Service runs scans on a cron schedule and keeps the latest result for
// readers. Concurrent scan requests share one run.
type Service struct {
	config  *config.Config
	scanner Scanner
	cron    *cron.Cron
	group   singleflight.Group

	mu   sync.RWMutex
	last *ingest.ScanResult
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, scanner Scanner) *Service {
	return &Service{
		config:  cfg,
		scanner: scanner,
		cron:    cron.New(cron.WithParser(config.ScheduleParser)),
	}
}

// Start begins the scheduled rescans. Without SCAN_SCHEDULE it does nothing.
func (s *Service) Start() error {
	if s.config.ScanSchedule == "" {
		logrus.Info("Scan schedule not configured; scans run on demand only")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.ScanSchedule, func() {
		logrus.Info("Starting scheduled scan")
		if _, err := s.Refresh(context.Background()); err != nil {
			logrus.Errorf("Scheduled scan failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with schedule %q", s.config.ScanSchedule)
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}

// Refresh runs a scan now and stores its result. Callers arriving while a
// scan is in flight receive that scan's result. The scan is detached from
// ctx, so a caller that gives up does not abort it for the others; that
// caller gets ctx's error.
func (s *Service) Refresh(ctx context.Context) (*ingest.ScanResult, error) {
	scanCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("scan", func() (any, error) {
		res, err := s.scanner.Scan(scanCtx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.last = res
		s.mu.Unlock()
		return res, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*ingest.ScanResult), nil
	}
}

// Latest returns the stored result, scanning first when there is none.
func (s *Service) Latest(ctx context.Context) (*ingest.ScanResult, error) {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()
	if last != nil {
		return last, nil
	}
	return s.Refresh(ctx)
}
