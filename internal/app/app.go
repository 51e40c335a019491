// Package app wires configuration into a ready-to-run pipeline. It is shared
// by the server and the command-line tools.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/david/ai-lead-finder/internal/config"
	"github.com/david/ai-lead-finder/internal/ingest"
	"github.com/david/ai-lead-finder/internal/scoring"
	"github.com/david/ai-lead-finder/internal/validate"
)

// SetupLogging applies DEBUG and LOG_FORMAT to the standard logrus logger.
func SetupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// Pipeline bundles a pipeline with the sources it scans and the resources to
// release on shutdown.
type Pipeline struct {
	*ingest.Pipeline
	Sources []ingest.SourceConfig
	closers []func() error
}

func (p *Pipeline) Close() {
	for _, c := range p.closers {
		if err := c(); err != nil {
			logrus.Warnf("Close: %v", err)
		}
	}
}

// NewPipeline loads the source registry and builds a pipeline with the
// configured cache, validator and scorer.
func NewPipeline(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	reg, err := ingest.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	extractors := ingest.DefaultExtractors()
	if err := reg.Validate(extractors); err != nil {
		return nil, fmt.Errorf("invalid source registry: %w", err)
	}

	out := &Pipeline{Sources: reg.Sources}

	var cache ingest.DetailCache
	if cfg.RedisURL != "" {
		client, err := ingest.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		out.closers = append(out.closers, client.Close)
		cache = ingest.NewRedisDetailCache(client, cfg.DetailCacheTTL)
		logrus.Info("Agency details cached in Redis")
	} else {
		cache = ingest.NewLRUDetailCache(cfg.DetailCacheSize, cfg.DetailCacheTTL)
	}

	p, err := ingest.NewPipeline(reg.Enabled(), ingest.Options{
		ScanTimeout: cfg.ScanTimeout,
		MaxAttempts: cfg.FetchMaxAttempts,
		Backoff:     cfg.FetchBackoff,
		Extractors:  extractors,
		Cache:       cache,
		Validator:   validate.New(cfg.ValidateContacts),
		Scorer:      scoring.New(),
	})
	if err != nil {
		out.Close()
		return nil, err
	}
	out.Pipeline = p
	return out, nil
}
