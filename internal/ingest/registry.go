package ingest

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the configuration for all data sources, in declaration order.
type Registry struct {
	Sources []SourceConfig `yaml:"sources"`
}

// FetchConfig defines HTTP fetching configuration for a source.
type FetchConfig struct {
	Transport      string  `yaml:"transport,omitempty"`       // "http" (default) or "colly"
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"` // per request, default: 30
	MaxAttempts    int     `yaml:"max_attempts,omitempty"`    // default: 3
	BackoffMS      int     `yaml:"backoff_ms,omitempty"`      // fixed wait between attempts, default: 1000
	RateLimitRPS   float64 `yaml:"rate_limit_rps,omitempty"`  // colly transport only
	AcceptLanguage string  `yaml:"accept_language,omitempty"`
}

// SourceConfig defines a single data source.
type SourceConfig struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`      // index_site, challenge_site, article_site
	Extractor   string `yaml:"extractor"` // key in the ExtractorRegistry, defaults to Kind
	Type        string `yaml:"type"`      // lead type shown to callers: agency_info, challenge, tech_info
	URL         string `yaml:"url"`
	BaseURL     string `yaml:"base_url"` // relative links resolve against this
	Disabled    bool   `yaml:"disabled,omitempty"`
	Description string `yaml:"description,omitempty"`

	Fetch       FetchConfig       `yaml:"fetch,omitempty"`
	Selectors   SelectorConfig    `yaml:"selectors,omitempty"`
	Placeholder PlaceholderConfig `yaml:"placeholder,omitempty"`
	Detail      DetailConfig      `yaml:"detail,omitempty"`
}

type SelectorConfig struct {
	Container string `yaml:"container,omitempty"` // explicit container selector, tried first
}

// PlaceholderConfig overrides the default contact placeholders an extractor
// assigns to its records.
type PlaceholderConfig struct {
	Name   string `yaml:"name,omitempty"`
	Role   string `yaml:"role,omitempty"`
	Office string `yaml:"office,omitempty"`
	Agency string `yaml:"agency,omitempty"`
}

// DetailConfig enables per-record detail page enrichment.
type DetailConfig struct {
	Enabled bool `yaml:"enabled"`
	Max     int  `yaml:"max,omitempty"` // max detail fetches per scan, default: 10
}

// ExtractorID returns the registry key used to resolve this source's extractor.
func (c SourceConfig) ExtractorID() string {
	if c.Extractor != "" {
		return c.Extractor
	}
	return c.Kind
}

// ResolveBase returns the URL relative links are resolved against.
func (c SourceConfig) ResolveBase() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return c.URL
}

func (c FetchConfig) backoff() time.Duration {
	if c.BackoffMS <= 0 {
		return time.Second
	}
	return time.Duration(c.BackoffMS) * time.Millisecond
}

func (c FetchConfig) attempts() int {
	if c.MaxAttempts <= 0 {
		return 3
	}
	return c.MaxAttempts
}

// LoadRegistry reads sources from path, or from the embedded sources.yaml
// when path is empty or missing.
func LoadRegistry(path string) (*Registry, error) {
	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
	}
	if path == "" || os.IsNotExist(err) {
		data, err = sourcesYAML.ReadFile("config/sources.yaml")
	}
	if err != nil {
		return nil, err
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes registry YAML after expanding environment variables
// (e.g. ${CHALLENGE_API_URL}).
func ParseRegistry(data []byte) (*Registry, error) {
	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	return &reg, nil
}

// Enabled returns the sources that are not disabled, in declaration order.
func (r *Registry) Enabled() []SourceConfig {
	out := make([]SourceConfig, 0, len(r.Sources))
	for _, src := range r.Sources {
		if !src.Disabled {
			out = append(out, src)
		}
	}
	return out
}

// Validate checks ids, URLs and that every source resolves to a registered
// extractor.
func (r *Registry) Validate(extractors *ExtractorRegistry) error {
	seen := make(map[string]struct{}, len(r.Sources))
	for i, src := range r.Sources {
		if src.ID == "" {
			return fmt.Errorf("source #%d: id is required", i)
		}
		if _, dup := seen[src.ID]; dup {
			return fmt.Errorf("source %q: duplicate id", src.ID)
		}
		seen[src.ID] = struct{}{}

		u, err := url.Parse(src.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("source %q: invalid url %q", src.ID, src.URL)
		}
		if _, err := extractors.Get(src.ExtractorID()); err != nil {
			return fmt.Errorf("source %q: %w", src.ID, err)
		}
	}
	return nil
}
