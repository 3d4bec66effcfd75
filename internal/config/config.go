package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Scorer modes.
const (
	ScorerSeeded   = "seeded"
	ScorerStatic   = "static"
	ScorerService  = "service"
	ScorerSnapshot = "snapshot"
)

// Weighting modes.
const (
	WeightingEqual      = "equal"
	WeightingLogReviews = "log_reviews"
)

// SelectorConfig holds CSS selectors for one marketplace's saved listing pages.
type SelectorConfig struct {
	Rating      string  `yaml:"rating"`
	RatingScale float64 `yaml:"rating_scale"`
	Reviews     string  `yaml:"reviews"`
	Price       string  `yaml:"price"`
	Link        string  `yaml:"link"`
}

// SourceConfig describes one marketplace.
type SourceConfig struct {
	Name         string         `yaml:"name"`
	SearchURL    string         `yaml:"search_url"`
	ReviewBase   int            `yaml:"review_base"`
	ReviewSpread int            `yaml:"review_spread"`
	Selectors    SelectorConfig `yaml:"selectors"`
}

type sourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
	Catalog []string       `yaml:"catalog"`
}

// Config captures runtime configuration for the review radar service.
type Config struct {
	ListenAddr       string
	LogLevel         string
	LogFile          string
	Scorer           string
	Seed             uint64
	SourceTimeout    time.Duration
	DispatchTimeout  time.Duration
	RequestTimeout   time.Duration
	MinSuccesses     int
	MaxConcurrency   int
	ProgressBuffer   int
	Weighting        string
	StaticDataPath   string
	SnapshotDir      string
	ReviewServiceURL string
	ReviewServiceKey string
	ReviewServiceRPS float64
	// ReviewServiceFallback lets the seeded scorer answer for a failing review service.
	ReviewServiceFallback bool
	RunRetention          time.Duration
	SourcesFile           string
	Sources               []SourceConfig
	Catalog               []string
}

// DefaultSources is the marketplace roster used when no sources file is configured.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{Name: "Amazon", SearchURL: "https://www.amazon.in/s?k=%s", ReviewBase: 1000, ReviewSpread: 5000},
		{Name: "Flipkart", SearchURL: "https://www.flipkart.com/search?q=%s", ReviewBase: 500, ReviewSpread: 3000},
		{Name: "Myntra", SearchURL: "https://www.myntra.com/search?rawQuery=%s", ReviewBase: 200, ReviewSpread: 2000},
		{Name: "Nykaa", SearchURL: "https://www.nykaa.com/search/result/?q=%s", ReviewBase: 100, ReviewSpread: 1500},
	}
}

// FromEnv creates a configuration instance sourced from environment variables.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:       getEnv("RADAR_LISTEN_ADDR", ":8080"),
		LogLevel:         getEnv("RADAR_LOG_LEVEL", "info"),
		LogFile:          getEnv("RADAR_LOG_FILE", ""),
		Scorer:           strings.ToLower(getEnv("RADAR_SCORER", ScorerSeeded)),
		Seed:             42,
		SourceTimeout:    2 * time.Second,
		DispatchTimeout:  5 * time.Second,
		RequestTimeout:   10 * time.Second,
		MinSuccesses:     1,
		ProgressBuffer:   16,
		Weighting:        strings.ToLower(getEnv("RADAR_WEIGHTING", WeightingEqual)),
		StaticDataPath:   getEnv("RADAR_STATIC_DATA", "data/sample_reviews.json"),
		SnapshotDir:      getEnv("RADAR_SNAPSHOT_DIR", "data/snapshots"),
		ReviewServiceURL: getEnv("RADAR_REVIEW_SERVICE_URL", ""),
		ReviewServiceKey: getEnv("RADAR_REVIEW_SERVICE_KEY", ""),
		ReviewServiceRPS: 5,
		RunRetention:     15 * time.Minute,
		SourcesFile:      getEnv("RADAR_SOURCES_FILE", ""),
		Sources:          DefaultSources(),
	}

	if seed := os.Getenv("RADAR_SEED"); seed != "" {
		if _, err := fmt.Sscanf(seed, "%d", &cfg.Seed); err != nil {
			return Config{}, eris.Wrap(err, "parse RADAR_SEED")
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"RADAR_SOURCE_TIMEOUT", &cfg.SourceTimeout},
		{"RADAR_DISPATCH_TIMEOUT", &cfg.DispatchTimeout},
		{"RADAR_REQUEST_TIMEOUT", &cfg.RequestTimeout},
		{"RADAR_RUN_RETENTION", &cfg.RunRetention},
	}
	for _, d := range durations {
		value := os.Getenv(d.key)
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, eris.Wrapf(err, "parse %s", d.key)
		}
		*d.dst = parsed
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"RADAR_MIN_SUCCESSES", &cfg.MinSuccesses},
		{"RADAR_MAX_CONCURRENCY", &cfg.MaxConcurrency},
		{"RADAR_PROGRESS_BUFFER", &cfg.ProgressBuffer},
	}
	for _, i := range ints {
		value := os.Getenv(i.key)
		if value == "" {
			continue
		}
		if _, err := fmt.Sscanf(value, "%d", i.dst); err != nil {
			return Config{}, eris.Wrapf(err, "parse %s", i.key)
		}
	}

	if rps := os.Getenv("RADAR_REVIEW_SERVICE_RPS"); rps != "" {
		if _, err := fmt.Sscanf(rps, "%f", &cfg.ReviewServiceRPS); err != nil {
			return Config{}, eris.Wrap(err, "parse RADAR_REVIEW_SERVICE_RPS")
		}
	}

	if fallback := os.Getenv("RADAR_REVIEW_SERVICE_FALLBACK"); fallback != "" {
		parsed, err := strconv.ParseBool(fallback)
		if err != nil {
			return Config{}, eris.Wrap(err, "parse RADAR_REVIEW_SERVICE_FALLBACK")
		}
		cfg.ReviewServiceFallback = parsed
	}

	if catalog := os.Getenv("RADAR_CATALOG"); catalog != "" {
		cfg.Catalog = splitList(catalog)
	}

	if cfg.SourcesFile != "" {
		file, err := loadSources(cfg.SourcesFile)
		if err != nil {
			return Config{}, err
		}
		if len(file.Sources) > 0 {
			cfg.Sources = file.Sources
		}
		if len(cfg.Catalog) == 0 {
			cfg.Catalog = file.Catalog
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Scorer {
	case ScorerSeeded, ScorerStatic, ScorerService, ScorerSnapshot:
	default:
		return eris.Errorf("unknown RADAR_SCORER %q", c.Scorer)
	}
	switch c.Weighting {
	case WeightingEqual, WeightingLogReviews:
	default:
		return eris.Errorf("unknown RADAR_WEIGHTING %q", c.Weighting)
	}
	if len(c.Sources) == 0 {
		return eris.New("no marketplaces configured")
	}
	seen := make(map[string]struct{}, len(c.Sources))
	for _, s := range c.Sources {
		key := strings.ToLower(strings.TrimSpace(s.Name))
		if key == "" {
			return eris.New("marketplace with empty name")
		}
		if _, ok := seen[key]; ok {
			return eris.Errorf("duplicate marketplace %q", s.Name)
		}
		seen[key] = struct{}{}
	}
	if c.MinSuccesses < 1 || c.MinSuccesses > len(c.Sources) {
		return eris.Errorf("RADAR_MIN_SUCCESSES must be between 1 and %d, got %d", len(c.Sources), c.MinSuccesses)
	}
	if c.MaxConcurrency < 0 {
		return eris.Errorf("RADAR_MAX_CONCURRENCY must not be negative, got %d", c.MaxConcurrency)
	}
	if c.SourceTimeout < 0 || c.DispatchTimeout < 0 {
		return eris.New("timeouts must not be negative")
	}
	if c.RunRetention <= 0 {
		return eris.Errorf("RADAR_RUN_RETENTION must be positive, got %s", c.RunRetention)
	}
	if c.Scorer == ScorerService && c.ReviewServiceURL == "" {
		return eris.New("RADAR_REVIEW_SERVICE_URL is required for the service scorer")
	}
	return nil
}

// SourceNames returns the configured marketplace names in order.
func (c Config) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for _, s := range c.Sources {
		names = append(names, strings.TrimSpace(s.Name))
	}
	return names
}

func loadSources(path string) (sourcesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sourcesFile{}, eris.Wrapf(err, "read sources file %s", path)
	}
	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return sourcesFile{}, eris.Wrapf(err, "parse sources file %s", path)
	}
	return file, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
