package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Shyamsundamarasu/hi-there-friend-93/internal/analysis"
	"github.com/Shyamsundamarasu/hi-there-friend-93/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		Scorer:          config.ScorerSeeded,
		Seed:            42,
		SourceTimeout:   time.Second,
		DispatchTimeout: 2 * time.Second,
		RequestTimeout:  3 * time.Second,
		MinSuccesses:    1,
		ProgressBuffer:  16,
		RunRetention:    time.Minute,
		Weighting:       config.WeightingEqual,
		StaticDataPath:  filepath.Join("..", "..", "data", "sample_reviews.json"),
		SnapshotDir:     filepath.Join("..", "..", "data", "snapshots"),
		Sources:         config.DefaultSources(),
	}
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestNewScorerModes(t *testing.T) {
	cases := map[string]func(analysis.Scorer) bool{
		config.ScorerSeeded:   func(s analysis.Scorer) bool { _, ok := s.(*analysis.SeededScorer); return ok },
		config.ScorerStatic:   func(s analysis.Scorer) bool { _, ok := s.(*analysis.StaticFileScorer); return ok },
		config.ScorerSnapshot: func(s analysis.Scorer) bool { _, ok := s.(*analysis.SnapshotScorer); return ok },
		config.ScorerService:  func(s analysis.Scorer) bool { _, ok := s.(analysis.ServiceScorer); return ok },
	}
	for mode, check := range cases {
		t.Run(mode, func(t *testing.T) {
			cfg := testConfig()
			cfg.Scorer = mode
			cfg.ReviewServiceURL = "http://127.0.0.1:1"
			scorer, err := NewScorer(cfg, testLogger())
			if err != nil {
				t.Fatalf("NewScorer: %v", err)
			}
			if !check(scorer) {
				t.Fatalf("unexpected scorer type %T", scorer)
			}
		})
	}

	cfg := testConfig()
	cfg.Scorer = "oracle"
	if _, err := NewScorer(cfg, testLogger()); err == nil {
		t.Fatal("expected error for unknown scorer")
	}
}

func TestNewWiresStaticFixtures(t *testing.T) {
	cfg := testConfig()
	cfg.Scorer = config.ScorerStatic

	application, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := application.Service.Analyze(context.Background(), analysis.RawQuery{Value: "Wireless Earbuds"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.OverallScore != 90 || result.Recommendation != analysis.RecommendationBestChoice || len(result.Sources) != 4 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestServiceOutageIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Scorer = config.ScorerService
	cfg.ReviewServiceURL = srv.URL

	application, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = application.Service.Analyze(context.Background(), analysis.RawQuery{Value: "Laptop"})
	var failed *analysis.AllSourcesFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected AllSourcesFailedError, got %v", err)
	}
	if len(failed.Failures) != len(cfg.Sources) {
		t.Fatalf("expected a failure per source, got %v", failed.Failures)
	}
	for source, ferr := range failed.Failures {
		var unavailable *analysis.SourceUnavailableError
		if !errors.As(ferr, &unavailable) {
			t.Fatalf("%s: expected SourceUnavailableError, got %v", source, ferr)
		}
	}
}

func TestServiceOutageWithFallbackNamesCause(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Scorer = config.ScorerService
	cfg.ReviewServiceURL = srv.URL
	cfg.ReviewServiceFallback = true

	application, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := application.Service.Analyze(context.Background(), analysis.RawQuery{Value: "Laptop"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(result.Sources) != len(cfg.Sources) {
		t.Fatalf("expected fallback results for every source, got %+v", result.Sources)
	}
	for _, res := range result.Sources {
		if res.FallbackReason == "" {
			t.Fatalf("%s: fallback result does not name the service failure", res.SourceName)
		}
	}
}

func TestWeightFor(t *testing.T) {
	r := analysis.SourceResult{Score: 80, ReviewCount: 0}
	if WeightFor(config.WeightingEqual)(r) != 1 {
		t.Fatal("equal weighting should give weight 1")
	}
	if WeightFor(config.WeightingLogReviews)(r) != 0 {
		t.Fatal("log weighting should give a review-less source weight 0")
	}
}

func TestSelectorsFromConfig(t *testing.T) {
	sources := []config.SourceConfig{{Name: "Amazon", Selectors: config.SelectorConfig{Rating: "span.a-icon-alt", RatingScale: 5}}}
	got := Selectors(sources)["Amazon"]
	if got.Rating != "span.a-icon-alt" || got.RatingScale != 5 {
		t.Fatalf("unexpected selectors %+v", got)
	}
	markets := Marketplaces(config.DefaultSources())
	if len(markets) != 4 || markets[0].ReviewBase != 1000 || markets[0].ReviewSpread != 5000 {
		t.Fatalf("unexpected marketplaces %+v", markets)
	}
}
