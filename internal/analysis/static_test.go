package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStaticFileScorerServesFixtures(t *testing.T) {
	scorer, err := NewStaticFileScorer(testDataPath(t, "sample_reviews.json"))
	if err != nil {
		t.Fatalf("static scorer: %v", err)
	}

	cases := []struct {
		query  ProductQuery
		source string
		score  float64
	}{
		{ProductQuery{Kind: KindName, Value: "Wireless Earbuds"}, "Amazon", 90},
		{ProductQuery{Kind: KindName, Value: "wireless-earbuds"}, "nykaa", 90},
		{ProductQuery{Kind: KindName, Value: "TWS Earbuds"}, "Myntra", 90},
		{ProductQuery{Kind: KindURL, Value: "https://www.flipkart.com/apple-iphone-15-blue/p/itm1"}, "Flipkart", 91.2},
		{ProductQuery{Kind: KindName, Value: "Dress"}, "Myntra", 40},
	}
	for _, tc := range cases {
		res, err := scorer.Score(context.Background(), tc.query, tc.source)
		if err != nil {
			t.Fatalf("%s/%s: %v", tc.query.Value, tc.source, err)
		}
		if res.Score != tc.score {
			t.Errorf("%s/%s: score %v, want %v", tc.query.Value, tc.source, res.Score, tc.score)
		}
		if res.SourceName != tc.source {
			t.Errorf("expected requested source name %q, got %q", tc.source, res.SourceName)
		}
	}
}

func TestStaticFileScorerUnlistedProduct(t *testing.T) {
	scorer, err := NewStaticFileScorer(testDataPath(t, "sample_reviews.json"))
	if err != nil {
		t.Fatalf("static scorer: %v", err)
	}
	for _, tc := range []struct{ product, source string }{{"Dress", "Amazon"}, {"Hair dryer", "Nykaa"}} {
		_, err := scorer.Score(context.Background(), ProductQuery{Kind: KindName, Value: tc.product}, tc.source)
		if !errors.Is(err, ErrNotListed) {
			t.Fatalf("%s/%s: expected ErrNotListed, got %v", tc.product, tc.source, err)
		}
	}
}

func TestStaticFileScorerRejectsBadFixtures(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"unknown field":  `[{"product":"Laptop","source":"Amazon","score":80,"rating":4}]`,
		"score too high": `[{"product":"Laptop","source":"Amazon","score":180}]`,
		"not an array":   `{"product":"Laptop"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".json")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write fixture: %v", err)
			}
			if _, err := NewStaticFileScorer(path); err == nil {
				t.Fatal("expected decode error")
			}
		})
	}

	if _, err := NewStaticFileScorer(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDedupeStrings(t *testing.T) {
	got := dedupeStrings([]string{"Wireless Earbuds", " wireless earbuds ", "", "TWS"})
	if len(got) != 2 || got[0] != "Wireless Earbuds" || got[1] != "TWS" {
		t.Fatalf("unexpected dedupe result %v", got)
	}
}
