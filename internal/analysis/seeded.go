package analysis

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	seededMinScore     = 70.0
	seededScoreSpread  = 30.0
	seededMinPrice     = 10000.0
	seededPriceSpread  = 50000.0
	defaultReviewBase  = 100
	defaultReviewRange = 1000
)

var errSimulatedOutage = errors.New("simulated outage")

// SeededScorer is the reference scorer. Every figure it returns is drawn from a generator
// seeded by (Seed, query value, source), so identical inputs always produce identical results.
type SeededScorer struct {
	Seed        uint64
	MinLatency  time.Duration
	MaxLatency  time.Duration
	FailureRate float64

	markets map[string]Marketplace
}

// NewSeededScorer builds a scorer for the given marketplaces.
func NewSeededScorer(seed uint64, markets []Marketplace) *SeededScorer {
	byName := make(map[string]Marketplace, len(markets))
	for _, m := range markets {
		byName[strings.ToLower(m.Name)] = m
	}
	return &SeededScorer{Seed: seed, markets: byName}
}

// Score implements Scorer.
func (s *SeededScorer) Score(ctx context.Context, q ProductQuery, source string) (SourceResult, error) {
	if err := ctx.Err(); err != nil {
		return SourceResult{}, err
	}

	market, ok := s.markets[strings.ToLower(source)]
	if !ok {
		market = Marketplace{Name: source, ReviewBase: defaultReviewBase, ReviewSpread: defaultReviewRange}
	}
	rng := s.generator(q.Value, source)

	score := roundTo(seededMinScore+rng.Float64()*seededScoreSpread, 1)
	reviews := market.ReviewBase
	if market.ReviewSpread > 0 {
		reviews += rng.IntN(market.ReviewSpread)
	}
	price := int64(math.Round(seededMinPrice + rng.Float64()*seededPriceSpread))

	result := SourceResult{
		SourceName:  source,
		Score:       score,
		ReviewCount: reviews,
		Price:       "₹" + humanize.Comma(price),
		Link:        searchLink(market.SearchURL, q.Value),
	}

	if delay := s.latency(rng); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return SourceResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	if s.FailureRate > 0 && rng.Float64() < s.FailureRate {
		return SourceResult{}, &SourceUnavailableError{Source: source, Err: errSimulatedOutage}
	}
	return result, nil
}

func (s *SeededScorer) generator(value, source string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(value))))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strings.ToLower(source)))
	return rand.New(rand.NewPCG(s.Seed, h.Sum64()))
}

func (s *SeededScorer) latency(rng *rand.Rand) time.Duration {
	if s.MaxLatency <= 0 {
		return 0
	}
	if s.MaxLatency <= s.MinLatency {
		return s.MinLatency
	}
	return s.MinLatency + time.Duration(rng.Float64()*float64(s.MaxLatency-s.MinLatency))
}

func searchLink(template, value string) string {
	if template == "" {
		return "#"
	}
	if !strings.Contains(template, "%s") {
		return template
	}
	return fmt.Sprintf(template, url.QueryEscape(value))
}

func roundTo(value float64, digits int) float64 {
	pow := math.Pow(10, float64(digits))
	return math.Round(value*pow) / pow
}
