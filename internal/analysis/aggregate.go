package analysis

import (
	"math"

	"github.com/rotisserie/eris"
)

// WeightFunc returns the weight a source's score carries in the overall mean.
type WeightFunc func(SourceResult) float64

// EqualWeight gives every source the same say.
func EqualWeight(SourceResult) float64 { return 1 }

// LogReviewWeight favours sources with more reviews, damped by log(reviewCount+1).
func LogReviewWeight(r SourceResult) float64 {
	return math.Log(float64(r.ReviewCount) + 1)
}

// Aggregate is the combined view over all successful sources.
type Aggregate struct {
	OverallScore float64
	Split        SentimentSplit
	TotalReviews int
}

// Aggregator combines per-source results. The zero value uses equal weighting.
type Aggregator struct {
	Weight WeightFunc
}

// Aggregate computes the overall score, its sentiment split and the total review volume.
func (a Aggregator) Aggregate(results []SourceResult) (Aggregate, error) {
	if len(results) == 0 {
		return Aggregate{}, eris.New("aggregate: no source results")
	}
	weight := a.Weight
	if weight == nil {
		weight = EqualWeight
	}

	var weighted, weights, plain float64
	total := 0
	for _, r := range results {
		w := weight(r)
		if math.IsNaN(w) || w < 0 {
			w = 0
		}
		weighted += w * r.Score
		weights += w
		plain += r.Score
		total += r.ReviewCount
	}

	overall := plain / float64(len(results))
	if weights > 0 {
		overall = weighted / weights
	}
	overall = clampScore(overall)

	return Aggregate{
		OverallScore: overall,
		Split:        SplitFor(overall),
		TotalReviews: total,
	}, nil
}

// SplitFor derives the sentiment split: positive is the score itself, neutral takes up to
// 20 points of the remainder and negative the rest.
func SplitFor(score float64) SentimentSplit {
	p := clampScore(score)
	neutral := math.Min(20, 100-p)
	negative := math.Max(0, 100-p-neutral)
	return SentimentSplit{Positive: p, Neutral: neutral, Negative: negative}
}

func clampScore(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
