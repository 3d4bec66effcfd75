package analysis

// Thresholds are strict lower bounds: a score must exceed them.
const (
	PositiveThreshold     = 80.0
	NeutralThreshold      = 60.0
	BestChoiceThreshold   = 85.0
	MixedReviewsThreshold = 65.0
)

// ClassifySentiment maps an overall score to a sentiment label.
func ClassifySentiment(score float64) Sentiment {
	switch {
	case score > PositiveThreshold:
		return SentimentPositive
	case score > NeutralThreshold:
		return SentimentNeutral
	default:
		return SentimentNegative
	}
}

// ClassifyRecommendation maps an overall score to a recommendation.
func ClassifyRecommendation(score float64) Recommendation {
	switch {
	case score > BestChoiceThreshold:
		return RecommendationBestChoice
	case score > MixedReviewsThreshold:
		return RecommendationMixedReviews
	default:
		return RecommendationNotRecommended
	}
}
