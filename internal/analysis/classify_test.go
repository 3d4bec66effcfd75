package analysis

import "testing"

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		score     float64
		sentiment Sentiment
		rec       Recommendation
	}{
		{100, SentimentPositive, RecommendationBestChoice},
		{85.0001, SentimentPositive, RecommendationBestChoice},
		{85, SentimentPositive, RecommendationMixedReviews},
		{80.0001, SentimentPositive, RecommendationMixedReviews},
		{80, SentimentNeutral, RecommendationMixedReviews},
		{65.0001, SentimentNeutral, RecommendationMixedReviews},
		{65, SentimentNeutral, RecommendationNotRecommended},
		{60.0001, SentimentNeutral, RecommendationNotRecommended},
		{60, SentimentNegative, RecommendationNotRecommended},
		{0, SentimentNegative, RecommendationNotRecommended},
	}
	for _, tc := range cases {
		if got := ClassifySentiment(tc.score); got != tc.sentiment {
			t.Errorf("ClassifySentiment(%v) = %s, want %s", tc.score, got, tc.sentiment)
		}
		if got := ClassifyRecommendation(tc.score); got != tc.rec {
			t.Errorf("ClassifyRecommendation(%v) = %s, want %s", tc.score, got, tc.rec)
		}
	}
}

func TestRecommendationLabel(t *testing.T) {
	if RecommendationBestChoice.Label() != "Best Choice" || RecommendationNotRecommended.Label() != "Not Recommended" {
		t.Fatal("unexpected recommendation labels")
	}
}
