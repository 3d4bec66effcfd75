package analysis

// QueryKind identifies how the caller described the product.
type QueryKind string

const (
	KindName  QueryKind = "name"
	KindURL   QueryKind = "url"
	KindImage QueryKind = "image"
)

// RawQuery is a product query exactly as submitted by a caller.
type RawQuery struct {
	Kind      QueryKind `json:"kind"`
	Value     string    `json:"value"`
	ImageRef  string    `json:"imageRef"`
	ImageName string    `json:"imageName"`
}

// ProductQuery is the canonical, validated form of a caller query.
// Ref carries the opaque image identifier for image queries; it is never inspected.
type ProductQuery struct {
	Kind  QueryKind `json:"kind"`
	Value string    `json:"value"`
	Ref   string    `json:"ref,omitempty"`
}

// SourceResult is one marketplace's contribution to an analysis.
// FallbackReason is set when the figures came from a fallback scorer and names the primary failure.
type SourceResult struct {
	SourceName     string  `json:"sourceName"`
	Score          float64 `json:"score"`
	ReviewCount    int     `json:"reviewCount"`
	Price          string  `json:"price"`
	Link           string  `json:"link"`
	FallbackReason string  `json:"fallbackReason,omitempty"`
}

// Sentiment is the qualitative label derived from the overall score.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
)

// Recommendation is the categorical verdict derived from the overall score.
type Recommendation string

const (
	RecommendationBestChoice     Recommendation = "BestChoice"
	RecommendationMixedReviews   Recommendation = "MixedReviews"
	RecommendationNotRecommended Recommendation = "NotRecommended"
)

// Label returns the human readable form of the recommendation.
func (r Recommendation) Label() string {
	switch r {
	case RecommendationBestChoice:
		return "Best Choice"
	case RecommendationMixedReviews:
		return "Mixed Reviews"
	case RecommendationNotRecommended:
		return "Not Recommended"
	default:
		return string(r)
	}
}

// SentimentSplit is the positive/neutral/negative breakdown of the overall score, in percent.
type SentimentSplit struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// AnalysisResult is the final output of one analysis run.
type AnalysisResult struct {
	RequestID      string            `json:"requestId,omitempty"`
	Query          ProductQuery      `json:"query"`
	ProductName    string            `json:"productName"`
	OverallScore   float64           `json:"overallScore"`
	Sentiment      Sentiment         `json:"sentiment"`
	Recommendation Recommendation    `json:"recommendation"`
	SentimentSplit SentimentSplit    `json:"sentimentSplit"`
	TotalReviews   int               `json:"totalReviews"`
	BestSource     string            `json:"bestSource"`
	Sources        []SourceResult    `json:"sources"`
	Failures       map[string]string `json:"failures,omitempty"`
	Summary        string            `json:"summary"`

	// FailureErrors keeps the typed per-source errors behind Failures.
	FailureErrors map[string]error `json:"-"`
}

// StageEvent marks completion of one pipeline stage.
type StageEvent struct {
	Label             string  `json:"label"`
	CompletedFraction float64 `json:"completedFraction"`
}

// Marketplace describes a configured source and how synthetic figures are drawn for it.
type Marketplace struct {
	Name         string
	SearchURL    string
	ReviewBase   int
	ReviewSpread int
}
