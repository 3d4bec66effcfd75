package analysis

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Summarize renders the one-paragraph verdict shown next to the comparison.
func Summarize(productName string, agg Aggregate, sentiment Sentiment, rec Recommendation, ranked []SourceResult) string {
	platforms := "platform"
	if len(ranked) != 1 {
		platforms = "platforms"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on analysis of %s reviews across %d %s, %s shows %s sentiment",
		humanize.Comma(int64(agg.TotalReviews)), len(ranked), platforms, productName, strings.ToLower(string(sentiment)))
	fmt.Fprintf(&b, " with an overall score of %.1f/100.", agg.OverallScore)
	if len(ranked) > 0 {
		fmt.Fprintf(&b, " Best rated on %s (%.1f).", ranked[0].SourceName, ranked[0].Score)
	}
	fmt.Fprintf(&b, " Verdict: %s.", rec.Label())
	return b.String()
}
