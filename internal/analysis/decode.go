package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type rawListing struct {
	Product     string   `json:"product"`
	Aliases     []string `json:"aliases"`
	Source      string   `json:"source"`
	Score       float64  `json:"score"`
	ReviewCount int      `json:"review_count"`
	Price       string   `json:"price"`
	Link        string   `json:"link"`
}

type listing struct {
	Products []string
	Source   string
	Result   SourceResult
}

func decodeListings(data []byte) ([]listing, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var raws []rawListing
	if err := decoder.Decode(&raws); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}

	out := make([]listing, 0, len(raws))
	for idx, r := range raws {
		if strings.TrimSpace(r.Product) == "" || strings.TrimSpace(r.Source) == "" {
			continue
		}
		res := SourceResult{
			SourceName:  strings.TrimSpace(r.Source),
			Score:       r.Score,
			ReviewCount: r.ReviewCount,
			Price:       r.Price,
			Link:        r.Link,
		}
		if err := validateResult(res); err != nil {
			return nil, fmt.Errorf("listing %d (%s/%s): %w", idx, r.Product, r.Source, err)
		}
		out = append(out, listing{
			Products: dedupeStrings(append([]string{r.Product}, r.Aliases...)),
			Source:   res.SourceName,
			Result:   res,
		})
	}
	return out, nil
}

func dedupeStrings(values []string) []string {
	if len(values) <= 1 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

// matchKey folds case and slug punctuation so "wireless-earbuds" matches "Wireless Earbuds".
func matchKey(s string) string {
	return strings.ToLower(humanizeSlug(s))
}
