package analysis

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// StaticFileScorer serves fixture listings from a JSON file keyed by product and source.
type StaticFileScorer struct {
	entries map[string]map[string]SourceResult // product key -> source key -> result
}

// NewStaticFileScorer loads the fixture file once; the scorer is read-only afterwards.
func NewStaticFileScorer(path string) (*StaticFileScorer, error) {
	if path == "" {
		return nil, eris.New("static scorer requires a path")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read static file %s", path)
	}
	listings, err := decodeListings(raw)
	if err != nil {
		return nil, eris.Wrapf(err, "decode static file %s", path)
	}

	entries := make(map[string]map[string]SourceResult)
	for _, l := range listings {
		for _, product := range l.Products {
			key := matchKey(product)
			if entries[key] == nil {
				entries[key] = make(map[string]SourceResult)
			}
			entries[key][strings.ToLower(l.Source)] = l.Result
		}
	}
	return &StaticFileScorer{entries: entries}, nil
}

// Score implements Scorer.
func (s *StaticFileScorer) Score(ctx context.Context, q ProductQuery, source string) (SourceResult, error) {
	select {
	case <-ctx.Done():
		return SourceResult{}, ctx.Err()
	default:
	}

	bySource := s.lookup(q.Value)
	if bySource == nil {
		return SourceResult{}, &SourceUnavailableError{Source: source, Err: ErrNotListed}
	}
	res, ok := bySource[strings.ToLower(source)]
	if !ok {
		return SourceResult{}, &SourceUnavailableError{Source: source, Err: ErrNotListed}
	}
	res.SourceName = source
	return res, nil
}

// lookup prefers an exact product match, then the longest product name contained in the query.
func (s *StaticFileScorer) lookup(value string) map[string]SourceResult {
	key := matchKey(value)
	if bySource, ok := s.entries[key]; ok {
		return bySource
	}
	var best string
	for product := range s.entries {
		if strings.Contains(key, product) && (len(product) > len(best) || (len(product) == len(best) && product < best)) {
			best = product
		}
	}
	if best == "" {
		return nil
	}
	return s.entries[best]
}
