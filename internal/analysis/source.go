package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// Scorer produces one marketplace's contribution for a query.
// Implementations must be safe for concurrent use and should return promptly once ctx is done.
type Scorer interface {
	Score(ctx context.Context, q ProductQuery, source string) (SourceResult, error)
}

// ScorerFunc adapts an ordinary function to the Scorer interface.
type ScorerFunc func(ctx context.Context, q ProductQuery, source string) (SourceResult, error)

// Score calls f.
func (f ScorerFunc) Score(ctx context.Context, q ProductQuery, source string) (SourceResult, error) {
	return f(ctx, q, source)
}

// SourceRegistry keeps the configured marketplaces in their configured order.
type SourceRegistry struct {
	names []string
}

// NewSourceRegistry builds a registry with the provided source names.
func NewSourceRegistry(names ...string) (*SourceRegistry, error) {
	if len(names) == 0 {
		return nil, eris.New("analysis: at least one source is required")
	}
	r := &SourceRegistry{}
	for _, name := range names {
		if err := r.Add(name); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add registers another source after the existing ones.
func (r *SourceRegistry) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return eris.New("analysis: source name is empty")
	}
	for _, existing := range r.names {
		if strings.EqualFold(existing, name) {
			return eris.Errorf("analysis: duplicate source %q", name)
		}
	}
	r.names = append(r.names, name)
	return nil
}

// Names returns a copy of the configured source names.
func (r *SourceRegistry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len reports the number of configured sources.
func (r *SourceRegistry) Len() int { return len(r.names) }

func validateResult(res SourceResult) error {
	if math.IsNaN(res.Score) || res.Score < 0 || res.Score > 100 {
		return fmt.Errorf("score %v outside [0,100]", res.Score)
	}
	if res.ReviewCount < 0 {
		return fmt.Errorf("negative review count %d", res.ReviewCount)
	}
	return nil
}
