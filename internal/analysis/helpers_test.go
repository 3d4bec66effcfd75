package analysis

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

var testSources = []string{"Amazon", "Flipkart", "Myntra", "Nykaa"}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testDataPath(t *testing.T, parts ...string) string {
	t.Helper()
	return filepath.Join(append([]string{"..", "..", "data"}, parts...)...)
}

// fixedScorer answers from a per-source table; missing sources are unavailable.
func fixedScorer(results map[string]SourceResult) Scorer {
	return ScorerFunc(func(ctx context.Context, q ProductQuery, source string) (SourceResult, error) {
		res, ok := results[source]
		if !ok {
			return SourceResult{}, &SourceUnavailableError{Source: source, Err: ErrNotListed}
		}
		return res, nil
	})
}

// blockingScorer never answers on its own; it returns once ctx is done.
func blockingScorer(started chan<- string) Scorer {
	return ScorerFunc(func(ctx context.Context, q ProductQuery, source string) (SourceResult, error) {
		if started != nil {
			select {
			case started <- source:
			default:
			}
		}
		<-ctx.Done()
		return SourceResult{}, ctx.Err()
	})
}

func newTestPipeline(t *testing.T, dispatcher *Dispatcher) *Pipeline {
	t.Helper()
	registry, err := NewSourceRegistry(testSources...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if dispatcher.Log == nil {
		dispatcher.Log = testLogger()
	}
	pipeline, err := NewPipeline(registry, Normalizer{}, dispatcher, Aggregator{}, testLogger())
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return pipeline
}

// drain reads everything currently buffered in a stream without waiting for close.
func drain(stream *ProgressStream) []StageEvent {
	var out []StageEvent
	for {
		select {
		case ev, ok := <-stream.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}
