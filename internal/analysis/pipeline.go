package analysis

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// Pipeline orchestrates normalization, dispatch, aggregation, ranking and classification.
type Pipeline struct {
	Sources    *SourceRegistry
	Normalizer Normalizer
	Dispatcher *Dispatcher
	Aggregator Aggregator
	Log        logrus.FieldLogger
}

// NewPipeline wires the pipeline components.
func NewPipeline(sources *SourceRegistry, normalizer Normalizer, dispatcher *Dispatcher, aggregator Aggregator, log logrus.FieldLogger) (*Pipeline, error) {
	if sources == nil || sources.Len() == 0 {
		return nil, eris.New("analysis: pipeline requires at least one source")
	}
	if dispatcher == nil || dispatcher.Scorer == nil {
		return nil, eris.New("analysis: pipeline requires a dispatcher with a scorer")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{
		Sources:    sources,
		Normalizer: normalizer,
		Dispatcher: dispatcher,
		Aggregator: aggregator,
		Log:        log,
	}, nil
}

// Run executes one analysis. Stage events go to stream, which may be nil; no event is
// published after a fatal error or cancellation. The stream is not closed by Run.
func (p *Pipeline) Run(ctx context.Context, raw RawQuery, stream *ProgressStream) (AnalysisResult, error) {
	sources := p.Sources.Names()
	reporter := NewReporter(StageLabels(sources), stream)
	result, err := p.run(ctx, raw, sources, reporter)
	if err != nil {
		reporter.Halt()
		return AnalysisResult{}, err
	}
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, raw RawQuery, sources []string, reporter *Reporter) (AnalysisResult, error) {
	step := func() error {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		reporter.Advance()
		return nil
	}

	if ctx.Err() != nil {
		return AnalysisResult{}, ErrCancelled
	}
	query, err := p.Normalizer.Normalize(raw)
	if err != nil {
		return AnalysisResult{}, err
	}
	if err := step(); err != nil {
		return AnalysisResult{}, err
	}

	log := p.Log.WithFields(logrus.Fields{"kind": query.Kind, "query": query.Value})
	log.Debug("dispatching")
	if err := step(); err != nil {
		return AnalysisResult{}, err
	}
	outcome, err := p.Dispatcher.Run(ctx, query, sources)
	if err != nil {
		return AnalysisResult{}, err
	}
	for range sources {
		if err := step(); err != nil {
			return AnalysisResult{}, err
		}
	}
	if err := step(); err != nil {
		return AnalysisResult{}, err
	}

	agg, err := p.Aggregator.Aggregate(outcome.Results)
	if err != nil {
		return AnalysisResult{}, err
	}
	if err := step(); err != nil {
		return AnalysisResult{}, err
	}

	ranked := Rank(outcome.Results)
	if err := step(); err != nil {
		return AnalysisResult{}, err
	}

	sentiment := ClassifySentiment(agg.OverallScore)
	recommendation := ClassifyRecommendation(agg.OverallScore)
	name := p.Normalizer.ProductName(query)
	result := AnalysisResult{
		Query:          query,
		ProductName:    name,
		OverallScore:   agg.OverallScore,
		Sentiment:      sentiment,
		Recommendation: recommendation,
		SentimentSplit: agg.Split,
		TotalReviews:   agg.TotalReviews,
		BestSource:     ranked[0].SourceName,
		Sources:        ranked,
		Failures:       failureMessages(outcome.Failures),
		FailureErrors:  outcome.Failures,
		Summary:        Summarize(name, agg, sentiment, recommendation, ranked),
	}
	if err := step(); err != nil {
		return AnalysisResult{}, err
	}

	log.WithFields(logrus.Fields{
		"overall":   result.OverallScore,
		"sources":   len(result.Sources),
		"failures":  len(outcome.Failures),
		"sentiment": result.Sentiment,
	}).Info("analysis complete")
	return result, nil
}
