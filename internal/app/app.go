package app

import (
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/Shyamsundamarasu/hi-there-friend-93/internal/analysis"
	"github.com/Shyamsundamarasu/hi-there-friend-93/internal/config"
	"github.com/Shyamsundamarasu/hi-there-friend-93/internal/reviewsvc"
	transporthttp "github.com/Shyamsundamarasu/hi-there-friend-93/internal/transport/http"
)

// App bundles the wired service and its HTTP surface.
type App struct {
	Config  config.Config
	Service *analysis.Service
	Server  *transporthttp.Server
}

// New wires every component from cfg.
func New(cfg config.Config, log logrus.FieldLogger) (*App, error) {
	registry, err := analysis.NewSourceRegistry(cfg.SourceNames()...)
	if err != nil {
		return nil, eris.Wrap(err, "build source registry")
	}

	scorer, err := NewScorer(cfg, log)
	if err != nil {
		return nil, err
	}

	dispatcher := &analysis.Dispatcher{
		Scorer:           scorer,
		PerSourceTimeout: cfg.SourceTimeout,
		DispatchTimeout:  cfg.DispatchTimeout,
		MinSuccesses:     cfg.MinSuccesses,
		MaxConcurrency:   cfg.MaxConcurrency,
		Log:              log.WithField("component", "dispatcher"),
	}

	pipeline, err := analysis.NewPipeline(
		registry,
		analysis.Normalizer{Catalog: cfg.Catalog},
		dispatcher,
		analysis.Aggregator{Weight: WeightFor(cfg.Weighting)},
		log.WithField("component", "pipeline"),
	)
	if err != nil {
		return nil, eris.Wrap(err, "build pipeline")
	}

	service := analysis.NewService(pipeline, cfg.ProgressBuffer, log.WithField("component", "service"))
	server := transporthttp.NewServer(service, cfg.RequestTimeout, log.WithField("component", "http"))

	return &App{Config: cfg, Service: service, Server: server}, nil
}

// NewScorer builds the scorer selected by cfg.Scorer.
func NewScorer(cfg config.Config, log logrus.FieldLogger) (analysis.Scorer, error) {
	seeded := analysis.NewSeededScorer(cfg.Seed, Marketplaces(cfg.Sources))

	switch cfg.Scorer {
	case config.ScorerSeeded, "":
		return seeded, nil
	case config.ScorerStatic:
		scorer, err := analysis.NewStaticFileScorer(cfg.StaticDataPath)
		if err != nil {
			return nil, eris.Wrap(err, "build static scorer")
		}
		return scorer, nil
	case config.ScorerSnapshot:
		scorer, err := analysis.NewSnapshotScorer(cfg.SnapshotDir, Selectors(cfg.Sources))
		if err != nil {
			return nil, eris.Wrap(err, "build snapshot scorer")
		}
		return scorer, nil
	case config.ScorerService:
		client := reviewsvc.NewClient(
			reviewsvc.WithBaseURL(cfg.ReviewServiceURL),
			reviewsvc.WithAPIKey(cfg.ReviewServiceKey),
			reviewsvc.WithRateLimit(cfg.ReviewServiceRPS, len(cfg.Sources)),
		)
		scorer := analysis.ServiceScorer{
			Client: client,
			Log:    log.WithField("component", "reviewsvc"),
		}
		if cfg.ReviewServiceFallback {
			scorer.Fallback = seeded
		}
		return scorer, nil
	default:
		return nil, eris.Errorf("unknown scorer %q", cfg.Scorer)
	}
}

// WeightFor maps a weighting mode to its weight function.
func WeightFor(mode string) analysis.WeightFunc {
	if mode == config.WeightingLogReviews {
		return analysis.LogReviewWeight
	}
	return analysis.EqualWeight
}

// Marketplaces converts configured sources to scorer marketplaces.
func Marketplaces(sources []config.SourceConfig) []analysis.Marketplace {
	out := make([]analysis.Marketplace, 0, len(sources))
	for _, s := range sources {
		out = append(out, analysis.Marketplace{
			Name:         s.Name,
			SearchURL:    s.SearchURL,
			ReviewBase:   s.ReviewBase,
			ReviewSpread: s.ReviewSpread,
		})
	}
	return out
}

// Selectors collects the snapshot selectors configured per source.
func Selectors(sources []config.SourceConfig) map[string]analysis.SnapshotSelectors {
	out := make(map[string]analysis.SnapshotSelectors, len(sources))
	for _, s := range sources {
		out[s.Name] = analysis.SnapshotSelectors{
			Rating:      s.Selectors.Rating,
			RatingScale: s.Selectors.RatingScale,
			Reviews:     s.Selectors.Reviews,
			Price:       s.Selectors.Price,
			Link:        s.Selectors.Link,
		}
	}
	return out
}
