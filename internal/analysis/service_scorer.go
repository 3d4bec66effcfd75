package analysis

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/Shyamsundamarasu/hi-there-friend-93/internal/reviewsvc"
)

// ServiceScorer delegates scoring to an external review-analysis service.
// A failing service is reported as *SourceUnavailableError unless Fallback is set; fallback
// results carry the primary failure in FallbackReason.
type ServiceScorer struct {
	Client   reviewsvc.ReviewScorer
	Fallback Scorer
	Log      logrus.FieldLogger
}

// Score implements Scorer.
func (s ServiceScorer) Score(ctx context.Context, q ProductQuery, source string) (SourceResult, error) {
	if s.Client == nil {
		return s.scoreWithFallback(ctx, q, source, eris.New("review service client not configured"))
	}

	resp, err := s.Client.Score(ctx, reviewsvc.ScoreRequest{Query: q.Value, Kind: string(q.Kind), Source: source})
	if err != nil {
		// A dead context belongs to the dispatcher; the fallback would miss it too.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return SourceResult{}, ctxErr
		}
		return s.scoreWithFallback(ctx, q, source, err)
	}
	if resp == nil {
		return s.scoreWithFallback(ctx, q, source, eris.New("review service returned an empty body"))
	}

	res := SourceResult{
		SourceName:  source,
		Score:       resp.Score,
		ReviewCount: resp.ReviewCount,
		Price:       resp.Price,
		Link:        resp.Link,
	}
	if err := validateResult(res); err != nil {
		return s.scoreWithFallback(ctx, q, source, eris.Wrap(err, "review service returned an invalid result"))
	}
	return res, nil
}

func (s ServiceScorer) scoreWithFallback(ctx context.Context, q ProductQuery, source string, cause error) (SourceResult, error) {
	s.log().WithFields(logrus.Fields{"source": source, "error": cause}).Warn("review service unavailable")
	if s.Fallback != nil {
		res, fbErr := s.Fallback.Score(ctx, q, source)
		if fbErr != nil {
			return SourceResult{}, &SourceUnavailableError{Source: source, Err: eris.Wrapf(fbErr, "fallback after %v", cause)}
		}
		res.FallbackReason = cause.Error()
		return res, nil
	}
	return SourceResult{}, &SourceUnavailableError{Source: source, Err: cause}
}

func (s ServiceScorer) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}
