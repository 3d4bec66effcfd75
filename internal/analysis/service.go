package analysis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrRunNotFound is returned for unknown or pruned run identifiers.
	ErrRunNotFound = errors.New("analysis run not found")
	// ErrRunFinished is returned when cancelling a run that already ended.
	ErrRunFinished = errors.New("analysis run already finished")
)

// RunStatus is the lifecycle state of an asynchronous run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
	StatusCancelled RunStatus = "cancelled"
)

// Run is one asynchronous analysis. Its result is delivered exactly once.
type Run struct {
	ID        string
	StartedAt time.Time

	stream *ProgressStream
	cancel context.CancelFunc
	done   chan struct{}

	// Written once before done is closed.
	result     AnalysisResult
	err        error
	finishedAt time.Time
}

// Events returns the run's progress stream. It closes when the run ends.
func (r *Run) Events() <-chan StageEvent { return r.stream.Events() }

// Done is closed once the result is available.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run ends or ctx is done.
func (r *Run) Wait(ctx context.Context) (AnalysisResult, error) {
	select {
	case <-r.done:
		return r.result, r.err
	case <-ctx.Done():
		return AnalysisResult{}, ctx.Err()
	}
}

// Outcome blocks until the run ends and returns its result.
func (r *Run) Outcome() (AnalysisResult, error) {
	<-r.done
	return r.result, r.err
}

// Status reports the current lifecycle state.
func (r *Run) Status() RunStatus {
	select {
	case <-r.done:
	default:
		return StatusRunning
	}
	switch {
	case r.err == nil:
		return StatusSucceeded
	case errors.Is(r.err, ErrCancelled):
		return StatusCancelled
	default:
		return StatusFailed
	}
}

func (r *Run) finish(result AnalysisResult, err error) {
	r.result = result
	r.err = err
	r.finishedAt = time.Now().UTC()
	r.stream.close()
	close(r.done)
}

func (r *Run) finishedBefore(ts time.Time) bool {
	select {
	case <-r.done:
		return r.finishedAt.Before(ts)
	default:
		return false
	}
}

// Service exposes the pipeline synchronously and as cancellable background runs.
type Service struct {
	pipeline       *Pipeline
	progressBuffer int
	log            logrus.FieldLogger

	mu   sync.RWMutex
	runs map[string]*Run
}

// NewService constructs a service around a pipeline.
func NewService(pipeline *Pipeline, progressBuffer int, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		pipeline:       pipeline,
		progressBuffer: progressBuffer,
		log:            log,
		runs:           make(map[string]*Run),
	}
}

// Sources returns the configured marketplaces in order.
func (s *Service) Sources() []string { return s.pipeline.Sources.Names() }

// Analyze runs one analysis on the caller's goroutine. Cancelling ctx yields ErrCancelled.
func (s *Service) Analyze(ctx context.Context, raw RawQuery) (AnalysisResult, error) {
	id := uuid.NewString()
	result, err := s.pipeline.Run(ctx, raw, nil)
	if err != nil {
		s.log.WithFields(logrus.Fields{"request_id": id, "error": err}).Info("analysis failed")
		return AnalysisResult{}, err
	}
	result.RequestID = id
	return result, nil
}

// Start validates raw and launches a background run. The run outlives ctx; use Cancel to stop it.
func (s *Service) Start(ctx context.Context, raw RawQuery) (*Run, error) {
	if _, err := s.pipeline.Normalizer.Normalize(raw); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		stream:    NewProgressStream(s.progressBuffer),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()

	log := s.log.WithField("request_id", run.ID)
	log.Info("analysis started")
	go func() {
		defer cancel()
		result, err := s.pipeline.Run(runCtx, raw, run.stream)
		if err == nil {
			result.RequestID = run.ID
		}
		run.finish(result, err)
		log.WithField("status", run.Status()).Info("analysis finished")
	}()
	return run, nil
}

// Lookup returns a run that has not been pruned yet.
func (s *Service) Lookup(id string) (*Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	return run, ok
}

// Cancel asks a running analysis to stop. It is best-effort: a run that is about to
// finish may still succeed.
func (s *Service) Cancel(id string) error {
	run, ok := s.Lookup(id)
	if !ok {
		return ErrRunNotFound
	}
	select {
	case <-run.done:
		return ErrRunFinished
	default:
	}
	run.cancel()
	return nil
}

// PruneFinished drops runs that finished before ts and returns how many were removed.
func (s *Service) PruneFinished(ts time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, run := range s.runs {
		if run.finishedBefore(ts) {
			delete(s.runs, id)
			removed++
		}
	}
	return removed
}

// RunJanitor prunes runs older than retention until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, retention time.Duration) {
	if retention <= 0 {
		return
	}
	interval := retention / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.PruneFinished(time.Now().UTC().Add(-retention)); n > 0 {
				s.log.WithField("removed", n).Debug("pruned finished runs")
			}
		}
	}
}
