package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DispatchOutcome holds the per-source results of one fan-out.
// Results keep configured source order; Failures is keyed by source name.
type DispatchOutcome struct {
	Results  []SourceResult
	Failures map[string]error
}

// Dispatcher fans a query out to every configured source and joins the answers.
type Dispatcher struct {
	Scorer           Scorer
	PerSourceTimeout time.Duration
	DispatchTimeout  time.Duration
	MinSuccesses     int
	MaxConcurrency   int
	Log              logrus.FieldLogger
}

type dispatchSlot struct {
	result SourceResult
	err    error
}

// Run scores q on every source concurrently. A single source failing is recorded, not fatal;
// Run fails with *AllSourcesFailedError only when fewer than MinSuccesses sources answered,
// and with ErrCancelled when ctx is cancelled by the caller.
func (d *Dispatcher) Run(ctx context.Context, q ProductQuery, sources []string) (DispatchOutcome, error) {
	if err := ctx.Err(); err != nil {
		return DispatchOutcome{}, ErrCancelled
	}

	dispatchCtx, cancel := ctx, context.CancelFunc(func() {})
	if d.DispatchTimeout > 0 {
		dispatchCtx, cancel = context.WithTimeout(ctx, d.DispatchTimeout)
	}
	defer cancel()

	// One slot per source, each written by exactly one goroutine.
	slots := make([]dispatchSlot, len(sources))
	var g errgroup.Group
	if d.MaxConcurrency > 0 {
		g.SetLimit(d.MaxConcurrency)
	}
	for i, source := range sources {
		g.Go(func() error {
			slots[i] = d.scoreOne(dispatchCtx, q, source)
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return DispatchOutcome{}, ErrCancelled
	}

	out := DispatchOutcome{Failures: make(map[string]error)}
	for i, slot := range slots {
		if slot.err != nil {
			out.Failures[sources[i]] = slot.err
			d.log().WithFields(logrus.Fields{"source": sources[i], "error": slot.err}).Warn("source failed")
			continue
		}
		out.Results = append(out.Results, slot.result)
	}

	required := d.minSuccesses()
	if len(out.Results) < required {
		return out, &AllSourcesFailedError{Succeeded: len(out.Results), Required: required, Failures: out.Failures}
	}
	return out, nil
}

func (d *Dispatcher) scoreOne(ctx context.Context, q ProductQuery, source string) dispatchSlot {
	sctx, cancel := ctx, context.CancelFunc(func() {})
	if d.PerSourceTimeout > 0 {
		sctx, cancel = context.WithTimeout(ctx, d.PerSourceTimeout)
	}
	defer cancel()

	if sctx.Err() != nil {
		return dispatchSlot{err: d.contextFailure(ctx, source)}
	}

	// The scorer runs in its own goroutine so one that ignores its context still times out.
	done := make(chan dispatchSlot, 1)
	go func() {
		res, err := d.Scorer.Score(sctx, q, source)
		done <- dispatchSlot{result: res, err: err}
	}()

	var slot dispatchSlot
	select {
	case slot = <-done:
	case <-sctx.Done():
		return dispatchSlot{err: d.contextFailure(ctx, source)}
	}

	if slot.err != nil {
		slot.err = d.classify(ctx, sctx, source, slot.err)
		return slot
	}
	if slot.result.SourceName == "" {
		slot.result.SourceName = source
	}
	if err := validateResult(slot.result); err != nil {
		return dispatchSlot{err: &SourceUnavailableError{Source: source, Err: err}}
	}
	return slot
}

func (d *Dispatcher) classify(dispatchCtx, sctx context.Context, source string, err error) error {
	var timeout *SourceTimeoutError
	var unavailable *SourceUnavailableError
	switch {
	case errors.As(err, &timeout), errors.As(err, &unavailable):
		return err
	case sctx.Err() != nil:
		return d.contextFailure(dispatchCtx, source)
	case errors.Is(err, context.DeadlineExceeded):
		return &SourceTimeoutError{Source: source, After: d.PerSourceTimeout}
	default:
		return &SourceUnavailableError{Source: source, Err: err}
	}
}

// contextFailure names the deadline that stopped a source. Caller cancellation is reported
// as unavailable here; Run replaces the whole outcome with ErrCancelled in that case.
func (d *Dispatcher) contextFailure(dispatchCtx context.Context, source string) error {
	switch {
	case errors.Is(dispatchCtx.Err(), context.DeadlineExceeded):
		return &SourceTimeoutError{Source: source, After: d.DispatchTimeout, Global: true}
	case dispatchCtx.Err() != nil:
		return &SourceUnavailableError{Source: source, Err: ErrCancelled}
	default:
		return &SourceTimeoutError{Source: source, After: d.PerSourceTimeout}
	}
}

func (d *Dispatcher) minSuccesses() int {
	if d.MinSuccesses < 1 {
		return 1
	}
	return d.MinSuccesses
}

func (d *Dispatcher) log() logrus.FieldLogger {
	if d.Log == nil {
		return logrus.StandardLogger()
	}
	return d.Log
}
