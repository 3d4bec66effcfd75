package analysis

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T, scorer Scorer) *Service {
	t.Helper()
	pipeline := newTestPipeline(t, &Dispatcher{Scorer: scorer, PerSourceTimeout: 5 * time.Second})
	return NewService(pipeline, 32, testLogger())
}

func waitRun(t *testing.T, run *Run) (AnalysisResult, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result, err := run.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("run did not finish in time")
	}
	return result, err
}

func TestServiceStartDeliversResultAndEvents(t *testing.T) {
	svc := newTestService(t, NewSeededScorer(42, testMarketplaces()))

	run, err := svc.Start(context.Background(), RawQuery{Value: "Wireless Earbuds"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	var events []StageEvent
	for ev := range run.Events() {
		events = append(events, ev)
	}
	result, err := waitRun(t, run)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.RequestID != run.ID {
		t.Fatalf("expected request id %s, got %s", run.ID, result.RequestID)
	}
	if run.Status() != StatusSucceeded {
		t.Fatalf("expected succeeded, got %s", run.Status())
	}
	if len(events) != len(StageLabels(testSources)) {
		t.Fatalf("expected full event sequence, got %d events", len(events))
	}
	if got, ok := svc.Lookup(run.ID); !ok || got != run {
		t.Fatal("run should be retrievable by id")
	}
}

func TestServiceStartRejectsInvalidInput(t *testing.T) {
	svc := newTestService(t, NewSeededScorer(1, nil))
	_, err := svc.Start(context.Background(), RawQuery{Kind: KindImage, ImageRef: "upload-9"})
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
	if len(svc.runs) != 0 {
		t.Fatal("invalid input must not register a run")
	}
}

func TestServiceRunOutlivesStartContext(t *testing.T) {
	svc := newTestService(t, NewSeededScorer(1, nil))
	ctx, cancel := context.WithCancel(context.Background())
	run, err := svc.Start(ctx, RawQuery{Value: "Laptop"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	if _, err := waitRun(t, run); err != nil {
		t.Fatalf("run should not inherit request cancellation: %v", err)
	}
}

func TestServiceCancel(t *testing.T) {
	started := make(chan string, len(testSources))
	svc := newTestService(t, blockingScorer(started))

	run, err := svc.Start(context.Background(), RawQuery{Value: "Laptop"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-started
	if err := svc.Cancel(run.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	_, err = waitRun(t, run)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if run.Status() != StatusCancelled {
		t.Fatalf("expected cancelled status, got %s", run.Status())
	}
	for ev := range run.Events() {
		if ev.Label != StageNormalizing && ev.Label != StageDispatching {
			t.Fatalf("unexpected event after cancellation: %+v", ev)
		}
	}

	if err := svc.Cancel(run.ID); !errors.Is(err, ErrRunFinished) {
		t.Fatalf("expected ErrRunFinished, got %v", err)
	}
	if err := svc.Cancel("no-such-run"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestServicePruneFinished(t *testing.T) {
	svc := newTestService(t, NewSeededScorer(1, nil))
	run, err := svc.Start(context.Background(), RawQuery{Value: "Dress"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := waitRun(t, run); err != nil {
		t.Fatalf("run: %v", err)
	}

	if n := svc.PruneFinished(run.StartedAt.Add(-time.Hour)); n != 0 {
		t.Fatalf("nothing finished that long ago, pruned %d", n)
	}
	if n := svc.PruneFinished(time.Now().UTC().Add(time.Second)); n != 1 {
		t.Fatalf("expected 1 pruned run, got %d", n)
	}
	if _, ok := svc.Lookup(run.ID); ok {
		t.Fatal("pruned run still visible")
	}
}

func TestServiceAnalyzeSync(t *testing.T) {
	svc := newTestService(t, NewSeededScorer(5, testMarketplaces()))
	result, err := svc.Analyze(context.Background(), RawQuery{Value: "iPhone 15"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.RequestID == "" || result.ProductName != "iPhone 15" || len(result.Sources) != len(testSources) {
		t.Fatalf("unexpected result %+v", result)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Analyze(ctx, RawQuery{Value: "iPhone 15"}); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled for a cancelled context, got %v", err)
	}
}
