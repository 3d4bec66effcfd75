package analysis

import "sync"

// Stage labels, in emission order. Per-source labels sit between dispatch and scoring.
const (
	StageNormalizing = "normalizing input"
	StageDispatching = "dispatching to sources"
	StageScoring     = "scoring"
	StageAggregating = "aggregating"
	StageRanking     = "ranking"
	StageClassifying = "classifying"
)

// DefaultProgressBuffer is used when a stream is created with a non-positive buffer.
const DefaultProgressBuffer = 16

// FetchingLabel is the stage label reported for one source.
func FetchingLabel(source string) string { return "fetching from " + source }

// StageLabels returns the full label sequence for a run over sources.
func StageLabels(sources []string) []string {
	labels := make([]string, 0, len(sources)+6)
	labels = append(labels, StageNormalizing, StageDispatching)
	for _, source := range sources {
		labels = append(labels, FetchingLabel(source))
	}
	return append(labels, StageScoring, StageAggregating, StageRanking, StageClassifying)
}

// ProgressStream delivers stage events to a single subscriber. Publishing never blocks:
// when the buffer is full the oldest unread event is dropped.
type ProgressStream struct {
	mu      sync.Mutex
	ch      chan StageEvent
	closed  bool
	dropped int
}

// NewProgressStream creates a stream holding up to buffer unread events.
func NewProgressStream(buffer int) *ProgressStream {
	if buffer <= 0 {
		buffer = DefaultProgressBuffer
	}
	return &ProgressStream{ch: make(chan StageEvent, buffer)}
}

// Events returns the receive side. It is closed when the run ends.
func (s *ProgressStream) Events() <-chan StageEvent { return s.ch }

// Dropped reports how many events were discarded because the subscriber lagged.
func (s *ProgressStream) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *ProgressStream) publish(ev StageEvent) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- ev:
			return
		default:
		}
		select {
		case <-s.ch:
			s.dropped++
		default:
		}
	}
}

func (s *ProgressStream) close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Reporter walks the fixed label sequence of one run. It is owned by the pipeline goroutine.
type Reporter struct {
	labels []string
	done   int
	halted bool
	stream *ProgressStream
}

// NewReporter binds a label sequence to a stream, which may be nil.
func NewReporter(labels []string, stream *ProgressStream) *Reporter {
	return &Reporter{labels: labels, stream: stream}
}

// Advance marks the next stage complete and publishes its event.
func (r *Reporter) Advance() {
	if r.halted || r.done >= len(r.labels) {
		return
	}
	r.done++
	r.stream.publish(StageEvent{
		Label:             r.labels[r.done-1],
		CompletedFraction: float64(r.done) / float64(len(r.labels)),
	})
}

// Halt suppresses every later event.
func (r *Reporter) Halt() { r.halted = true }

// Completed reports how many stages have been published.
func (r *Reporter) Completed() int { return r.done }
