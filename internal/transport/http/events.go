package transporthttp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Shyamsundamarasu/hi-there-friend-93/internal/analysis"
)

// handleEvents streams a run's stage events as Server-Sent Events and finishes with a
// single "done" or "error" event. A run has one progress stream, so one subscriber.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookup(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, kindInternal, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	bw := bufio.NewWriter(w)
	ctx := r.Context()
	events := run.Events()
	seq := 0

	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-events:
			if !open {
				s.writeTerminal(bw, run, seq+1)
				_ = bw.Flush()
				flusher.Flush()
				return
			}
			seq++
			if err := writeSSE(bw, seq, "stage", ev); err != nil {
				return
			}
			if err := bw.Flush(); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) writeTerminal(bw *bufio.Writer, run *analysis.Run, seq int) {
	result, err := run.Outcome()
	if err == nil {
		_ = writeSSE(bw, seq, "done", result)
		return
	}
	kind, _ := classifyError(err)
	_ = writeSSE(bw, seq, "error", map[string]string{"error": err.Error(), "kind": kind})
}

func writeSSE(bw *bufio.Writer, id int, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(bw, "id: %d\nevent: %s\ndata: %s\n\n", id, event, data)
	return err
}
