package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrCancelled is returned when the caller cancels an in-flight analysis.
var ErrCancelled = errors.New("analysis cancelled")

// ErrNotListed reports that a source has no data for the requested product.
var ErrNotListed = errors.New("product not listed")

// InvalidInputError reports a query that cannot be normalized.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string { return "invalid input: " + e.Reason }

// SourceUnavailableError is a transient per-source failure.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// SourceTimeoutError reports a source that did not answer before its deadline.
// Global is set when the dispatch-wide deadline expired rather than the per-source one.
type SourceTimeoutError struct {
	Source string
	After  time.Duration
	Global bool
}

func (e *SourceTimeoutError) Error() string {
	scope := "per-source"
	if e.Global {
		scope = "dispatch"
	}
	if e.After <= 0 {
		return fmt.Sprintf("source %s timed out (%s deadline)", e.Source, scope)
	}
	return fmt.Sprintf("source %s timed out after %s (%s deadline)", e.Source, e.After, scope)
}

// AllSourcesFailedError is returned when fewer sources succeeded than required.
type AllSourcesFailedError struct {
	Succeeded int
	Required  int
	Failures  map[string]error
}

func (e *AllSourcesFailedError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for name := range e.Failures {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("%d of %d required sources succeeded (failed: %s)", e.Succeeded, e.Required, strings.Join(names, ", "))
}

func failureMessages(failures map[string]error) map[string]string {
	if len(failures) == 0 {
		return nil
	}
	out := make(map[string]string, len(failures))
	for source, err := range failures {
		out[source] = err.Error()
	}
	return out
}
