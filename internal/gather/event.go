// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gather

import (
	"go.uber.org/zap"

	"github.com/pdiddy/paper-gatherer/internal/logging"
	"github.com/pdiddy/paper-gatherer/pkg/types"
)

// State is a candidate's position in the gather state machine.
type State int

const (
	StatePending State = iota
	StateSkipped
	StateFetching
	StateFetched
	StateFetchFailed
	StateFiltering
	StateAccepted
	StateRejected
	StatePersisted
)

var stateNames = [...]string{
	StatePending:     "pending",
	StateSkipped:     "skipped",
	StateFetching:    "fetching",
	StateFetched:     "fetched",
	StateFetchFailed: "fetch-failed",
	StateFiltering:   "filtering",
	StateAccepted:    "accepted",
	StateRejected:    "rejected",
	StatePersisted:   "persisted",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition follows s for the
// candidate.
func (s State) Terminal() bool {
	switch s {
	case StateSkipped, StateFetchFailed, StateRejected, StatePersisted:
		return true
	}
	return false
}

// Skip and duplicate reasons.
const (
	ReasonNoFileLink    = "no-file-link"
	ReasonOutOfRange    = "out-of-range"
	ReasonDuplicateLink = "duplicate-link"
	ReasonDuplicate     = "duplicate"
)

// Event is one state transition for one candidate.
type Event struct {
	// Position is the 1-based position of the candidate in the input.
	Position  int
	Total     int
	Candidate types.Candidate
	State     State

	// Reason qualifies skipped, failed and rejected transitions.
	Reason   string
	Attempts int

	// Index and Path are set on StatePersisted.
	Index int
	Path  string
}

// Reporter consumes progress events.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

// Report calls f(e).
func (f ReporterFunc) Report(e Event) { f(e) }

// LogReporter writes events to a zap logger.
type LogReporter struct {
	log *zap.Logger
}

// NewLogReporter returns a Reporter that logs through log.
func NewLogReporter(log *zap.Logger) *LogReporter {
	return &LogReporter{log: logging.OrNop(log)}
}

// Report logs e at a level matching its state.
func (r *LogReporter) Report(e Event) {
	fields := []zap.Field{
		zap.Int("position", e.Position),
		zap.Int("total", e.Total),
		zap.Stringer("state", e.State),
		zap.String("file_link", e.Candidate.FileLink),
	}
	if e.Reason != "" {
		fields = append(fields, zap.String("reason", e.Reason))
	}

	switch e.State {
	case StatePersisted:
		r.log.Info("document saved", append(fields, zap.Int("index", e.Index), zap.String("path", e.Path))...)
	case StateFetchFailed:
		r.log.Warn("fetch failed", append(fields, zap.Int("attempts", e.Attempts))...)
	case StateRejected, StateSkipped:
		r.log.Info("candidate discarded", fields...)
	default:
		r.log.Debug("candidate progress", fields...)
	}
}
