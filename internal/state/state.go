package state

import (
	"context"
	"time"
)

// State is the reconciliation bookkeeping carried between runs: the latest
// circular URL seen, the last document processed and the set of processed
// document filenames.
type State struct {
	LatestURL     string
	LastProcessed string
	Processed     map[string]bool
}

// NewState returns an empty State with an initialized processed set.
func NewState() State {
	return State{Processed: make(map[string]bool)}
}

// IsProcessed reports whether the named document has been ingested before.
func (s State) IsProcessed(name string) bool {
	return s.Processed[name]
}

// MarkProcessed records the named document in the processed set.
func (s *State) MarkProcessed(name string) {
	if s.Processed == nil {
		s.Processed = make(map[string]bool)
	}
	s.Processed[name] = true
}

// RunRecord is one reconciliation run in the run log.
type RunRecord struct {
	ID          string
	Mode        string
	Status      string
	StartedAt   time.Time
	CompletedAt *time.Time
	EventsAdded int64
	Error       string
}

// Store persists reconciliation state between runs.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, st State) error

	StartRun(ctx context.Context, mode string) (string, error)
	CompleteRun(ctx context.Context, runID string, eventsAdded int) error
	FailRun(ctx context.Context, runID string, errMsg string) error
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}
