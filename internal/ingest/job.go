package ingest

import "time"

// State is the client-observed lifecycle of an ingestion job.
type State string

const (
	StateSubmitted State = "SUBMITTED"
	StateRunning   State = "RUNNING"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
	// StateTimedOut is a client-side watchdog outcome, not a remote
	// state: the job may still finish on the server after the client
	// stops watching. It counts as failed for aggregation but stays
	// distinguishable in reporting.
	StateTimedOut State = "TIMED_OUT"
)

// Terminal reports whether s ends the polling loop.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateTimedOut
}

// Job tracks one submitted batch. The ID is assigned by the remote
// service; only the poller mutates a job after submission.
type Job struct {
	ID            string
	Batch         Batch
	State         State
	SubmittedAt   time.Time
	DocsExpected  int
	DocsCompleted int
	ChunksIndexed int
	ExportFile    string
	Err           string
}
