package ingest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/user/lucebench/pkg/client"
)

// StatusClient is the slice of the service client the poller needs.
type StatusClient interface {
	GetIngestStatus(ctx context.Context, jobID string) (*client.JobStatus, error)
}

// Poller drives a single job to a terminal state by polling its status at
// a fixed interval. The wait between polls is a real suspension through the
// injected clock; total waiting is bounded by the timeout, after which the
// job is marked TIMED_OUT regardless of its remote state.
type Poller struct {
	client   StatusClient
	interval time.Duration
	timeout  time.Duration
	clock    Clock

	// maxPollErrs bounds consecutive I/O failures before giving up.
	maxPollErrs int
}

// NewPoller creates a poller with the system clock.
func NewPoller(c StatusClient, interval, timeout time.Duration) *Poller {
	return &Poller{
		client:      c,
		interval:    interval,
		timeout:     timeout,
		clock:       SystemClock,
		maxPollErrs: 3,
	}
}

// WithClock replaces the poller's clock, for tests.
func (p *Poller) WithClock(clk Clock) *Poller {
	p.clock = clk
	return p
}

// Wait polls until the job reaches a terminal state or the timeout fires,
// updating the job in place. It returns an error only when ctx is
// cancelled; every other outcome is expressed in job.State.
func (p *Poller) Wait(ctx context.Context, job *Job) error {
	start := p.clock.Now()
	pollErrs := 0
	lastChunks := -1

	for {
		status, err := p.client.GetIngestStatus(ctx, job.ID)
		switch {
		case err == nil:
			pollErrs = 0
			p.apply(job, status)
			if job.State.Terminal() {
				slog.Info("job finished", "job_id", job.ID, "state", job.State,
					"elapsed", p.clock.Now().Sub(start).Round(time.Millisecond))
				return nil
			}
			if job.ChunksIndexed != lastChunks {
				slog.Info("job progress", "job_id", job.ID, "state", job.State,
					"docs", job.DocsCompleted, "of", job.DocsExpected,
					"chunks", job.ChunksIndexed)
				lastChunks = job.ChunksIndexed
			}
		case isNotFound(err):
			job.State = StateFailed
			job.Err = "job not found"
			return nil
		default:
			pollErrs++
			slog.Warn("poll error", "job_id", job.ID, "attempt", pollErrs, "error", err)
			if pollErrs >= p.maxPollErrs {
				job.State = StateTimedOut
				job.Err = "polling failed: " + err.Error()
				return nil
			}
		}

		if p.clock.Now().Sub(start) >= p.timeout {
			job.State = StateTimedOut
			job.Err = "poll timeout"
			slog.Error("job timed out", "job_id", job.ID, "timeout", p.timeout)
			return nil
		}
		if err := p.clock.Sleep(ctx, p.interval); err != nil {
			return err
		}
	}
}

// apply copies a polled status onto the job and maps the remote state.
// Anything that is not terminal counts as RUNNING.
func (p *Poller) apply(job *Job, status *client.JobStatus) {
	job.DocsExpected = status.TotalFiles
	job.DocsCompleted = status.DocumentsProcessed
	job.ChunksIndexed = status.ChunksProcessed
	if status.ExportFileName != "" {
		job.ExportFile = status.ExportFileName
	}
	switch status.Status {
	case "COMPLETED":
		job.State = StateCompleted
	case "FAILED":
		job.State = StateFailed
		job.Err = status.ErrorMessage
	default:
		job.State = StateRunning
	}
}

func isNotFound(err error) bool {
	var apiErr *client.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
