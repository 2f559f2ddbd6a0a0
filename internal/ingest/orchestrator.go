package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/user/lucebench/pkg/client"
)

// FailurePolicy decides whether a failed batch stops the run.
type FailurePolicy string

const (
	// PolicyAbort stops submitting further batches after the first
	// failed or timed-out job. Already collected outcomes are reported.
	PolicyAbort FailurePolicy = "abort"
	// PolicyContinue submits every batch and reports all outcomes.
	PolicyContinue FailurePolicy = "continue"
)

// ParsePolicy parses a CLI policy value.
func ParsePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case PolicyAbort, PolicyContinue:
		return FailurePolicy(s), nil
	}
	return "", fmt.Errorf("invalid failure policy %q (expected abort or continue)", s)
}

// Config holds every knob of one orchestration run.
type Config struct {
	BatchSize    int
	PollInterval time.Duration
	PollTimeout  time.Duration
	Policy       FailurePolicy
}

// DefaultConfig returns the ingestion defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:    100,
		PollInterval: 2 * time.Second,
		PollTimeout:  30 * time.Minute,
		Policy:       PolicyAbort,
	}
}

func (c Config) validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("invalid batch size %d: must be >= 1", c.BatchSize)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid poll interval %s", c.PollInterval)
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("invalid poll timeout %s", c.PollTimeout)
	}
	if _, err := ParsePolicy(string(c.Policy)); err != nil {
		return err
	}
	return nil
}

// RunSummary aggregates the outcomes of every job in one run. It is built
// incrementally as jobs finish and never mutated after Run returns.
type RunSummary struct {
	TotalItems    int     `json:"total_items"`
	TotalBatches  int     `json:"total_batches"`
	JobsCompleted int     `json:"jobs_completed"`
	JobsFailed    int     `json:"jobs_failed"`
	JobsTimedOut  int     `json:"jobs_timed_out"`
	TotalDocs     int     `json:"total_docs"`
	TotalChunks   int     `json:"total_chunks"`
	Aborted       bool    `json:"aborted"`
	TotalElapsed  float64 `json:"total_time_sec"`

	Jobs []*Job `json:"-"`
}

// Orchestrator splits an input set into batches and drives each batch
// through submit and poll. Batches are submitted one at a time so a single
// in-flight upload never exceeds the service's request-size ceiling.
type Orchestrator struct {
	client *client.Client
	poller *Poller
	cfg    Config
	tracer trace.Tracer
}

// NewOrchestrator validates cfg and builds an orchestrator.
func NewOrchestrator(c *client.Client, cfg Config) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{
		client: c,
		poller: NewPoller(c, cfg.PollInterval, cfg.PollTimeout),
		cfg:    cfg,
		tracer: otel.Tracer("lucebench/ingest"),
	}, nil
}

// Run ingests all files. The health endpoint is probed first; an
// unreachable service is a fatal precondition failure, not a job outcome.
// Cancellation stops submitting new batches; the summary reflects the
// work done so far.
func (o *Orchestrator) Run(ctx context.Context, files []client.UploadFile) (*RunSummary, error) {
	ctx, span := o.tracer.Start(ctx, "ingest.run",
		trace.WithAttributes(
			attribute.Int("files", len(files)),
			attribute.Int("batch_size", o.cfg.BatchSize),
			attribute.String("policy", string(o.cfg.Policy)),
		))
	defer span.End()

	if err := o.client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service unreachable: %w", err)
	}

	batches, err := PlanBatches(files, o.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{
		TotalItems:   len(files),
		TotalBatches: len(batches),
	}
	slog.Info("ingestion started", "files", len(files), "batches", len(batches),
		"batch_size", o.cfg.BatchSize, "policy", o.cfg.Policy)

	start := time.Now()
	for _, batch := range batches {
		if ctx.Err() != nil {
			summary.Aborted = true
			summary.TotalElapsed = time.Since(start).Seconds()
			return summary, ctx.Err()
		}

		job := o.submit(ctx, batch)
		if job.State == StateSubmitted {
			if err := o.poller.Wait(ctx, job); err != nil {
				summary.record(job)
				summary.Aborted = true
				summary.TotalElapsed = time.Since(start).Seconds()
				return summary, err
			}
		}
		summary.record(job)

		if job.State != StateCompleted && o.cfg.Policy == PolicyAbort {
			slog.Warn("aborting run after failed batch", "batch", batch.Index,
				"job_id", job.ID, "state", job.State, "error", job.Err)
			summary.Aborted = true
			break
		}
	}
	summary.TotalElapsed = time.Since(start).Seconds()

	slog.Info("ingestion finished",
		"completed", summary.JobsCompleted,
		"failed", summary.JobsFailed,
		"timed_out", summary.JobsTimedOut,
		"chunks", summary.TotalChunks,
		"elapsed_sec", summary.TotalElapsed)
	return summary, nil
}

// submit uploads one batch. A submission failure is a failed job outcome,
// not an abort of the run by itself.
func (o *Orchestrator) submit(ctx context.Context, batch Batch) *Job {
	job := &Job{Batch: batch, SubmittedAt: time.Now().UTC()}

	slog.Info("submitting batch", "batch", batch.Index, "files", len(batch.Files))
	accepted, err := o.client.SubmitIngest(ctx, batch.Files)
	if err != nil {
		slog.Error("batch submission failed", "batch", batch.Index, "error", err)
		job.State = StateFailed
		job.Err = err.Error()
		return job
	}
	job.ID = accepted.JobID
	job.State = StateSubmitted
	slog.Info("batch submitted", "batch", batch.Index, "job_id", job.ID)
	return job
}

func (s *RunSummary) record(job *Job) {
	s.Jobs = append(s.Jobs, job)
	switch job.State {
	case StateCompleted:
		s.JobsCompleted++
		s.TotalDocs += job.DocsCompleted
		s.TotalChunks += job.ChunksIndexed
	case StateTimedOut:
		s.JobsTimedOut++
		s.JobsFailed++
	default:
		s.JobsFailed++
	}
}
