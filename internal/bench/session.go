package bench

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

// Config holds every knob of one benchmark session. It is passed in at
// construction; nothing is read from ambient state.
type Config struct {
	Queries      []string
	TopKValues   []int
	RunsPerQuery int

	WarmupEnabled bool
	WarmupQueries int // discarded queries before the grid starts
	WarmupRuns    int // discarded runs per grid cell, before its measured runs

	ConcurrencyEnabled bool
	ConcurrencyLevels  []int
	QueriesPerLevel    int

	// InputSize labels the session with the number of source documents
	// behind the current index.
	InputSize int
}

// DefaultConfig returns the benchmark defaults.
func DefaultConfig() Config {
	return Config{
		Queries:           DefaultQueries,
		TopKValues:        []int{1, 5, 10, 20, 50},
		RunsPerQuery:      20,
		WarmupEnabled:     true,
		WarmupQueries:     40,
		WarmupRuns:        2,
		ConcurrencyLevels: []int{1, 5, 10},
		QueriesPerLevel:   100,
	}
}

func (c Config) validate() error {
	if len(c.Queries) == 0 {
		return fmt.Errorf("invalid config: no queries")
	}
	if len(c.TopKValues) == 0 {
		return fmt.Errorf("invalid config: no topK values")
	}
	if c.RunsPerQuery < 1 {
		return fmt.Errorf("invalid config: runs per query must be >= 1, got %d", c.RunsPerQuery)
	}
	if c.WarmupRuns < 0 || c.WarmupQueries < 0 {
		return fmt.Errorf("invalid config: negative warmup counts")
	}
	return nil
}

// Summary is the per-session aggregate written alongside the raw samples.
type Summary struct {
	InputSize      int     `json:"input_size"`
	ChunkCount     int     `json:"chunk_count"`
	TokenCount     int     `json:"token_count"`
	IndexSizeBytes int64   `json:"index_size_bytes"`
	QueriesTested  int     `json:"queries_tested"`
	RunsPerQuery   int     `json:"runs_per_query"`
	TotalCalls     int     `json:"total_api_calls"`
	ValidRuns      int     `json:"valid_runs"`
	FailedRuns     int     `json:"failed_runs"`
	Stats          Stats   `json:"stats"`
	TotalElapsed   float64 `json:"total_time_sec"`
	ThroughputQPS  float64 `json:"throughput_qps"`

	// ServerStats summarizes server-reported timings when present.
	ServerStats *Stats `json:"server_stats,omitempty"`
	// PerTopK groups client latencies by exact topK value.
	PerTopK map[int]Stats `json:"per_top_k,omitempty"`
	// Concurrency holds per-level results when concurrency testing ran.
	Concurrency []LevelResult `json:"concurrency_results,omitempty"`
}

// Report is the complete output of one session: every recorded sample plus
// the aggregate. Warmup executions never appear in Samples.
type Report struct {
	Samples []Sample
	Summary Summary
}

// Session drives the full query x topK x run grid against one index size.
type Session struct {
	client *client.Client
	runner *Runner
	cfg    Config
	tracer trace.Tracer
}

// NewSession validates cfg and builds a session.
func NewSession(c *client.Client, cfg Config) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Session{
		client: c,
		runner: NewRunner(c),
		cfg:    cfg,
		tracer: otel.Tracer("lucebench/bench"),
	}, nil
}

// Run executes the session. The grid is enumerated queries-outer, topK
// middle, run innermost, so sample order is reproducible for identical
// configuration. All-failed sessions return the report together with
// ErrInsufficientData.
func (s *Session) Run(ctx context.Context) (*Report, error) {
	ctx, span := s.tracer.Start(ctx, "bench.session",
		trace.WithAttributes(
			attribute.Int("queries", len(s.cfg.Queries)),
			attribute.Int("runs_per_query", s.cfg.RunsPerQuery),
			attribute.Int("input_size", s.cfg.InputSize),
		))
	defer span.End()

	s.logConfig()

	summary := Summary{
		InputSize:     s.cfg.InputSize,
		QueriesTested: len(s.cfg.Queries),
		RunsPerQuery:  s.cfg.RunsPerQuery,
	}
	if stats, err := s.client.GetChunkStats(ctx); err != nil {
		slog.Error("failed to get index stats", "error", err)
	} else {
		summary.ChunkCount = stats.TotalChunks
		summary.TokenCount = stats.TotalTokens
		summary.IndexSizeBytes = stats.IndexSizeBytes
		slog.Info("index stats", "chunks", stats.TotalChunks, "tokens", stats.TotalTokens,
			"index_bytes", stats.IndexSizeBytes)
	}

	if s.cfg.WarmupEnabled {
		s.runner.Warmup(ctx, s.cfg.WarmupQueries, s.cfg.TopKValues)
	}

	slog.Info("benchmark started")
	totalCells := len(s.cfg.Queries) * len(s.cfg.TopKValues)
	samples := make([]Sample, 0, totalCells*s.cfg.RunsPerQuery)
	cell := 0

	start := time.Now()
	for _, query := range s.cfg.Queries {
		for _, topK := range s.cfg.TopKValues {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if s.cfg.WarmupEnabled {
				for w := 0; w < s.cfg.WarmupRuns; w++ {
					s.runner.RunOne(ctx, query, topK, 0)
				}
			}
			for run := 1; run <= s.cfg.RunsPerQuery; run++ {
				samples = append(samples, s.runner.RunOne(ctx, query, topK, run))
			}
			cell++
			if cell%10 == 0 {
				slog.Info("benchmark progress", "cells", cell, "total", totalCells)
			}
		}
	}
	elapsed := time.Since(start)
	slog.Info("benchmark finished", "calls", len(samples), "elapsed", elapsed.Round(time.Millisecond))

	summary.TotalCalls = len(samples)
	summary.TotalElapsed = elapsed.Seconds()

	report := &Report{Samples: samples, Summary: summary}
	if err := s.summarize(report); err != nil {
		return report, err
	}

	if s.cfg.ConcurrencyEnabled {
		s.runConcurrency(ctx, report)
	}
	return report, nil
}

// summarize fills the aggregate statistics from the recorded samples.
// Failed samples stay in the raw output but never enter the percentiles.
func (s *Session) summarize(report *Report) error {
	var (
		lats    []float64
		svrLats []float64
		byTopK  = make(map[int][]float64)
	)
	for _, sm := range report.Samples {
		if !sm.Success {
			report.Summary.FailedRuns++
			continue
		}
		lats = append(lats, sm.APILatencyMs)
		byTopK[sm.TopK] = append(byTopK[sm.TopK], sm.APILatencyMs)
		if sm.SearchLatencyMs >= 0 {
			svrLats = append(svrLats, sm.SearchLatencyMs)
		}
	}

	stats, err := Compute(lats)
	if err != nil {
		return fmt.Errorf("summarize session: %w", err)
	}
	report.Summary.Stats = stats
	report.Summary.ValidRuns = len(lats)
	report.Summary.ThroughputQPS = Throughput(len(lats), report.Summary.TotalElapsed)

	if svr, err := Compute(svrLats); err == nil {
		report.Summary.ServerStats = &svr
	}

	report.Summary.PerTopK = make(map[int]Stats, len(byTopK))
	for topK, vals := range byTopK {
		if st, err := Compute(vals); err == nil {
			report.Summary.PerTopK[topK] = st
		}
	}
	return nil
}

func (s *Session) runConcurrency(ctx context.Context, report *Report) {
	gen := NewLoadGenerator(s.runner, s.cfg.QueriesPerLevel, 10)
	for _, level := range s.cfg.ConcurrencyLevels {
		if ctx.Err() != nil {
			return
		}
		slog.Info("concurrency level started", "level", level)
		result := gen.RunLevel(ctx, s.cfg.Queries, level)
		report.Summary.Concurrency = append(report.Summary.Concurrency, result)
		slog.Info("concurrency level finished", "level", level,
			"completed", result.Completed, "failed", result.Failed,
			"qps", result.ThroughputQPS)
	}
}

func (s *Session) logConfig() {
	slog.Info("benchmark configuration",
		"queries", len(s.cfg.Queries),
		"top_k_values", s.cfg.TopKValues,
		"runs_per_query", s.cfg.RunsPerQuery,
		"warmup_enabled", s.cfg.WarmupEnabled,
		"warmup_queries", s.cfg.WarmupQueries,
		"warmup_runs", s.cfg.WarmupRuns,
		"concurrency_enabled", s.cfg.ConcurrencyEnabled,
	)
}
