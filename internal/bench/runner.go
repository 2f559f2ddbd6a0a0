package bench

import (
	"context"
	"log/slog"
	"time"

	"github.com/user/lucebench/pkg/client"
)

// Runner issues single timed search requests.
type Runner struct {
	client *client.Client
}

// NewRunner creates a Runner backed by the given client.
func NewRunner(c *client.Client) *Runner {
	return &Runner{client: c}
}

// RunOne executes exactly one search for (query, topK) and returns the
// timed sample. The timer starts immediately before the request and stops
// after the response body is fully received. A transport error or non-2xx
// status yields Success=false with zero hits; failures are recorded, never
// retried.
func (r *Runner) RunOne(ctx context.Context, query string, topK, run int) Sample {
	start := time.Now()
	result, err := r.client.Search(ctx, query, topK)
	elapsed := time.Since(start)

	sample := Sample{
		Timestamp:       time.Now().UTC(),
		Query:           query,
		Run:             run,
		TopK:            topK,
		APILatencyMs:    float64(elapsed) / float64(time.Millisecond),
		SearchLatencyMs: -1,
	}

	if err != nil {
		slog.Error("query failed", "query", query, "top_k", topK, "error", err)
		return sample
	}

	sample.Success = true
	sample.TotalHits = result.TotalHits
	if result.SearchTimeMs != nil {
		sample.SearchLatencyMs = *result.SearchTimeMs
	} else {
		slog.Warn("searchTimeMs missing in response", "query", query)
	}
	return sample
}

// Warmup issues n discarded queries cycling WarmupQuerySet, rotating topK
// through the given values. Nothing is recorded; the point is to prime the
// service's caches before measurement.
func (r *Runner) Warmup(ctx context.Context, n int, topKValues []int) {
	if n <= 0 {
		return
	}
	if len(topKValues) == 0 {
		topKValues = []int{10}
	}
	slog.Info("warmup started", "queries", n)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return
		}
		query := WarmupQuerySet[i%len(WarmupQuerySet)]
		topK := topKValues[i%len(topKValues)]
		r.RunOne(ctx, query, topK, 0)
		if (i+1)%10 == 0 {
			slog.Info("warmup progress", "done", i+1, "total", n)
		}
	}
	slog.Info("warmup finished")
}
