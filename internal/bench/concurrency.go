package bench

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// LevelResult summarizes one concurrency level. Results are tagged with
// their level and never merged into sequential statistics.
type LevelResult struct {
	Level         int     `json:"concurrency"`
	Completed     int     `json:"completed"`
	Failed        int     `json:"failed"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
	P95LatencyMs  float64 `json:"p95_latency_ms"`
	ThroughputQPS float64 `json:"throughput_qps"`
	ElapsedSec    float64 `json:"elapsed_sec"`
}

// LoadGenerator measures latency and aggregate throughput under K parallel
// workers sharing one query list.
type LoadGenerator struct {
	runner          *Runner
	queriesPerLevel int
	topK            int
}

// NewLoadGenerator creates a generator issuing queriesPerLevel requests per
// level at the fixed topK.
func NewLoadGenerator(r *Runner, queriesPerLevel, topK int) *LoadGenerator {
	if queriesPerLevel <= 0 {
		queriesPerLevel = 100
	}
	if topK <= 0 {
		topK = 10
	}
	return &LoadGenerator{runner: r, queriesPerLevel: queriesPerLevel, topK: topK}
}

// RunLevel issues the query workload with `level` workers started together
// and returns the per-level summary. Successful latencies are appended to a
// shared slice under a mutex; failures are counted, not retried.
func (g *LoadGenerator) RunLevel(ctx context.Context, queries []string, level int) LevelResult {
	if level < 1 {
		level = 1
	}
	if len(queries) == 0 {
		return LevelResult{Level: level}
	}

	workload := make([]string, 0, g.queriesPerLevel)
	for i := 0; len(workload) < g.queriesPerLevel; i++ {
		workload = append(workload, queries[i%len(queries)])
	}

	var (
		mu     sync.Mutex
		lats   []float64
		failed int
	)
	var next atomic.Int64
	var wg sync.WaitGroup

	start := time.Now()
	for w := 0; w < level; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1)) - 1
				if i >= len(workload) || ctx.Err() != nil {
					return
				}
				sample := g.runner.RunOne(ctx, workload[i], g.topK, i+1)
				mu.Lock()
				if sample.Success {
					lats = append(lats, sample.APILatencyMs)
				} else {
					failed++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	result := LevelResult{
		Level:      level,
		Completed:  len(lats),
		Failed:     failed,
		ElapsedSec: elapsed.Seconds(),
	}
	stats, err := Compute(lats)
	if err != nil {
		slog.Warn("no successful requests at concurrency level", "level", level)
		return result
	}
	result.AvgLatencyMs = stats.Avg
	result.P95LatencyMs = stats.P95
	result.ThroughputQPS = Throughput(len(lats), elapsed.Seconds())
	return result
}
