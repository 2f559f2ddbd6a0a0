// Package results persists benchmark output: CSV files consumed by the
// dashboard tooling and a SQLite archive of past runs.
package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/user/lucebench/internal/bench"
)

var sampleHeader = []string{
	"timestamp", "query", "run", "top_k",
	"api_latency_ms", "lucene_latency_ms", "total_hits", "success",
}

var summaryHeader = []string{
	"input_size", "chunk_count", "token_count", "index_size_bytes",
	"queries_tested", "runs_per_query", "valid_runs", "total_api_calls",
	"avg_latency_ms", "min_latency_ms", "max_latency_ms",
	"p50_latency_ms", "p95_latency_ms", "p99_latency_ms", "std_dev_ms",
	"total_time_sec", "throughput_qps",
}

// WriteSamplesFile writes one row per sample, in recorded order.
func WriteSamplesFile(path string, samples []bench.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create samples csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(sampleHeader); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			s.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
			s.Query,
			strconv.Itoa(s.Run),
			strconv.Itoa(s.TopK),
			formatMs(s.APILatencyMs),
			formatMs(s.SearchLatencyMs),
			strconv.Itoa(s.TotalHits),
			strconv.FormatBool(s.Success),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// AppendSummaryFile appends one summary row, writing the header first when
// the file does not exist yet.
func AppendSummaryFile(path string, summary bench.Summary) error {
	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open summary csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(summaryHeader); err != nil {
			return err
		}
	}
	row := []string{
		strconv.Itoa(summary.InputSize),
		strconv.Itoa(summary.ChunkCount),
		strconv.Itoa(summary.TokenCount),
		strconv.FormatInt(summary.IndexSizeBytes, 10),
		strconv.Itoa(summary.QueriesTested),
		strconv.Itoa(summary.RunsPerQuery),
		strconv.Itoa(summary.ValidRuns),
		strconv.Itoa(summary.TotalCalls),
		formatMs(summary.Stats.Avg),
		formatMs(summary.Stats.Min),
		formatMs(summary.Stats.Max),
		formatMs(summary.Stats.P50),
		formatMs(summary.Stats.P95),
		formatMs(summary.Stats.P99),
		formatMs(summary.Stats.StdDev),
		strconv.FormatFloat(summary.TotalElapsed, 'f', 2, 64),
		strconv.FormatFloat(summary.ThroughputQPS, 'f', 2, 64),
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func formatMs(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
