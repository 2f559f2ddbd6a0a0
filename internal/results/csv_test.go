package results

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/lucebench/internal/bench"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestWriteSamplesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.csv")
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	samples := []bench.Sample{
		{Timestamp: ts, Query: "vector search", Run: 1, TopK: 10, APILatencyMs: 12.3456, SearchLatencyMs: 4.5, TotalHits: 42, Success: true},
		{Timestamp: ts, Query: "bm25 ranking", Run: 2, TopK: 10, APILatencyMs: 80.0, SearchLatencyMs: -1, Success: false},
	}

	if err := WriteSamplesFile(path, samples); err != nil {
		t.Fatalf("WriteSamplesFile() error: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][4] != "api_latency_ms" || rows[0][5] != "lucene_latency_ms" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "vector search" || rows[1][4] != "12.346" || rows[1][7] != "true" {
		t.Errorf("first data row = %v", rows[1])
	}
	if rows[2][5] != "-1.000" || rows[2][7] != "false" {
		t.Errorf("failed-run row = %v", rows[2])
	}
}

func TestAppendSummaryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	sum := bench.Summary{
		InputSize:     50,
		ChunkCount:    1200,
		QueriesTested: 20,
		RunsPerQuery:  5,
		ValidRuns:     100,
		TotalCalls:    100,
		Stats:         bench.Stats{Avg: 25.5, Min: 10, Max: 90, P50: 24, P95: 70, P99: 88, StdDev: 12.5},
		TotalElapsed:  3.5,
		ThroughputQPS: 28.57,
	}

	if err := AppendSummaryFile(path, sum); err != nil {
		t.Fatalf("AppendSummaryFile() error: %v", err)
	}
	if err := AppendSummaryFile(path, sum); err != nil {
		t.Fatalf("second AppendSummaryFile() error: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want one header + 2 data rows", len(rows))
	}
	if rows[0][0] != "input_size" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "50" || rows[1][8] != "25.500" {
		t.Errorf("data row = %v", rows[1])
	}
	if rows[1][0] != rows[2][0] {
		t.Errorf("appended rows differ: %v vs %v", rows[1], rows[2])
	}
}
