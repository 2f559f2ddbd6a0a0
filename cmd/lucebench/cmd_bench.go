package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/lucebench/internal/bench"
	"github.com/user/lucebench/internal/observability"
	"github.com/user/lucebench/internal/results"
	"github.com/user/lucebench/pkg/client"
)

var (
	benchQueriesFile   string
	benchQueryCount    int
	benchRuns          int
	benchTopK          []int
	benchNoWarmup      bool
	benchWarmupQueries int
	benchWarmupRuns    int
	benchConcurrency   bool
	benchLevels        []int
	benchPerLevel      int
	benchInputSize     int
	benchResultsDir    string
	benchArchivePath   string
	benchReadyTimeout  time.Duration
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run the latency/throughput benchmark against the search service",
	RunE:  runBench,
}

func init() {
	benchCmd.Flags().StringVar(&benchQueriesFile, "queries-file", "", "File with one query per line (default: built-in query set)")
	benchCmd.Flags().IntVar(&benchQueryCount, "queries", 0, "Limit the number of queries tested (0 = all)")
	benchCmd.Flags().IntVar(&benchRuns, "runs", 20, "Measured runs per query/topK cell")
	benchCmd.Flags().IntSliceVar(&benchTopK, "top-k", []int{1, 5, 10, 20, 50}, "TopK values to test")
	benchCmd.Flags().BoolVar(&benchNoWarmup, "no-warmup", false, "Skip all warmup queries and runs")
	benchCmd.Flags().IntVar(&benchWarmupQueries, "warmup-queries", 40, "Discarded warmup queries before the grid")
	benchCmd.Flags().IntVar(&benchWarmupRuns, "warmup-runs", 2, "Discarded warmup runs per grid cell")
	benchCmd.Flags().BoolVar(&benchConcurrency, "concurrency", false, "Also measure under concurrent load")
	benchCmd.Flags().IntSliceVar(&benchLevels, "concurrency-levels", []int{1, 5, 10}, "Concurrency levels to test")
	benchCmd.Flags().IntVar(&benchPerLevel, "queries-per-level", 100, "Requests per concurrency level")
	benchCmd.Flags().IntVar(&benchInputSize, "input-size", 0, "Number of source documents behind the index (labeling only)")
	benchCmd.Flags().StringVar(&benchResultsDir, "results-dir", "results", "Directory for CSV output")
	benchCmd.Flags().StringVar(&benchArchivePath, "archive", "", "SQLite archive path (empty to skip archiving)")
	benchCmd.Flags().DurationVar(&benchReadyTimeout, "ready-timeout", time.Minute, "How long to wait for the service before starting")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	shutdown, err := observability.InitTracer(otelEnabled, otelEndpoint)
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	queries, err := loadQueries()
	if err != nil {
		return err
	}

	cfg := bench.DefaultConfig()
	cfg.Queries = queries
	cfg.TopKValues = benchTopK
	cfg.RunsPerQuery = benchRuns
	cfg.WarmupEnabled = !benchNoWarmup
	cfg.WarmupQueries = benchWarmupQueries
	cfg.WarmupRuns = benchWarmupRuns
	cfg.ConcurrencyEnabled = benchConcurrency
	cfg.ConcurrencyLevels = benchLevels
	cfg.QueriesPerLevel = benchPerLevel
	cfg.InputSize = benchInputSize

	c := client.New(serverURL)
	if err := c.WaitReady(ctx, benchReadyTimeout); err != nil {
		return err
	}

	session, err := bench.NewSession(c, cfg)
	if err != nil {
		return err
	}
	report, err := session.Run(ctx)
	if report == nil {
		return err
	}
	if err != nil {
		// Partial results are still written below.
		slog.Error("session finished with errors", "error", err)
	}

	if err := writeBenchOutput(report); err != nil {
		return err
	}
	printSummary(report.Summary)
	return nil
}

func writeBenchOutput(report *bench.Report) error {
	if err := os.MkdirAll(benchResultsDir, 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}
	samplesPath := filepath.Join(benchResultsDir, fmt.Sprintf("benchmark_%d_docs.csv", benchInputSize))
	if err := results.WriteSamplesFile(samplesPath, report.Samples); err != nil {
		return err
	}
	slog.Info("raw samples written", "path", samplesPath, "rows", len(report.Samples))

	summaryPath := filepath.Join(benchResultsDir, "summary.csv")
	if err := results.AppendSummaryFile(summaryPath, report.Summary); err != nil {
		return err
	}
	slog.Info("summary appended", "path", summaryPath)

	if benchArchivePath != "" {
		store, err := results.Open(benchArchivePath)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.SaveReport(report)
		if err != nil {
			return err
		}
		slog.Info("session archived", "session_id", id)
	}
	return nil
}

func loadQueries() ([]string, error) {
	queries := bench.DefaultQueries
	if benchQueriesFile != "" {
		f, err := os.Open(benchQueriesFile)
		if err != nil {
			return nil, fmt.Errorf("open queries file: %w", err)
		}
		defer f.Close()

		queries = nil
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				queries = append(queries, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read queries file: %w", err)
		}
	}
	if benchQueryCount > 0 && benchQueryCount < len(queries) {
		queries = queries[:benchQueryCount]
	}
	return queries, nil
}

func printSummary(s bench.Summary) {
	fmt.Printf("\nBenchmark summary (%d docs indexed)\n", s.InputSize)
	fmt.Printf("  chunks:      %d\n", s.ChunkCount)
	fmt.Printf("  tokens:      %d\n", s.TokenCount)
	fmt.Printf("  valid runs:  %d/%d\n", s.ValidRuns, s.TotalCalls)
	fmt.Printf("  avg:         %.2f ms\n", s.Stats.Avg)
	fmt.Printf("  p50:         %.2f ms\n", s.Stats.P50)
	fmt.Printf("  p95:         %.2f ms\n", s.Stats.P95)
	fmt.Printf("  p99:         %.2f ms\n", s.Stats.P99)
	fmt.Printf("  min/max:     %.2f / %.2f ms\n", s.Stats.Min, s.Stats.Max)
	fmt.Printf("  throughput:  %.2f qps\n", s.ThroughputQPS)
	for _, lr := range s.Concurrency {
		fmt.Printf("  concurrency %d: avg %.2f ms, p95 %.2f ms, %.2f qps\n",
			lr.Level, lr.AvgLatencyMs, lr.P95LatencyMs, lr.ThroughputQPS)
	}
}
