package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/lucebench/internal/ingest"
	"github.com/user/lucebench/internal/observability"
	"github.com/user/lucebench/internal/results"
	"github.com/user/lucebench/pkg/client"
)

var (
	ingestSourceDir    string
	ingestCount        int
	ingestBatchSize    int
	ingestPollInterval time.Duration
	ingestPollTimeout  time.Duration
	ingestPolicy       string
	ingestArchivePath  string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest documents into the search service in batched background jobs",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSourceDir, "source", "", "Directory containing PDF files to ingest (required)")
	ingestCmd.Flags().IntVar(&ingestCount, "count", 0, "Number of files to ingest (0 = all)")
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 100, "Maximum files per ingestion job")
	ingestCmd.Flags().DurationVar(&ingestPollInterval, "poll-interval", 2*time.Second, "Job status polling interval")
	ingestCmd.Flags().DurationVar(&ingestPollTimeout, "poll-timeout", 30*time.Minute, "Maximum wait per job before giving up")
	ingestCmd.Flags().StringVar(&ingestPolicy, "failure-policy", "abort", "What to do when a batch fails: abort or continue")
	ingestCmd.Flags().StringVar(&ingestArchivePath, "archive", "", "SQLite archive path (empty to skip archiving)")
	ingestCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	shutdown, err := observability.InitTracer(otelEnabled, otelEndpoint)
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	policy, err := ingest.ParsePolicy(ingestPolicy)
	if err != nil {
		return err
	}

	files, err := loadPDFs(ingestSourceDir, ingestCount)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no PDF files found in %s", ingestSourceDir)
	}
	slog.Info("files loaded", "dir", ingestSourceDir, "count", len(files))

	cfg := ingest.DefaultConfig()
	cfg.BatchSize = ingestBatchSize
	cfg.PollInterval = ingestPollInterval
	cfg.PollTimeout = ingestPollTimeout
	cfg.Policy = policy

	orch, err := ingest.NewOrchestrator(client.New(serverURL), cfg)
	if err != nil {
		return err
	}
	summary, err := orch.Run(ctx, files)
	if err != nil {
		return err
	}

	if ingestArchivePath != "" {
		store, err := results.Open(ingestArchivePath)
		if err != nil {
			return err
		}
		defer store.Close()
		if _, err := store.SaveIngestRun(summary); err != nil {
			return err
		}
	}

	fmt.Printf("\nIngestion summary\n")
	fmt.Printf("  files:      %d in %d batches\n", summary.TotalItems, summary.TotalBatches)
	fmt.Printf("  completed:  %d\n", summary.JobsCompleted)
	fmt.Printf("  failed:     %d (timed out: %d)\n", summary.JobsFailed, summary.JobsTimedOut)
	fmt.Printf("  chunks:     %d\n", summary.TotalChunks)
	fmt.Printf("  elapsed:    %.1fs\n", summary.TotalElapsed)

	if summary.JobsFailed > 0 {
		return fmt.Errorf("%d of %d jobs did not complete", summary.JobsFailed, summary.TotalBatches)
	}
	return nil
}

// loadPDFs reads up to limit PDFs from dir in name order, so batch
// contents are reproducible run-to-run.
func loadPDFs(dir string, limit int) ([]client.UploadFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if limit > 0 && limit < len(names) {
		names = names[:limit]
	}

	files := make([]client.UploadFile, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		files = append(files, client.UploadFile{Name: name, Data: data})
	}
	return files, nil
}
