package integration

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/lucebench/internal/bench"
	"github.com/user/lucebench/internal/export"
	"github.com/user/lucebench/internal/ingest"
	"github.com/user/lucebench/internal/results"
	"github.com/user/lucebench/internal/searchtest"
	"github.com/user/lucebench/pkg/client"
)

// testEnv holds a fully wired test stack.
type testEnv struct {
	client *client.Client
	svc    *searchtest.Service
	url    string
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	svc := searchtest.New()
	ts := httptest.NewServer(svc.Router())
	t.Cleanup(ts.Close)

	return &testEnv{
		client: client.New(ts.URL),
		svc:    svc,
		url:    ts.URL,
	}
}

func TestBenchmarkSessionEndToEnd(t *testing.T) {
	env := setup(t)

	cfg := bench.Config{
		Queries:       []string{"vector search", "bm25 ranking", "inverted index"},
		TopKValues:    []int{5, 10},
		RunsPerQuery:  2,
		WarmupEnabled: true,
		WarmupQueries: 4,
		InputSize:     50,
	}
	session, err := bench.NewSession(env.client, cfg)
	if err != nil {
		t.Fatalf("bench.NewSession: %v", err)
	}

	report, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("session.Run: %v", err)
	}

	wantSamples := 3 * 2 * 2
	if len(report.Samples) != wantSamples {
		t.Errorf("samples = %d, want %d", len(report.Samples), wantSamples)
	}
	if report.Summary.ValidRuns != wantSamples {
		t.Errorf("ValidRuns = %d, want %d", report.Summary.ValidRuns, wantSamples)
	}
	if report.Summary.ChunkCount != 1200 {
		t.Errorf("ChunkCount = %d, want fake service default 1200", report.Summary.ChunkCount)
	}
	if report.Summary.Stats.Avg <= 0 {
		t.Errorf("Avg latency = %f, want > 0", report.Summary.Stats.Avg)
	}
	if len(report.Summary.PerTopK) != 2 {
		t.Errorf("PerTopK groups = %d, want 2", len(report.Summary.PerTopK))
	}
}

func TestIngestThenArchiveEndToEnd(t *testing.T) {
	env := setup(t)
	env.svc.PollsToComplete = 2

	files := make([]client.UploadFile, 25)
	for i := range files {
		files[i] = client.UploadFile{
			Name: fmt.Sprintf("doc-%02d.pdf", i),
			Data: []byte("%PDF-1.4 test"),
		}
	}

	cfg := ingest.DefaultConfig()
	cfg.BatchSize = 10
	cfg.PollInterval = 5 * time.Millisecond
	cfg.PollTimeout = 5 * time.Second

	orch, err := ingest.NewOrchestrator(env.client, cfg)
	if err != nil {
		t.Fatalf("ingest.NewOrchestrator: %v", err)
	}
	summary, err := orch.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("orch.Run: %v", err)
	}

	if summary.TotalBatches != 3 {
		t.Errorf("TotalBatches = %d, want 3", summary.TotalBatches)
	}
	if summary.JobsCompleted != 3 {
		t.Errorf("JobsCompleted = %d, want 3", summary.JobsCompleted)
	}
	if summary.TotalDocs != 25 {
		t.Errorf("TotalDocs = %d, want 25", summary.TotalDocs)
	}

	store, err := results.Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("results.Open: %v", err)
	}
	defer store.Close()
	if _, err := store.SaveIngestRun(summary); err != nil {
		t.Errorf("store.SaveIngestRun: %v", err)
	}
}

func TestBenchmarkResultsPersistEndToEnd(t *testing.T) {
	env := setup(t)

	cfg := bench.DefaultConfig()
	cfg.Queries = []string{"ranking function"}
	cfg.TopKValues = []int{10}
	cfg.RunsPerQuery = 3
	cfg.WarmupEnabled = false

	session, err := bench.NewSession(env.client, cfg)
	if err != nil {
		t.Fatalf("bench.NewSession: %v", err)
	}
	report, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("session.Run: %v", err)
	}

	dir := t.TempDir()
	samplesPath := filepath.Join(dir, "samples.csv")
	summaryPath := filepath.Join(dir, "summary.csv")
	if err := results.WriteSamplesFile(samplesPath, report.Samples); err != nil {
		t.Fatalf("results.WriteSamplesFile: %v", err)
	}
	if err := results.AppendSummaryFile(summaryPath, report.Summary); err != nil {
		t.Fatalf("results.AppendSummaryFile: %v", err)
	}

	store, err := results.Open(filepath.Join(dir, "archive.db"))
	if err != nil {
		t.Fatalf("results.Open: %v", err)
	}
	defer store.Close()
	if _, err := store.SaveReport(report); err != nil {
		t.Fatalf("store.SaveReport: %v", err)
	}
	n, err := store.SessionCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("archived sessions = %d, want 1", n)
	}
}

func TestExportVerification(t *testing.T) {
	data := []byte(`[{
		"id": "job-0001-0",
		"document_id": "doc-00",
		"content": "chunk text",
		"metadata": {
			"source": "doc-00.pdf",
			"page_number": 1,
			"chunk_index": 0,
			"token_count": 180,
			"created_at": "2025-06-01T12:00:00Z"
		}
	}]`)

	info, err := export.Verify("job-0001-chunks.json", data)
	if err != nil {
		t.Fatalf("export.Verify: %v", err)
	}
	if info.TotalChunks != 1 || info.UniqueDocuments != 1 {
		t.Errorf("info = %+v", info)
	}
}

func TestUnhealthyServiceFailsFast(t *testing.T) {
	env := setup(t)
	env.svc.Healthy = false

	orch, err := ingest.NewOrchestrator(env.client, ingest.DefaultConfig())
	if err != nil {
		t.Fatalf("ingest.NewOrchestrator: %v", err)
	}
	_, err = orch.Run(context.Background(), []client.UploadFile{{Name: "a.pdf", Data: []byte("x")}})
	if err == nil {
		t.Fatalf("orch.Run succeeded against an unhealthy service")
	}
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Errorf("error = %v, want APIError from the health precheck", err)
	}
}
