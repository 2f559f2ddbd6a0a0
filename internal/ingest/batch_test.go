package ingest

import (
	"fmt"
	"testing"

	"github.com/user/lucebench/pkg/client"
)

func makeFiles(n int) []client.UploadFile {
	files := make([]client.UploadFile, n)
	for i := range files {
		files[i] = client.UploadFile{Name: fmt.Sprintf("doc-%04d.pdf", i)}
	}
	return files
}

func TestPlanBatchesRemainder(t *testing.T) {
	batches, err := PlanBatches(makeFiles(253), 100)
	if err != nil {
		t.Fatalf("PlanBatches() error: %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	wantSizes := []int{100, 100, 53}
	for i, b := range batches {
		if len(b.Files) != wantSizes[i] {
			t.Errorf("batch %d size = %d, want %d", i, len(b.Files), wantSizes[i])
		}
		if b.Index != i {
			t.Errorf("batch %d has Index %d", i, b.Index)
		}
	}
}

func TestPlanBatchesExactMultiple(t *testing.T) {
	batches, err := PlanBatches(makeFiles(200), 100)
	if err != nil {
		t.Fatalf("PlanBatches() error: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(batches))
	}
	for i, b := range batches {
		if len(b.Files) != 100 {
			t.Errorf("batch %d size = %d, want 100", i, len(b.Files))
		}
	}
}

func TestPlanBatchesPreservesOrder(t *testing.T) {
	files := makeFiles(37)
	batches, err := PlanBatches(files, 10)
	if err != nil {
		t.Fatalf("PlanBatches() error: %v", err)
	}

	var flat []client.UploadFile
	total := 0
	for _, b := range batches {
		if len(b.Files) > 10 {
			t.Errorf("batch %d exceeds bound: %d files", b.Index, len(b.Files))
		}
		total += len(b.Files)
		flat = append(flat, b.Files...)
	}
	if total != len(files) {
		t.Fatalf("batches hold %d files, want %d", total, len(files))
	}
	for i, f := range flat {
		if f.Name != files[i].Name {
			t.Errorf("position %d: got %s, want %s", i, f.Name, files[i].Name)
		}
	}
}

func TestPlanBatchesSmallInput(t *testing.T) {
	batches, err := PlanBatches(makeFiles(3), 100)
	if err != nil {
		t.Fatalf("PlanBatches() error: %v", err)
	}
	if len(batches) != 1 || len(batches[0].Files) != 3 {
		t.Errorf("got %d batches, want one batch of 3", len(batches))
	}
}

func TestPlanBatchesEmpty(t *testing.T) {
	batches, err := PlanBatches(nil, 100)
	if err != nil {
		t.Fatalf("PlanBatches() error: %v", err)
	}
	if len(batches) != 0 {
		t.Errorf("got %d batches for empty input, want 0", len(batches))
	}
}

func TestPlanBatchesInvalidBound(t *testing.T) {
	for _, bound := range []int{0, -1} {
		if _, err := PlanBatches(makeFiles(5), bound); err == nil {
			t.Errorf("PlanBatches(bound=%d) expected error", bound)
		}
	}
}
