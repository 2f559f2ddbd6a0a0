package ingest

import (
	"fmt"

	"github.com/user/lucebench/pkg/client"
)

// Batch is a size-bounded, order-preserving slice of the input files. One
// batch becomes one remote ingestion job.
type Batch struct {
	Index int
	Files []client.UploadFile
}

// PlanBatches splits files into ceil(N/bound) batches of at most bound
// files each, preserving input order. The final batch holds the remainder.
// N=0 yields no batches. A bound <= 0 is a configuration error.
func PlanBatches(files []client.UploadFile, bound int) ([]Batch, error) {
	if bound <= 0 {
		return nil, fmt.Errorf("invalid batch size %d: must be >= 1", bound)
	}
	if len(files) == 0 {
		return nil, nil
	}
	batches := make([]Batch, 0, (len(files)+bound-1)/bound)
	for start := 0; start < len(files); start += bound {
		end := start + bound
		if end > len(files) {
			end = len(files)
		}
		batches = append(batches, Batch{
			Index: len(batches),
			Files: files[start:end],
		})
	}
	return batches, nil
}
