package client

import (
	"context"
)

// UploadFile is one document in an ingestion submission.
type UploadFile struct {
	Name string
	Data []byte
}

// IngestAccepted is the immediate response to a batch submission. The
// service assigns the job ID; processing continues in the background.
type IngestAccepted struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

// SubmitIngest uploads a batch of documents in a single multipart request
// and returns the job handle for the background ingestion.
func (c *Client) SubmitIngest(ctx context.Context, files []UploadFile) (*IngestAccepted, error) {
	var result IngestAccepted
	if err := c.multipartUpload(ctx, "/api/v1/ingest/pdf", files, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// JobStatus is the polled state of a background ingestion job.
type JobStatus struct {
	JobID              string `json:"jobId"`
	Status             string `json:"status"`
	TotalFiles         int    `json:"totalFiles"`
	DocumentsProcessed int    `json:"documentsProcessed"`
	ChunksProcessed    int    `json:"chunksProcessed"`
	ExportFileName     string `json:"exportFileName,omitempty"`
	ErrorMessage       string `json:"errorMessage,omitempty"`
}

// GetIngestStatus returns the current status of an ingestion job.
func (c *Client) GetIngestStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	var status JobStatus
	if err := c.get(ctx, "/api/v1/ingest/status/"+jobID, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
