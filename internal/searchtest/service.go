// Package searchtest provides an in-process fake of the search service
// HTTP contract for tests: search with configurable latency and failure
// injection, chunk statistics, multipart ingestion with scripted job
// lifecycles, and a health toggle.
package searchtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Service is a scriptable fake search service. Mutate the exported fields
// before (or between) requests; access is serialized internally.
type Service struct {
	mu sync.Mutex

	// Search behavior.
	SearchDelay    time.Duration
	FailQueries    map[string]bool // queries answered with HTTP 500
	OmitSearchTime bool            // drop searchTimeMs from responses
	TotalHits      int

	// Index statistics.
	TotalChunks    int
	TotalTokens    int
	IndexSizeBytes int64

	// Ingestion behavior.
	Healthy         bool
	RejectSubmits   bool // answer submissions with HTTP 400
	PollsToComplete int  // status polls before a job turns terminal
	FailJobs        bool // jobs end FAILED instead of COMPLETED
	StallJobs       bool // status stays RUNNING forever
	ChunksPerDoc    int

	// Counters for assertions.
	SearchCalls int
	StatusCalls int

	jobs map[string]*jobState
	seq  int
}

type jobState struct {
	files int
	polls int
}

// New returns a healthy service that completes jobs on the first poll.
func New() *Service {
	return &Service{
		FailQueries:     make(map[string]bool),
		TotalHits:       42,
		TotalChunks:     1200,
		TotalTokens:     250000,
		IndexSizeBytes:  48 << 20,
		Healthy:         true,
		PollsToComplete: 1,
		ChunksPerDoc:    5,
		jobs:            make(map[string]*jobState),
	}
}

// Counts returns the search and status call counters under the lock.
func (s *Service) Counts() (searchCalls, statusCalls int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.SearchCalls, s.StatusCalls
}

// Router returns the HTTP handler implementing the service contract.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/search/chunk-stats", s.handleChunkStats)
	r.Post("/api/v1/ingest/pdf", s.handleIngest)
	r.Get("/api/v1/ingest/status/{jobID}", s.handleStatus)
	r.Get("/api/v1/ingest/health", s.handleHealth)
	return r
}

func (s *Service) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
		TopK  int    `json:"topK"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid search request")
		return
	}

	s.mu.Lock()
	s.SearchCalls++
	fail := s.FailQueries[req.Query]
	delay := s.SearchDelay
	omit := s.OmitSearchTime
	totalHits := s.TotalHits
	s.mu.Unlock()

	if fail {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	hits := make([]map[string]interface{}, 0, req.TopK)
	for i := 0; i < req.TopK && i < 3; i++ {
		hits = append(hits, map[string]interface{}{
			"documentId": fmt.Sprintf("doc-%d", i),
			"content":    "chunk content",
			"score":      1.0 / float64(i+1),
		})
	}
	resp := map[string]interface{}{
		"hits":      hits,
		"totalHits": totalHits,
	}
	if !omit {
		resp["searchTimeMs"] = 1.5
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleChunkStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalChunks":       s.TotalChunks,
		"totalTokens":       s.TotalTokens,
		"avgTokensPerChunk": 208.3,
		"indexSizeBytes":    s.IndexSizeBytes,
	})
}

func (s *Service) handleIngest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	files := r.MultipartForm.File["file"]

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RejectSubmits {
		writeError(w, http.StatusBadRequest, "upload rejected")
		return
	}
	s.seq++
	jobID := fmt.Sprintf("job-%04d", s.seq)
	s.jobs[jobID] = &jobState{files: len(files)}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"jobId":  jobID,
		"status": "PROCESSING",
	})
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.StatusCalls++

	job, ok := s.jobs[jobID]
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	job.polls++

	status := "PROCESSING"
	docs := job.files * job.polls / max(s.PollsToComplete, 1)
	if docs > job.files {
		docs = job.files
	}
	if !s.StallJobs && job.polls >= s.PollsToComplete {
		docs = job.files
		if s.FailJobs {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"jobId":        jobID,
				"status":       "FAILED",
				"totalFiles":   job.files,
				"errorMessage": "ingestion failed",
			})
			return
		}
		status = "COMPLETED"
	}

	resp := map[string]interface{}{
		"jobId":              jobID,
		"status":             status,
		"totalFiles":         job.files,
		"documentsProcessed": docs,
		"chunksProcessed":    docs * s.ChunksPerDoc,
	}
	if status == "COMPLETED" {
		resp["exportFileName"] = jobID + "-chunks.json"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	healthy := s.Healthy
	s.mu.Unlock()
	if !healthy {
		writeError(w, http.StatusServiceUnavailable, "unhealthy")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
