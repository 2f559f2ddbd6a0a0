package bench

import "time"

// Sample is one timed search observation. APILatencyMs is measured on the
// client and includes network time; SearchLatencyMs is the server-reported
// timing (-1 when the response carried none) and is never mixed into
// client-latency statistics. Samples are immutable once recorded.
type Sample struct {
	Timestamp       time.Time
	Query           string
	Run             int
	TopK            int
	APILatencyMs    float64
	SearchLatencyMs float64
	TotalHits       int
	Success         bool
}
