package bench

import (
	"errors"
	"math"
	"slices"
)

// ErrInsufficientData is returned when statistics are requested over an
// empty observation set. Callers must not treat it as a zero result.
var ErrInsufficientData = errors.New("insufficient data: no observations")

// Stats summarizes a set of latency observations in milliseconds.
type Stats struct {
	Min    float64 `json:"min_latency_ms"`
	Max    float64 `json:"max_latency_ms"`
	Avg    float64 `json:"avg_latency_ms"`
	P50    float64 `json:"p50_latency_ms"`
	P95    float64 `json:"p95_latency_ms"`
	P99    float64 `json:"p99_latency_ms"`
	StdDev float64 `json:"std_dev_ms"`
}

// Compute summarizes the given latencies. Percentiles use nearest-rank
// selection over the sorted values; the standard deviation is the
// population form. The input slice is not modified.
func Compute(latencies []float64) (Stats, error) {
	n := len(latencies)
	if n == 0 {
		return Stats{}, ErrInsufficientData
	}

	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	avg := sum / float64(n)

	var sqDiff float64
	for _, v := range sorted {
		d := v - avg
		sqDiff += d * d
	}

	return Stats{
		Min:    sorted[0],
		Max:    sorted[n-1],
		Avg:    avg,
		P50:    sorted[percentileIndex(n, 50)],
		P95:    sorted[percentileIndex(n, 95)],
		P99:    sorted[percentileIndex(n, 99)],
		StdDev: math.Sqrt(sqDiff / float64(n)),
	}, nil
}

// percentileIndex returns the nearest-rank index for percentile p over n
// sorted values: ceil(p/100 * n) - 1, clamped to [0, n-1].
func percentileIndex(n, p int) int {
	if n <= 1 {
		return 0
	}
	if p <= 0 {
		return 0
	}
	if p >= 100 {
		return n - 1
	}
	rank := int(math.Ceil(float64(p) / 100.0 * float64(n)))
	idx := rank - 1
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

// Throughput is valid runs divided by elapsed wall-clock seconds, not a
// function of average latency.
func Throughput(validRuns int, elapsedSec float64) float64 {
	if elapsedSec <= 0 {
		return 0
	}
	return float64(validRuns) / elapsedSec
}
