package bench

import (
	"errors"
	"math"
	"testing"
)

func TestComputeKnownValues(t *testing.T) {
	stats, err := Compute([]float64{10, 20, 30, 40, 50})
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if stats.Min != 10 {
		t.Errorf("Min = %v, want 10", stats.Min)
	}
	if stats.Max != 50 {
		t.Errorf("Max = %v, want 50", stats.Max)
	}
	if stats.Avg != 30 {
		t.Errorf("Avg = %v, want 30", stats.Avg)
	}
	if stats.P50 != 30 {
		t.Errorf("P50 = %v, want 30 (rank 3)", stats.P50)
	}
	if stats.P95 != 50 {
		t.Errorf("P95 = %v, want 50 (rank 5)", stats.P95)
	}
	if stats.P99 != 50 {
		t.Errorf("P99 = %v, want 50", stats.P99)
	}
	// population stddev of 10..50 step 10
	want := math.Sqrt(200)
	if math.Abs(stats.StdDev-want) > 1e-9 {
		t.Errorf("StdDev = %v, want %v", stats.StdDev, want)
	}
}

func TestComputeOrderingInvariants(t *testing.T) {
	inputs := [][]float64{
		{5},
		{3, 1, 2},
		{9.5, 0.1, 4.4, 4.4, 100, 12, 7},
		{1, 1, 1, 1},
	}
	for _, in := range inputs {
		stats, err := Compute(in)
		if err != nil {
			t.Fatalf("Compute(%v) error: %v", in, err)
		}
		if stats.P50 > stats.P95 || stats.P95 > stats.P99 || stats.P99 > stats.Max {
			t.Errorf("Compute(%v): percentiles out of order: %+v", in, stats)
		}
		if stats.Min > stats.Avg || stats.Avg > stats.Max {
			t.Errorf("Compute(%v): mean outside [min, max]: %+v", in, stats)
		}
	}
}

func TestComputeDoesNotMutateInput(t *testing.T) {
	in := []float64{3, 1, 2}
	if _, err := Compute(in); err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Errorf("input mutated: %v", in)
	}
}

func TestComputeEmpty(t *testing.T) {
	_, err := Compute(nil)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Compute(nil) error = %v, want ErrInsufficientData", err)
	}
}

func TestPercentileIndex(t *testing.T) {
	tests := []struct {
		n, p, want int
	}{
		{5, 50, 2},
		{5, 95, 4},
		{5, 99, 4},
		{1, 50, 0},
		{10, 0, 0},
		{10, 100, 9},
		{100, 50, 49},
		{100, 95, 94},
		{100, 99, 98},
	}
	for _, tt := range tests {
		if got := percentileIndex(tt.n, tt.p); got != tt.want {
			t.Errorf("percentileIndex(%d, %d) = %d, want %d", tt.n, tt.p, got, tt.want)
		}
	}
}

func TestThroughput(t *testing.T) {
	if got := Throughput(100, 10); got != 10 {
		t.Errorf("Throughput(100, 10) = %v, want 10", got)
	}
	if got := Throughput(100, 0); got != 0 {
		t.Errorf("Throughput(100, 0) = %v, want 0", got)
	}
}
