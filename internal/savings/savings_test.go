package savings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yyyoichi/lowrank/internal/savings"
)

func TestEstimate(t *testing.T) {
	test := []struct {
		name          string
		rows, cols, k int
		want          float64
		delta         float64
	}{
		{"1000x1000_k50", 1000, 1000, 50, 1 - float64(50*2001)/1_000_000, 1e-12},
		{"about_90_percent", 1000, 1000, 50, 0.89995, 1e-9},
		{"rank1", 10, 20, 1, 1 - 31.0/200, 1e-12},
		{"empty_rows", 0, 20, 5, 0, 0},
		{"empty_cols", 20, 0, 5, 0, 0},
		{"zero_k", 4, 4, 0, 1, 0},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, savings.Estimate(tt.rows, tt.cols, tt.k), tt.delta)
		})
	}
}

func TestEstimate_CanBeNegative(t *testing.T) {
	// storing rows*cols triplets costs far more than the matrix itself
	got := savings.Estimate(4, 4, 16)
	assert.InDelta(t, 1-16.0*9/16, got, 1e-12)
	assert.Less(t, got, 0.0)

	// full rank of a square matrix is already larger than the original
	assert.Less(t, savings.Estimate(100, 100, 100), 0.0)
}
