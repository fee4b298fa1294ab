package matutils

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestMaxVec(t *testing.T) {
	tests := []struct {
		values []float64
		want   int
	}{
		{[]float64{1.0, 2.0, 3.0}, 2},
		{[]float64{3.0, 2.0, 1.0}, 0},
		{[]float64{-3.0, -1.0, -2.0}, 1},
		{[]float64{0.0, 0.0, 0.0, 0.0}, 0}, // ties break to first index
		{[]float64{1.0, 2.0, 2.0}, 1},
	}

	for _, test := range tests {
		vec := mat.NewVecDense(len(test.values), test.values)
		if got := MaxVec(vec); got != test.want {
			t.Errorf("MaxVec(%v): got %d, want %d", test.values, got,
				test.want)
		}
	}
}
