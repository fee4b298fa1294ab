package storeroom

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/dupo2/MDP-LD3/environment"
)

// SingleStart starts every episode from the same cell
type SingleStart struct {
	state mat.Vector
}

// NewSingleStart creates a Starter that always starts episodes at cell
func NewSingleStart(cell Cell) environment.Starter {
	state := mat.NewVecDense(2, []float64{
		float64(cell.Row),
		float64(cell.Col),
	})
	return &SingleStart{state}
}

// Start returns the starting position as a (row, col) vector
func (s *SingleStart) Start() mat.Vector {
	return s.state
}

// RandomStart starts each episode from a uniformly random free cell.
// Cells holding obstacles or items are never chosen.
type RandomStart struct {
	free map[Cell]bool
	dist *distmv.Uniform
}

// NewRandomStart creates a Starter sampling uniformly over the free
// cells of layout. The sampler is seeded, so start sequences are
// reproducible for a fixed seed.
func NewRandomStart(layout *Layout, seed uint64) (environment.Starter,
	error) {
	cells := layout.FreeCells()
	if len(cells) == 0 {
		return nil, fmt.Errorf("randomstart: layout has no free cells")
	}

	free := make(map[Cell]bool, len(cells))
	for _, cell := range cells {
		free[cell] = true
	}

	rows, cols := layout.Dims()
	bounds := []r1.Interval{
		{Min: 0, Max: float64(rows)},
		{Min: 0, Max: float64(cols)},
	}
	dist := distmv.NewUniform(bounds, rand.NewSource(seed))

	return &RandomStart{free, dist}, nil
}

// Start samples grid positions until one lands on a free cell and
// returns it as a (row, col) vector
func (r *RandomStart) Start() mat.Vector {
	for {
		sample := r.dist.Rand(nil)
		cell := Cell{int(sample[0]), int(sample[1])}
		if r.free[cell] {
			return mat.NewVecDense(2, []float64{
				float64(cell.Row),
				float64(cell.Col),
			})
		}
	}
}
