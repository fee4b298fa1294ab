// Package wrappers provides wrappers for environments
package wrappers

import (
	"gonum.org/v1/gonum/mat"

	"github.com/dupo2/MDP-LD3/environment"
	"github.com/dupo2/MDP-LD3/environment/storeroom"
	"github.com/dupo2/MDP-LD3/timestep"
)

// ItemFeatures wraps a Storeroom, replacing its raw observations with
// fixed-length feature vectors suitable for linear function
// approximation. For a storeroom with N items the encoding is:
//
//	[ bias,
//	  row / (rows-1), col / (cols-1),
//	  remaining flag for each of the N items,
//	  (nearest item row - row) / rows,
//	  (nearest item col - col) / cols,
//	  path distance to nearest item / (rows * cols) ]
//
// so the feature length is N + 6 for every state of a given storeroom.
// The nearest remaining item is found by true (obstacle-respecting)
// path distance, not Manhattan distance. Encoding is deterministic:
// equal raw observations always produce equal feature vectors.
type ItemFeatures struct {
	*storeroom.Storeroom
	currentStep timestep.TimeStep
}

// NewItemFeatures wraps env, returning the wrapper and the first
// timestep with an encoded observation
func NewItemFeatures(env *storeroom.Storeroom) (*ItemFeatures,
	timestep.TimeStep) {
	f := &ItemFeatures{Storeroom: env}
	return f, f.Reset()
}

// Reset resets the wrapped environment, returning the first timestep of
// the new episode with an encoded observation
func (f *ItemFeatures) Reset() timestep.TimeStep {
	step := f.Storeroom.Reset()
	step.Observation = f.Encode(step.Observation)
	f.currentStep = step
	return step
}

// Step takes one step in the wrapped environment, encoding the
// observation of the resulting timestep
func (f *ItemFeatures) Step(action mat.Vector) (timestep.TimeStep, bool,
	error) {
	step, last, err := f.Storeroom.Step(action)
	if err != nil {
		return step, last, err
	}

	step.Observation = f.Encode(step.Observation)
	f.currentStep = step
	return step, last, nil
}

// LastTimeStep returns the last timestep generated by the wrapper
func (f *ItemFeatures) LastTimeStep() timestep.TimeStep {
	return f.currentStep
}

// Encode maps a raw storeroom observation to its feature vector. Encode
// is pure: it depends only on the argument observation and the static
// storeroom layout.
func (f *ItemFeatures) Encode(rawObs mat.Vector) *mat.VecDense {
	rows, cols := f.Dims()
	items := f.ItemCells()

	position := storeroom.Cell{
		Row: int(rawObs.AtVec(0)),
		Col: int(rawObs.AtVec(1)),
	}

	features := make([]float64, f.featureLength())
	features[0] = 1.0 // bias
	if rows > 1 {
		features[1] = float64(position.Row) / float64(rows-1)
	}
	if cols > 1 {
		features[2] = float64(position.Col) / float64(cols-1)
	}

	// Remaining-item flags, in observation-bit order
	for i := range items {
		features[3+i] = rawObs.AtVec(2 + i)
	}

	// Offset and path distance to the nearest remaining item. All
	// three stay zero once every item is collected or unreachable.
	nearest, dist := f.nearestRemaining(position, rawObs, items)
	if dist >= 0 {
		features[3+len(items)] = float64(nearest.Row-position.Row) /
			float64(rows)
		features[4+len(items)] = float64(nearest.Col-position.Col) /
			float64(cols)
		features[5+len(items)] = float64(dist) / float64(rows*cols)
	}

	return mat.NewVecDense(len(features), features)
}

// ObservationSpec returns the specification of the encoded observations
func (f *ItemFeatures) ObservationSpec() environment.Spec {
	length := f.featureLength()
	shape := mat.NewVecDense(length, nil)

	lower := make([]float64, length)
	upper := make([]float64, length)
	for i := range lower {
		lower[i] = -1.0
		upper[i] = 1.0
	}

	return environment.NewSpec(shape, environment.Observation,
		mat.NewVecDense(length, lower), mat.NewVecDense(length, upper),
		environment.Continuous)
}

func (f *ItemFeatures) featureLength() int {
	return 6 + len(f.ItemCells())
}

// nearestRemaining returns the closest remaining item by path distance
// and that distance, or a -1 distance if no remaining item is reachable.
// Ties break toward the lowest item index, keeping the encoding
// deterministic.
func (f *ItemFeatures) nearestRemaining(position storeroom.Cell,
	rawObs mat.Vector, items []storeroom.Cell) (storeroom.Cell, int) {
	nearest := storeroom.Cell{}
	best := -1

	for i, cell := range items {
		if rawObs.AtVec(2+i) == 0.0 {
			continue // already collected
		}
		d := f.PathDistance(position, cell)
		if d < 0 {
			continue
		}
		if best < 0 || d < best {
			nearest = cell
			best = d
		}
	}
	return nearest, best
}
