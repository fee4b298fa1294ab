package wrappers

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/dupo2/MDP-LD3/environment/storeroom"
)

func newRoom(t *testing.T, config storeroom.Config) *storeroom.Storeroom {
	t.Helper()
	room, _, err := storeroom.New(config, 1)
	if err != nil {
		t.Fatal(err)
	}
	return room
}

func TestEncodeLength(t *testing.T) {
	for _, items := range [][]storeroom.Cell{
		{{Row: 0, Col: 2}},
		{{Row: 0, Col: 2}, {Row: 2, Col: 0}},
		{{Row: 0, Col: 2}, {Row: 2, Col: 0}, {Row: 2, Col: 2}},
	} {
		config := storeroom.NewConfig(3, 3, nil, items,
			storeroom.Cell{Row: 1, Col: 1}, 0.9)
		env, first := NewItemFeatures(newRoom(t, config))

		want := 6 + len(items)
		if got := first.Observation.Len(); got != want {
			t.Errorf("%d items: got feature length %d, want %d", len(items),
				got, want)
		}
		if got := env.ObservationSpec().Shape.Len(); got != want {
			t.Errorf("%d items: got spec length %d, want %d", len(items),
				got, want)
		}
	}
}

func TestEncodeValues(t *testing.T) {
	config := storeroom.NewConfig(3, 3, nil,
		[]storeroom.Cell{{Row: 0, Col: 2}}, storeroom.Cell{Row: 0, Col: 0},
		0.9)
	_, first := NewItemFeatures(newRoom(t, config))

	// Agent at (0, 0), single remaining item at (0, 2), two cells away
	want := []float64{
		1.0,       // bias
		0.0, 0.0,  // normalized position
		1.0,       // item remaining
		0.0,       // row offset to nearest item
		2.0 / 3.0, // column offset to nearest item
		2.0 / 9.0, // path distance over grid area
	}

	got := first.Observation
	if got.Len() != len(want) {
		t.Fatalf("got feature length %d, want %d", got.Len(), len(want))
	}
	for i, w := range want {
		if math.Abs(got.AtVec(i)-w) > 1e-12 {
			t.Errorf("feature %d: got %v, want %v", i, got.AtVec(i), w)
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	config := storeroom.NewConfig(4, 5,
		[]storeroom.Cell{{Row: 1, Col: 1}, {Row: 2, Col: 3}},
		[]storeroom.Cell{{Row: 0, Col: 4}, {Row: 3, Col: 0}},
		storeroom.Cell{Row: 0, Col: 0}, 0.9)
	env, _ := NewItemFeatures(newRoom(t, config))

	raw := mat.NewVecDense(4, []float64{2.0, 2.0, 1.0, 1.0})
	first := env.Encode(raw)
	second := env.Encode(raw)

	if !mat.Equal(first, second) {
		t.Errorf("equal observations encoded differently: %v != %v", first,
			second)
	}

	// Encoding must not mutate its argument
	if raw.AtVec(0) != 2.0 || raw.AtVec(2) != 1.0 {
		t.Error("encoding mutated the raw observation")
	}
}

func TestEncodeCollectionFlipsBit(t *testing.T) {
	config := storeroom.NewConfig(3, 3, nil,
		[]storeroom.Cell{{Row: 0, Col: 1}, {Row: 2, Col: 2}},
		storeroom.Cell{Row: 0, Col: 0}, 0.9)
	env, first := NewItemFeatures(newRoom(t, config))

	if first.Observation.AtVec(3) != 1.0 {
		t.Fatal("first item flag not set before collection")
	}

	// Step right collects the first item
	step, done, err := env.Step(mat.NewVecDense(1,
		[]float64{float64(storeroom.Right)}))
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Fatal("episode ended with an item remaining")
	}

	if step.Observation.AtVec(3) != 0.0 {
		t.Error("collected item flag still set")
	}
	if step.Observation.AtVec(4) != 1.0 {
		t.Error("remaining item flag cleared")
	}
}

func TestEncodeNearestUsesPathDistance(t *testing.T) {
	// A wall between the agent and the adjacent item makes the far item
	// nearer by path, even though the walled-off one is nearer by
	// straight-line distance
	config := storeroom.NewConfig(3, 4,
		[]storeroom.Cell{{Row: 0, Col: 1}, {Row: 1, Col: 1}},
		[]storeroom.Cell{{Row: 0, Col: 2}, {Row: 2, Col: 0}},
		storeroom.Cell{Row: 0, Col: 0}, 0.9)
	_, first := NewItemFeatures(newRoom(t, config))

	// Item (2, 0) is 2 steps away; item (0, 2) takes 6 going around
	n := 2 // items
	obs := first.Observation
	if got, want := obs.AtVec(3+n), 2.0/3.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("got row offset %v, want %v", got, want)
	}
	if got, want := obs.AtVec(4+n), 0.0; got != want {
		t.Errorf("got column offset %v, want %v", got, want)
	}
	if got, want := obs.AtVec(5+n), 2.0/12.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("got distance feature %v, want %v", got, want)
	}
}

func TestEncodeNearestTieBreaksLowestIndex(t *testing.T) {
	// Both items are exactly 2 steps from the center start
	config := storeroom.NewConfig(3, 3, nil,
		[]storeroom.Cell{{Row: 0, Col: 2}, {Row: 2, Col: 0}},
		storeroom.Cell{Row: 1, Col: 1}, 0.9)
	_, first := NewItemFeatures(newRoom(t, config))

	// Nearest must be item 0 at (0, 2): row offset -1/3, col offset 1/3
	n := 2
	obs := first.Observation
	if got, want := obs.AtVec(3+n), -1.0/3.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("got row offset %v, want %v", got, want)
	}
	if got, want := obs.AtVec(4+n), 1.0/3.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("got column offset %v, want %v", got, want)
	}
}

func TestEncodeAllCollected(t *testing.T) {
	config := storeroom.NewConfig(3, 3, nil,
		[]storeroom.Cell{{Row: 0, Col: 1}}, storeroom.Cell{Row: 0, Col: 0},
		0.9)
	env, _ := NewItemFeatures(newRoom(t, config))

	step, done, err := env.Step(mat.NewVecDense(1,
		[]float64{float64(storeroom.Right)}))
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Fatal("collecting the only item did not end the episode")
	}

	// With nothing left to collect, the item flag and all three
	// nearest-item features are zero
	obs := step.Observation
	for _, i := range []int{3, 4, 5, 6} {
		if obs.AtVec(i) != 0.0 {
			t.Errorf("feature %d is %v after all items collected, want 0", i,
				obs.AtVec(i))
		}
	}
}
