package trackers

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/dupo2/MDP-LD3/experiment/tracker"
	"github.com/dupo2/MDP-LD3/timestep"
)

func loadGob(t *testing.T, filename string, data interface{}) {
	t.Helper()
	file, err := os.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(data); err != nil {
		t.Fatal(err)
	}
}

func episode(rewards []float64) []timestep.TimeStep {
	obs := mat.NewVecDense(1, nil)
	steps := []timestep.TimeStep{
		timestep.New(timestep.First, 0.0, 0.9, obs, 0),
	}
	for i, r := range rewards {
		stepType := timestep.Mid
		if i == len(rewards)-1 {
			stepType = timestep.Last
		}
		steps = append(steps, timestep.New(stepType, r, 0.9, obs, i+1))
	}
	return steps
}

func TestReturnRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "returns.bin")
	r := NewReturn(filename)

	for _, rewards := range [][]float64{
		{-1.0, -1.0, 59.0},
		{-2.0, 59.0},
	} {
		for _, step := range episode(rewards) {
			r.Track(step)
		}
	}
	r.Save()

	got := tracker.LoadData(filename)
	want := []float64{57.0, 57.0}
	if len(got) != len(want) {
		t.Fatalf("got %d returns, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("return %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestReturnPanicsOnSkippedTimestep(t *testing.T) {
	r := NewReturn(filepath.Join(t.TempDir(), "returns.bin"))
	obs := mat.NewVecDense(1, nil)

	r.Track(timestep.New(timestep.First, 0.0, 0.9, obs, 0))

	defer func() {
		if recover() == nil {
			t.Error("tracking a skipped timestep did not panic")
		}
	}()
	r.Track(timestep.New(timestep.Mid, -1.0, 0.9, obs, 2))
}

func TestEpisodeLengthRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "lengths.bin")
	e := NewEpisodeLength(filename)

	for _, rewards := range [][]float64{
		{-1.0, -1.0, 59.0},
		{59.0},
	} {
		for _, step := range episode(rewards) {
			e.Track(step)
		}
	}
	e.Save()

	// Episode lengths are saved as ints, so LoadData does not apply
	var lengths []int
	loadGob(t, filename, &lengths)
	want := []int{3, 1}
	if len(lengths) != len(want) {
		t.Fatalf("got %d lengths, want %d", len(lengths), len(want))
	}
	for i := range want {
		if lengths[i] != want[i] {
			t.Errorf("length %d: got %d, want %d", i, lengths[i], want[i])
		}
	}
}

func TestOutcomesRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "outcomes.bin")
	o := NewOutcomes(filename)

	want := []tracker.Outcome{
		{Return: -12.0, Steps: 70, Success: false, Epsilon: 1.0},
		{Return: 57.0, Steps: 3, Success: true, Epsilon: 0.5},
	}
	for _, outcome := range want {
		o.TrackOutcome(outcome)
	}
	o.Save()

	got := LoadOutcomes(filename)
	if len(got) != len(want) {
		t.Fatalf("got %d outcomes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("outcome %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}
