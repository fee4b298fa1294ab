package experiment

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/dupo2/MDP-LD3/agent/linear/qlearning"
	"github.com/dupo2/MDP-LD3/environment/storeroom"
	"github.com/dupo2/MDP-LD3/environment/wrappers"
	"github.com/dupo2/MDP-LD3/experiment/tracker"
	"github.com/dupo2/MDP-LD3/experiment/trackers"
	"github.com/dupo2/MDP-LD3/utils/matutils/initializers/weights"
)

// pipeline bundles an environment, an agent, and an experiment built on
// them with a single seed
type pipeline struct {
	env        *wrappers.ItemFeatures
	agent      *qlearning.QLearning
	experiment *Online
	outcomes   string
}

func newPipeline(t *testing.T, room storeroom.Config, config Config,
	epsilon float64, seed uint64) pipeline {
	t.Helper()

	raw, _, err := storeroom.New(room, seed)
	if err != nil {
		t.Fatal(err)
	}
	env, _ := wrappers.NewItemFeatures(raw)

	q, err := qlearning.New(env,
		qlearning.Config{Epsilon: epsilon, LearningRate: 0.1},
		weights.NewLinearUV(weights.NewZeroUV()), seed)
	if err != nil {
		t.Fatal(err)
	}

	outcomes := filepath.Join(t.TempDir(), "outcomes.bin")
	e, err := NewOnline(env, q, config, trackers.NewOutcomes(outcomes))
	if err != nil {
		t.Fatal(err)
	}

	return pipeline{env: env, agent: q, experiment: e, outcomes: outcomes}
}

func openRoom() storeroom.Config {
	return storeroom.NewConfig(3, 3, nil,
		[]storeroom.Cell{{Row: 2, Col: 2}}, storeroom.Cell{Row: 0, Col: 0},
		0.9)
}

func TestRunDeterministic(t *testing.T) {
	config := NewConfig(30, 50)
	config.EpsilonDecay = 0.95
	config.EpsilonFloor = 0.05

	run := func(seed uint64) ([]tracker.Outcome, []byte) {
		p := newPipeline(t, openRoom(), config, 1.0, seed)
		if err := p.experiment.Run(); err != nil {
			t.Fatal(err)
		}
		p.experiment.Save()

		weights := filepath.Join(t.TempDir(), "weights.bin")
		if err := p.agent.Save(weights); err != nil {
			t.Fatal(err)
		}
		saved, err := os.ReadFile(weights)
		if err != nil {
			t.Fatal(err)
		}
		return trackers.LoadOutcomes(p.outcomes), saved
	}

	a, aWeights := run(91)
	b, bWeights := run(91)
	if len(a) != 30 || len(b) != 30 {
		t.Fatalf("got %d and %d outcomes, want 30", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("episode %d differs: %+v != %+v", i, a[i], b[i])
		}
	}
	if !bytes.Equal(aWeights, bWeights) {
		t.Error("identical runs produced different weights")
	}
}

func TestCutoffIsNotSuccess(t *testing.T) {
	// The item is walled off, so no episode can ever reach the goal
	room := storeroom.NewConfig(3, 3,
		[]storeroom.Cell{{Row: 1, Col: 2}, {Row: 2, Col: 1}},
		[]storeroom.Cell{{Row: 2, Col: 2}}, storeroom.Cell{Row: 0, Col: 0},
		0.9)
	p := newPipeline(t, room, NewConfig(1, 25), 1.0, 3)

	outcome, err := p.experiment.RunEpisode()
	if err != nil {
		t.Fatalf("step budget cutoff returned an error: %v", err)
	}
	if outcome.Success {
		t.Error("cutoff episode reported success")
	}
	if outcome.Steps != 25 {
		t.Errorf("cutoff episode ran %d steps, want 25", outcome.Steps)
	}
}

func TestTerminalIsSuccess(t *testing.T) {
	// In a 1x2 room a random policy collects the single item almost
	// immediately
	room := storeroom.NewConfig(1, 2, nil,
		[]storeroom.Cell{{Row: 0, Col: 1}}, storeroom.Cell{Row: 0, Col: 0},
		0.9)
	p := newPipeline(t, room, NewConfig(1, 300), 1.0, 3)

	outcome, err := p.experiment.RunEpisode()
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.Success {
		t.Error("terminal episode did not report success")
	}
	if outcome.Steps >= 300 {
		t.Errorf("successful episode used the whole budget (%d steps)",
			outcome.Steps)
	}
}

func TestDecaySchedules(t *testing.T) {
	config := NewConfig(10, 25)
	config.EpsilonDecay = 0.9
	config.EpsilonFloor = 0.05
	config.LearningRateDecay = 0.8
	config.LearningRateFloor = 0.01

	p := newPipeline(t, openRoom(), config, 1.0, 17)
	if err := p.experiment.Run(); err != nil {
		t.Fatal(err)
	}

	wantEpsilon := math.Pow(0.9, 10)
	if got := p.agent.Epsilon(); math.Abs(got-wantEpsilon) > 1e-12 {
		t.Errorf("got epsilon %v after 10 episodes, want %v", got,
			wantEpsilon)
	}

	wantRate := 0.1 * math.Pow(0.8, 10)
	if got := p.agent.LearningRate(); math.Abs(got-wantRate) > 1e-12 {
		t.Errorf("got learning rate %v after 10 episodes, want %v", got,
			wantRate)
	}
}

func TestDecayRespectsFloors(t *testing.T) {
	config := NewConfig(25, 25)
	config.EpsilonDecay = 0.5
	config.EpsilonFloor = 0.05
	config.LearningRateDecay = 0.5
	config.LearningRateFloor = 0.02

	p := newPipeline(t, openRoom(), config, 1.0, 17)
	if err := p.experiment.Run(); err != nil {
		t.Fatal(err)
	}

	if got := p.agent.Epsilon(); got != 0.05 {
		t.Errorf("got epsilon %v, want floor 0.05", got)
	}
	if got := p.agent.LearningRate(); got != 0.02 {
		t.Errorf("got learning rate %v, want floor 0.02", got)
	}
}

func TestStopBeforeRun(t *testing.T) {
	p := newPipeline(t, openRoom(), NewConfig(1000, 25), 1.0, 17)

	p.experiment.Stop()
	p.experiment.Stop() // stopping twice is fine

	if err := p.experiment.Run(); err != nil {
		t.Fatal(err)
	}

	p.experiment.Save()
	if outcomes := trackers.LoadOutcomes(p.outcomes); len(outcomes) != 0 {
		t.Errorf("stopped experiment ran %d episodes", len(outcomes))
	}
}

// countingRenderer counts Render calls
type countingRenderer struct {
	frames int
}

func (c *countingRenderer) Render() error {
	c.frames++
	return nil
}

func TestEvaluateRendersEveryStep(t *testing.T) {
	p := newPipeline(t, openRoom(), NewConfig(1, 50), 1.0, 17)
	if _, err := p.experiment.RunEpisode(); err != nil {
		t.Fatal(err)
	}

	renderer := &countingRenderer{}
	p.experiment.RegisterRenderer(renderer)

	outcome, err := p.experiment.Evaluate()
	if err != nil {
		t.Fatal(err)
	}

	// One frame for the reset state plus one per step
	if want := outcome.Steps + 1; renderer.frames != want {
		t.Errorf("got %d frames for a %d step episode, want %d",
			renderer.frames, outcome.Steps, want)
	}
}

func TestEvaluateDoesNotLearn(t *testing.T) {
	p := newPipeline(t, openRoom(), NewConfig(5, 50), 1.0, 17)
	if err := p.experiment.Run(); err != nil {
		t.Fatal(err)
	}

	before := p.agent.Epsilon()
	if _, err := p.experiment.Evaluate(); err != nil {
		t.Fatal(err)
	}

	if got := p.agent.Epsilon(); got != before {
		t.Errorf("evaluation changed epsilon %v -> %v", before, got)
	}
	if p.agent.IsEval() {
		t.Error("agent still in evaluation mode after Evaluate")
	}
}

// TestConvergence trains on a small open room and checks that the
// learned greedy policy solves it in close to the optimal number of
// steps.
func TestConvergence(t *testing.T) {
	if testing.Short() {
		t.Skip("convergence training loop in short mode")
	}

	config := NewConfig(800, 40)
	config.EpsilonDecay = 0.99
	config.EpsilonFloor = 0.1

	p := newPipeline(t, openRoom(), config, 1.0, 42)
	if err := p.experiment.Run(); err != nil {
		t.Fatal(err)
	}

	p.experiment.Save()
	outcomes := trackers.LoadOutcomes(p.outcomes)

	// Late training episodes are mostly short even with residual
	// exploration; the optimum is 4 steps
	var steps int
	for _, o := range outcomes[len(outcomes)-50:] {
		steps += o.Steps
	}
	if mean := float64(steps) / 50.0; mean > 15.0 {
		t.Errorf("late training episodes average %.1f steps", mean)
	}

	final, err := p.experiment.Evaluate()
	if err != nil {
		t.Fatal(err)
	}
	if !final.Success {
		t.Fatal("greedy policy did not reach the goal")
	}
	if final.Steps > 12 {
		t.Errorf("greedy policy took %d steps, optimum is 4", final.Steps)
	}
}
