// Package storeroom implements a storage-room gridworld environment.
//
// The storeroom is a fixed-size grid containing static obstacles and a
// set of collectible items. An agent moves in the four cardinal
// directions, paying a small cost per step, and the episode ends once
// every item has been collected. Observations are compact vectors
// holding the agent position followed by one remaining/collected flag
// per item.
package storeroom

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/dupo2/MDP-LD3/environment"
	"github.com/dupo2/MDP-LD3/timestep"
)

// NoAction is the last-action value reported before any step is taken
// in an episode
const NoAction Action = -1

// Storeroom implements the storage-room environment. The static map is
// held in an immutable Layout; only the agent position and the set of
// remaining items change during an episode.
type Storeroom struct {
	environment.Task
	layout  *Layout
	starter environment.Starter

	position  Cell
	remaining []bool
	done      bool

	slipProb float64
	rng      *rand.Rand
	discount float64

	currentStep timestep.TimeStep
	lastAction  Action
	lastReward  float64
}

// New validates config and creates a new Storeroom, returning it along
// with the first timestep of its first episode. The seed drives action
// slip and randomized starts; two Storerooms built from equal configs
// and seeds generate identical episodes for identical action sequences.
func New(config Config, seed uint64) (*Storeroom, timestep.TimeStep, error) {
	layout, err := NewLayout(config)
	if err != nil {
		return nil, timestep.TimeStep{}, err
	}

	var starter environment.Starter
	if config.RandomStart {
		starter, err = NewRandomStart(layout, seed)
		if err != nil {
			return nil, timestep.TimeStep{}, err
		}
	} else {
		starter = NewSingleStart(config.Start)
	}

	s := &Storeroom{
		Task:     NewCollect(layout, config),
		layout:   layout,
		starter:  starter,
		slipProb: config.SlipProb,
		rng:      rand.New(rand.NewSource(seed)),
		discount: config.Discount,
	}

	return s, s.Reset(), nil
}

// Reset restores the agent to a start cell and marks every item as
// remaining, beginning a new episode
func (s *Storeroom) Reset() timestep.TimeStep {
	start := s.starter.Start()
	s.position = Cell{int(start.AtVec(0)), int(start.AtVec(1))}

	s.remaining = make([]bool, len(s.layout.items))
	for i := range s.remaining {
		s.remaining[i] = true
	}

	s.done = false
	s.lastAction = NoAction
	s.lastReward = 0.0

	s.currentStep = timestep.New(timestep.First, 0.0, s.discount,
		s.observation(), 0)
	return s.currentStep
}

// Step takes one environmental step given the argument action. Moving
// into an obstacle or off the grid leaves the position unchanged but
// still costs the step. Stepping onto a remaining item collects it;
// collecting the last item ends the episode. Stepping a finished
// episode is an error wrapping environment.ErrInvalidState.
func (s *Storeroom) Step(action mat.Vector) (timestep.TimeStep, bool,
	error) {
	if s.done {
		return timestep.TimeStep{}, false, fmt.Errorf(
			"storeroom: step on ended episode: %w",
			environment.ErrInvalidState)
	}

	a := Action(action.AtVec(0))
	if a < Up || a > Right {
		return timestep.TimeStep{}, false, fmt.Errorf(
			"storeroom: unknown action %d", int(a))
	}

	// Resolve action slip before anything else so that the reward and
	// the movement agree on the executed action
	executed := a
	if s.slipProb > 0.0 && s.rng.Float64() < s.slipProb {
		executed = a.perpendicular()[s.rng.Intn(2)]
	}
	executedVec := mat.NewVecDense(1, []float64{float64(executed)})

	reward := s.GetReward(s.currentStep, executedVec)

	if next, moved := s.layout.Move(s.position, executed); moved {
		s.position = next
		for i, cell := range s.layout.items {
			if cell == s.position && s.remaining[i] {
				s.remaining[i] = false
				break
			}
		}
	}

	s.done = countRemaining(s.remaining) == 0
	stepType := timestep.Mid
	if s.done {
		stepType = timestep.Last
	}

	s.currentStep = timestep.New(stepType, reward, s.discount,
		s.observation(), s.currentStep.Number+1)
	s.lastAction = executed
	s.lastReward = reward

	return s.currentStep, s.done, nil
}

// LastTimeStep returns the last timestep generated by the environment
func (s *Storeroom) LastTimeStep() timestep.TimeStep {
	return s.currentStep
}

// Dims returns the rows and columns of the storeroom grid
func (s *Storeroom) Dims() (rows, cols int) {
	return s.layout.Dims()
}

// ItemCells returns the initial item cells, in observation-bit order
func (s *Storeroom) ItemCells() []Cell {
	return s.layout.Items()
}

// Obstructed returns whether cell holds an obstacle
func (s *Storeroom) Obstructed(cell Cell) bool {
	return s.layout.Obstructed(cell)
}

// PathDistance returns the shortest obstacle-respecting path length
// between two cells, or -1 if unreachable
func (s *Storeroom) PathDistance(from, to Cell) int {
	return s.layout.PathDistance(from, to)
}

// ObservationSpec returns the observation specification of the
// environment: the agent row and column followed by one binary
// remaining-item flag per item
func (s *Storeroom) ObservationSpec() environment.Spec {
	length := 2 + len(s.layout.items)
	shape := mat.NewVecDense(length, nil)

	lowerBound := mat.NewVecDense(length, nil)
	upper := make([]float64, length)
	upper[0] = float64(s.layout.rows - 1)
	upper[1] = float64(s.layout.cols - 1)
	for i := 2; i < length; i++ {
		upper[i] = 1.0
	}
	upperBound := mat.NewVecDense(length, upper)

	return environment.NewSpec(shape, environment.Observation, lowerBound,
		upperBound, environment.Discrete)
}

// ActionSpec returns the action specification of the environment
func (s *Storeroom) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(Up)})
	upperBound := mat.NewVecDense(1, []float64{float64(Right)})

	return environment.NewSpec(shape, environment.Action, lowerBound,
		upperBound, environment.Discrete)
}

// RewardSpec returns the reward specification of the environment
func (s *Storeroom) RewardSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{s.Min()})
	upperBound := mat.NewVecDense(1, []float64{s.Max()})

	return environment.NewSpec(shape, environment.Reward, lowerBound,
		upperBound, environment.Continuous)
}

// DiscountSpec returns the discount specification of the environment
func (s *Storeroom) DiscountSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{s.discount})

	return environment.NewSpec(shape, environment.Discount, bound, bound,
		environment.Continuous)
}

func (s *Storeroom) String() string {
	str := "Storeroom | At: %v  |  Items left: %d/%d  |  Bounds: (%d, %d)"
	return fmt.Sprintf(str, s.position, countRemaining(s.remaining),
		len(s.layout.items), s.layout.rows, s.layout.cols)
}

// Snapshot is a read-only view of the episode state, consumed by render
// sinks. Nothing a sink does with a Snapshot can affect training.
type Snapshot struct {
	Rows, Cols int
	Position   Cell
	Obstacles  []Cell
	Remaining  []Cell
	LastAction Action
	LastReward float64
	StepNumber int
}

// Snapshot returns a copy of the current episode state for
// visualization
func (s *Storeroom) Snapshot() Snapshot {
	var obstacles []Cell
	for cell := range s.layout.obstacles {
		obstacles = append(obstacles, cell)
	}

	var remaining []Cell
	for i, cell := range s.layout.items {
		if s.remaining[i] {
			remaining = append(remaining, cell)
		}
	}

	return Snapshot{
		Rows:       s.layout.rows,
		Cols:       s.layout.cols,
		Position:   s.position,
		Obstacles:  obstacles,
		Remaining:  remaining,
		LastAction: s.lastAction,
		LastReward: s.lastReward,
		StepNumber: s.currentStep.Number,
	}
}

// observation packs the current episode state into a raw observation
// vector: [row, col, item flags...], flag 1.0 meaning still remaining
func (s *Storeroom) observation() *mat.VecDense {
	obs := make([]float64, 2+len(s.remaining))
	obs[0] = float64(s.position.Row)
	obs[1] = float64(s.position.Col)
	for i, remaining := range s.remaining {
		if remaining {
			obs[i+2] = 1.0
		}
	}
	return mat.NewVecDense(len(obs), obs)
}
