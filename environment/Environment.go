// Package environment outlines the interfaces and structs needed to implement
// concrete environments
package environment

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/dupo2/MDP-LD3/timestep"
)

// ErrInvalidState indicates that an environment or learner was used in a
// state in which the requested operation is meaningless, e.g. stepping an
// environment whose episode has already ended. It always signals a usage
// bug in the orchestration code, never a normal training-time event.
var ErrInvalidState = errors.New("operation on invalid state")

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() mat.Vector
}

// Task implements the reward scheme for taking actions in some environment
type Task interface {
	// GetReward returns the reward for taking action a on timestep t.
	// The action must be the action actually executed by the
	// environment, after any action slip has been resolved.
	GetReward(t timestep.TimeStep, a mat.Vector) float64

	// AtGoal returns whether the argument state is a goal state
	AtGoal(state mat.Matrix) bool

	// Min and Max return the minimum and maximum attainable single-step
	// rewards
	Min() float64
	Max() float64
}

// Ender determines when episodes end for reasons external to the
// environment's own terminal states, such as timestep limits
type Ender interface {
	// End takes the most recent TimeStep, modifying its StepType to
	// timestep.Last if the episode should end, and returns whether the
	// episode ended
	End(*timestep.TimeStep) bool
}

// Environment implements a simulated environment, which includes a Task to
// complete
type Environment interface {
	Task

	// Reset resets the environment between episodes. It never fails:
	// a constructed environment can always be returned to its start
	// configuration.
	Reset() timestep.TimeStep

	// Step takes one environmental step given the argument action,
	// returning the next timestep and whether that timestep is the
	// last in the episode. Stepping an episode that has already ended
	// is an error wrapping ErrInvalidState.
	Step(action mat.Vector) (timestep.TimeStep, bool, error)

	// LastTimeStep returns the last timestep generated by the
	// environment
	LastTimeStep() timestep.TimeStep

	RewardSpec() Spec
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}
