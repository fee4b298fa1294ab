package qlearning

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/dupo2/MDP-LD3/environment"
	"github.com/dupo2/MDP-LD3/timestep"
)

// QLearner implements the update functionality for the Q-Learning
// algorithm: a gradient step on the squared TD error of a linear
// action-value approximator. The weight matrix has one row per action;
// only the taken action's row is adjusted on each step.
type QLearner struct {
	weights      *mat.Dense
	learningRate float64

	step     timestep.TimeStep
	action   int
	nextStep timestep.TimeStep
}

// NewQLearner creates a new QLearner updating the argument weights,
// which are shared with the agent's policy
func NewQLearner(weights *mat.Dense,
	learningRate float64) (*QLearner, error) {
	if weights == nil {
		return nil, fmt.Errorf("qlearner: no weights to learn")
	}
	if learningRate <= 0.0 || learningRate > 1.0 ||
		math.IsNaN(learningRate) {
		return nil, fmt.Errorf("qlearner: learning rate %v not in (0, 1]",
			learningRate)
	}

	return &QLearner{weights: weights, learningRate: learningRate,
		action: -1}, nil
}

// ObserveFirst observes and records the first episodic timestep
func (q *QLearner) ObserveFirst(t timestep.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observefirst: timestep %d is not first: %w",
			t.Number, environment.ErrInvalidState)
	}

	q.step = timestep.TimeStep{}
	q.action = -1
	q.nextStep = t
	return nil
}

// Observe observes and records any timestep other than the first
func (q *QLearner) Observe(action mat.Vector,
	nextStep timestep.TimeStep) error {
	if action.Len() != 1 {
		return fmt.Errorf("observe: action must be 1-dimensional, got %d",
			action.Len())
	}

	q.step = q.nextStep
	q.action = int(action.AtVec(0))
	q.nextStep = nextStep
	return nil
}

// Step updates the weights for the last observed transition. The TD
// target is the observed reward plus the discounted maximum action
// value of the next state, or the reward alone when the next state is
// terminal. Step fails if the update produces non-finite weights, so
// numeric divergence surfaces immediately instead of silently
// corrupting later training.
func (q *QLearner) Step() error {
	if q.action < 0 {
		return fmt.Errorf("step: no transition observed: %w",
			environment.ErrInvalidState)
	}

	target := q.target(q.nextStep.Reward, q.nextStep.Discount,
		q.nextStep.Observation, q.nextStep.Last())

	// Current estimate of the taken action
	row := q.weights.RowView(q.action)
	state := q.step.Observation
	estimate := mat.Dot(row, state)

	// Gradient descent on the squared TD error:
	// w_a <- w_a + α * (target - estimate) * state
	scale := q.learningRate * (target - estimate)
	updated := mat.NewVecDense(row.Len(), nil)
	updated.AddScaledVec(row, scale, state)

	for i := 0; i < updated.Len(); i++ {
		if w := updated.AtVec(i); math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("step: weight for action %d diverged to %v",
				q.action, w)
		}
	}

	q.weights.SetRow(q.action, mat.Col(nil, 0, updated))
	return nil
}

// EndEpisode performs cleanup at the end of an episode
func (q *QLearner) EndEpisode() {}

// TdError returns the TD error of the argument transition under the
// current weights, without updating them
func (q *QLearner) TdError(t timestep.Transition) float64 {
	target := q.target(t.Reward, t.Discount, t.NextState, t.Terminal)
	estimate := mat.Dot(q.weights.RowView(int(t.Action.AtVec(0))), t.State)
	return target - estimate
}

// Weights gets and returns the weights of the learner
func (q *QLearner) Weights() map[string]*mat.Dense {
	weights := make(map[string]*mat.Dense)
	weights["weights"] = q.weights

	return weights
}

// LearningRate returns the learner's step size
func (q *QLearner) LearningRate() float64 {
	return q.learningRate
}

// SetLearningRate sets the learner's step size
func (q *QLearner) SetLearningRate(learningRate float64) {
	q.learningRate = learningRate
}

func (q *QLearner) target(reward, discount float64, nextState mat.Vector,
	terminal bool) float64 {
	if terminal {
		return reward
	}

	numActions, _ := q.weights.Dims()
	actionValues := mat.NewVecDense(numActions, nil)
	actionValues.MulVec(q.weights, nextState)

	return reward + discount*mat.Max(actionValues)
}
