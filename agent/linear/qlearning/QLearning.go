// Package qlearning implements the Q-Learning algorithm with linear
// function approximation.
//
// The Q-Learning target policy is greedy with respect to the learned
// action values, while actions are selected by an ε-greedy behaviour
// policy sharing the same weights.
package qlearning

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/dupo2/MDP-LD3/agent"
	"github.com/dupo2/MDP-LD3/agent/linear/policy"
	"github.com/dupo2/MDP-LD3/environment"
	"github.com/dupo2/MDP-LD3/timestep"
	"github.com/dupo2/MDP-LD3/utils/matutils/initializers/weights"
)

// QLearning implements the Q-Learning algorithm. Actions selected by
// this algorithm are always enumerated as (0, 1, 2, ..., N) where N is
// the maximum possible action.
type QLearning struct {
	agent.Learner
	agent.Policy

	learner   *QLearner
	behaviour *policy.EGreedy
	seed      uint64
}

// New creates a new QLearning agent on env. The init argument
// determines how the weights are initialized, and seed drives the
// behaviour policy's exploration.
func New(env environment.Environment, config Config,
	init weights.Initializer, seed uint64) (*QLearning, error) {
	// Ensure environment has discrete, 0-enumerated actions
	if env.ActionSpec().Cardinality != environment.Discrete {
		return nil, fmt.Errorf("qlearning: cannot use non-discrete actions")
	}
	if env.ActionSpec().LowerBound.Len() > 1 {
		return nil, fmt.Errorf("qlearning: actions must be 1-dimensional")
	}
	if env.ActionSpec().LowerBound.AtVec(0) != 0.0 {
		return nil, fmt.Errorf("qlearning: actions must be enumerated " +
			"starting from 0")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	behaviour, err := policy.NewEGreedy(config.Epsilon, seed, env)
	if err != nil {
		return nil, fmt.Errorf("qlearning: invalid behaviour policy: %v",
			err)
	}

	// The learner adjusts the same weights the behaviour policy reads
	w := behaviour.Weights()[policy.WeightsKey]
	init.Initialize(w)

	learner, err := NewQLearner(w, config.LearningRate)
	if err != nil {
		return nil, fmt.Errorf("qlearning: invalid learner: %v", err)
	}

	return &QLearning{
		Learner:   learner,
		Policy:    behaviour,
		learner:   learner,
		behaviour: behaviour,
		seed:      seed,
	}, nil
}

// Epsilon returns the exploration rate of the behaviour policy
func (q *QLearning) Epsilon() float64 {
	return q.behaviour.Epsilon()
}

// SetEpsilon sets the exploration rate of the behaviour policy
func (q *QLearning) SetEpsilon(e float64) {
	q.behaviour.SetEpsilon(e)
}

// LearningRate returns the learner's step size
func (q *QLearning) LearningRate() float64 {
	return q.learner.LearningRate()
}

// SetLearningRate sets the learner's step size
func (q *QLearning) SetLearningRate(learningRate float64) {
	q.learner.SetLearningRate(learningRate)
}

// Save serializes the learned weights to filename as an ordered list of
// per-action weight vectors
func (q *QLearning) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create %v: %w", filename, err)
	}
	defer file.Close()

	w := q.behaviour.Weights()[policy.WeightsKey]
	actions, features := w.Dims()

	rows := make([][]float64, actions)
	for a := 0; a < actions; a++ {
		rows[a] = make([]float64, features)
		copy(rows[a], w.RawRowView(a))
	}

	if err := gob.NewEncoder(file).Encode(rows); err != nil {
		return fmt.Errorf("save: could not encode weights: %w", err)
	}
	return nil
}

// Load restores weights previously written by Save into the agent.
// The weights are copied in place, so the policy and learner keep
// referring to the same storage. Loading weights of a different shape
// than the agent's is an error.
func (q *QLearning) Load(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("load: could not open %v: %w", filename, err)
	}
	defer file.Close()

	var rows [][]float64
	if err := gob.NewDecoder(file).Decode(&rows); err != nil {
		return fmt.Errorf("load: could not decode weights: %w", err)
	}

	w := q.behaviour.Weights()[policy.WeightsKey]
	actions, features := w.Dims()
	if len(rows) != actions {
		return fmt.Errorf("load: have %d actions, want %d", len(rows),
			actions)
	}
	for a, row := range rows {
		if len(row) != features {
			return fmt.Errorf("load: action %d has %d features, want %d",
				a, len(row), features)
		}
		w.SetRow(a, row)
	}
	return nil
}

// TdError returns the TD error of a transition under the current
// weights
func (q *QLearning) TdError(t timestep.Transition) float64 {
	return q.learner.TdError(t)
}
