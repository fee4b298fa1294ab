// Package policy implements policies using linear function
// approximation
package policy

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/dupo2/MDP-LD3/environment"
	"github.com/dupo2/MDP-LD3/timestep"
	"github.com/dupo2/MDP-LD3/utils/matutils"
)

const (
	// Keys for weights map: map[string]*mat.Dense
	WeightsKey string = "weights"
)

// EGreedy implements an ε-greedy policy using linear function
// approximation. In evaluation mode the policy is fully greedy,
// regardless of its ε.
type EGreedy struct {
	weights *mat.Dense
	epsilon float64
	source  rand.Source
	eval    bool
}

// NewEGreedy constructs a new EGreedy policy, where e=epsilon is the
// probability with which a random action is selected. The weight matrix
// is laid out with one row per environmental action and one column per
// observation feature.
func NewEGreedy(e float64, seed uint64,
	env environment.Environment) (*EGreedy, error) {
	if e < 0.0 || e > 1.0 {
		return nil, fmt.Errorf("egreedy: epsilon %v not in [0, 1]", e)
	}

	// Ensure actions are discrete and 1-dimensional
	if env.ActionSpec().Cardinality != environment.Discrete {
		return nil, fmt.Errorf("egreedy: actions must be discrete")
	}
	if env.ActionSpec().Shape.Len() != 1 {
		return nil, fmt.Errorf("egreedy: actions must be 1-dimensional")
	}

	actions := int(env.ActionSpec().UpperBound.AtVec(0)) + 1
	features := env.ObservationSpec().Shape.Len()
	weights := mat.NewDense(actions, features, nil)

	return &EGreedy{
		weights: weights,
		epsilon: e,
		source:  rand.NewSource(seed),
	}, nil
}

// Weights gets and returns the weights of the EGreedy policy as a
// map of string descriptions -> weights
func (p *EGreedy) Weights() map[string]*mat.Dense {
	weights := make(map[string]*mat.Dense)
	weights[WeightsKey] = p.weights

	return weights
}

// SetWeights sets the weight pointers to point to a new set of weights.
// SetWeights can take the output of a call to Weights() on another
// EGreedy policy directly.
func (p *EGreedy) SetWeights(weights map[string]*mat.Dense) error {
	newWeights, ok := weights[WeightsKey]
	if !ok {
		return fmt.Errorf("setweights: no weights named %q", WeightsKey)
	}

	p.weights = newWeights
	return nil
}

// SelectAction selects an action from an ε-greedy policy. In evaluation
// mode, or with ε = 0, the greedy action is returned, with ties broken
// toward the lowest action index.
func (p *EGreedy) SelectAction(t timestep.TimeStep) *mat.VecDense {
	actionValues := p.actionValues(t.Observation)
	greedyAction := matutils.MaxVec(actionValues)

	if p.eval || p.epsilon == 0.0 {
		return mat.NewVecDense(1, []float64{float64(greedyAction)})
	}

	// The ε probability of choosing any action at random
	numActions := actionValues.Len()
	prob := p.epsilon / float64(numActions)
	actionProbabilities := make([]float64, numActions)
	for i := range actionProbabilities {
		actionProbabilities[i] = prob
	}
	actionProbabilities[greedyAction] += 1.0 - p.epsilon

	// Sample an action from the categorical distribution over actions
	dist := distuv.NewCategorical(actionProbabilities, p.source)
	return mat.NewVecDense(1, []float64{dist.Rand()})
}

// GreedyAction returns the greedy action for timestep t and its
// estimated value. Ties break toward the lowest action index.
func (p *EGreedy) GreedyAction(t timestep.TimeStep) (int, float64) {
	actionValues := p.actionValues(t.Observation)
	action := matutils.MaxVec(actionValues)
	return action, actionValues.AtVec(action)
}

// Epsilon returns the policy's exploration rate
func (p *EGreedy) Epsilon() float64 {
	return p.epsilon
}

// SetEpsilon sets the policy's exploration rate
func (p *EGreedy) SetEpsilon(e float64) {
	p.epsilon = e
}

// Eval sets the policy to evaluation mode
func (p *EGreedy) Eval() {
	p.eval = true
}

// Train sets the policy to training mode
func (p *EGreedy) Train() {
	p.eval = false
}

// IsEval indicates whether the policy is in evaluation mode
func (p *EGreedy) IsEval() bool {
	return p.eval
}

func (p *EGreedy) actionValues(obs mat.Vector) *mat.VecDense {
	numActions, _ := p.weights.Dims()
	actionValues := mat.NewVecDense(numActions, nil)
	actionValues.MulVec(p.weights, obs)
	return actionValues
}
