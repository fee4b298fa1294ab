package storeroom

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/dupo2/MDP-LD3/timestep"
)

// Collect represents the task of collecting every item in a storeroom.
// Each step costs StepCost. Collecting an item adds ItemReward, and
// collecting the final item additionally adds TerminalBonus and ends the
// episode. An attempted move off the grid or into an obstacle adds
// InvalidMovePenalty on top of the step cost.
type Collect struct {
	layout *Layout

	stepCost           float64
	itemReward         float64
	terminalBonus      float64
	invalidMovePenalty float64
}

// NewCollect creates the item-collection task on layout with the reward
// constants from config
func NewCollect(layout *Layout, config Config) *Collect {
	return &Collect{
		layout:             layout,
		stepCost:           config.StepCost,
		itemReward:         config.ItemReward,
		terminalBonus:      config.TerminalBonus,
		invalidMovePenalty: config.InvalidMovePenalty,
	}
}

// GetReward returns the reward for taking action a on timestep t. The
// action must be the executed action, after any slip has been resolved,
// so that the reward always reflects the movement that actually occurred.
func (c *Collect) GetReward(t timestep.TimeStep, a mat.Vector) float64 {
	position, remaining := splitObservation(t.Observation)
	next, moved := c.layout.Move(position, Action(a.AtVec(0)))

	reward := c.stepCost
	if !moved {
		return reward + c.invalidMovePenalty
	}

	for i, cell := range c.layout.items {
		if cell != next || !remaining[i] {
			continue
		}
		reward += c.itemReward
		if countRemaining(remaining) == 1 {
			reward += c.terminalBonus // that was the last item
		}
		break
	}
	return reward
}

// AtGoal returns whether every item in state has been collected
func (c *Collect) AtGoal(state mat.Matrix) bool {
	obs, ok := state.(mat.Vector)
	if !ok {
		panic(fmt.Sprintf("atgoal: expected vector state, got %T", state))
	}

	_, remaining := splitObservation(obs)
	return countRemaining(remaining) == 0
}

// Min returns the minimum attainable single-step reward
func (c *Collect) Min() float64 {
	return floats.Min(c.stepRewards())
}

// Max returns the maximum attainable single-step reward
func (c *Collect) Max() float64 {
	return floats.Max(c.stepRewards())
}

func (c *Collect) stepRewards() []float64 {
	return []float64{
		c.stepCost,
		c.stepCost + c.invalidMovePenalty,
		c.stepCost + c.itemReward,
		c.stepCost + c.itemReward + c.terminalBonus,
	}
}

// splitObservation unpacks a raw storeroom observation into the agent
// position and the per-item remaining flags
func splitObservation(obs mat.Vector) (Cell, []bool) {
	position := Cell{int(obs.AtVec(0)), int(obs.AtVec(1))}

	remaining := make([]bool, obs.Len()-2)
	for i := range remaining {
		remaining[i] = obs.AtVec(i+2) != 0.0
	}
	return position, remaining
}

func countRemaining(remaining []bool) int {
	n := 0
	for _, r := range remaining {
		if r {
			n++
		}
	}
	return n
}
