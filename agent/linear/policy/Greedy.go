package policy

import "github.com/dupo2/MDP-LD3/environment"

// NewGreedy creates a new Greedy policy
func NewGreedy(seed uint64, env environment.Environment) (*EGreedy, error) {
	return NewEGreedy(0.0, seed, env)
}
