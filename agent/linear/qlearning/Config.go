package qlearning

import (
	"fmt"
	"math"
)

// Config represents a configuration for the QLearning agent
type Config struct {
	Epsilon      float64 // epsilon for the behaviour policy
	LearningRate float64
}

// Validate ensures that the Config is valid. An invalid Config is a
// configuration error: it is reported before training begins and is
// never recovered from.
func (c Config) Validate() error {
	if c.Epsilon < 0.0 || c.Epsilon > 1.0 || math.IsNaN(c.Epsilon) {
		return fmt.Errorf("qlearning: epsilon %v not in [0, 1]", c.Epsilon)
	}
	if c.LearningRate <= 0.0 || c.LearningRate > 1.0 ||
		math.IsNaN(c.LearningRate) {
		return fmt.Errorf("qlearning: learning rate %v not in (0, 1]",
			c.LearningRate)
	}
	return nil
}
