// Package experiment implements functionality for running an experiment
package experiment

import (
	"fmt"
	"math"

	"github.com/dupo2/MDP-LD3/experiment/tracker"
)

// Experiment outlines structs that can run experiments. An Experiment
// drives the episode loop of an agent on an environment, reports one
// Outcome per finished episode to its registered trackers, and saves
// all tracked data to disk through Save() once the run has finished.
type Experiment interface {
	// Run runs all episodes until the episode budget is exhausted or
	// the experiment is stopped
	Run() error

	// RunEpisode runs a single training episode
	RunEpisode() (tracker.Outcome, error)

	// Save all tracked data to disk
	Save()
}

// Config represents a configuration of an experiment. Decay factors
// are applied multiplicatively between episodes; a factor of 1 holds
// the value constant.
type Config struct {
	// Episodes is the training episode budget
	Episodes int

	// MaxEpisodeSteps cuts off episodes that have not reached a
	// terminal state. A cutoff is a normal outcome, reported with
	// Success = false, not an error.
	MaxEpisodeSteps int

	EpsilonDecay float64
	EpsilonFloor float64

	LearningRateDecay float64
	LearningRateFloor float64
}

// NewConfig returns a Config running the argument number of episodes
// with no decay schedules
func NewConfig(episodes, maxEpisodeSteps int) Config {
	return Config{
		Episodes:          episodes,
		MaxEpisodeSteps:   maxEpisodeSteps,
		EpsilonDecay:      1.0,
		EpsilonFloor:      0.0,
		LearningRateDecay: 1.0,
		LearningRateFloor: 0.0,
	}
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	if c.Episodes < 1 {
		return fmt.Errorf("experiment: episode budget %d < 1", c.Episodes)
	}
	if c.MaxEpisodeSteps < 1 {
		return fmt.Errorf("experiment: max episode steps %d < 1",
			c.MaxEpisodeSteps)
	}
	for name, decay := range map[string]float64{
		"epsilon":       c.EpsilonDecay,
		"learning rate": c.LearningRateDecay,
	} {
		if decay <= 0.0 || decay > 1.0 || math.IsNaN(decay) {
			return fmt.Errorf("experiment: %v decay %v not in (0, 1]", name,
				decay)
		}
	}
	for name, floor := range map[string]float64{
		"epsilon":       c.EpsilonFloor,
		"learning rate": c.LearningRateFloor,
	} {
		if floor < 0.0 || math.IsNaN(floor) || math.IsInf(floor, 0) {
			return fmt.Errorf("experiment: %v floor %v < 0", name, floor)
		}
	}
	return nil
}
