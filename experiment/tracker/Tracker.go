// Package tracker defines the metrics sinks that experiments report to
package tracker

import (
	"encoding/gob"
	"log"
	"os"

	ts "github.com/dupo2/MDP-LD3/timestep"
)

// Tracker keeps track of experiment data and saves the data after the
// experiment has finished. Trackers are read-only observers: nothing a
// Tracker does can affect the environment or the agent.
type Tracker interface {
	Track(t ts.TimeStep)
	Save()
}

// Outcome is the episode-level record an experiment emits once per
// episode. Success distinguishes episodes that collected every item
// from episodes cut off by the step budget.
type Outcome struct {
	Return  float64
	Steps   int
	Success bool
	Epsilon float64
}

// OutcomeTracker is a Tracker that additionally receives the Outcome of
// each finished episode
type OutcomeTracker interface {
	Tracker
	TrackOutcome(o Outcome)
}

// LoadData loads and returns the data saved by a Tracker
func LoadData(filename string) []float64 {
	// Open file
	file, err := os.Open(filename)
	if err != nil {
		log.Fatalf("could not open data file: %v", err)
	}
	defer file.Close()

	// Create the decoder and the variable to store the data in
	dec := gob.NewDecoder(file)
	var data []float64

	// Decode the data
	err = dec.Decode(&data)
	if err != nil {
		log.Fatalf("could not decode data: %v", err)
	}

	return data
}
