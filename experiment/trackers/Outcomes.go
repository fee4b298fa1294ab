package trackers

import (
	"encoding/gob"
	"log"
	"os"

	"github.com/dupo2/MDP-LD3/experiment/tracker"
	"github.com/dupo2/MDP-LD3/timestep"
)

// Outcomes tracks and saves the per-episode outcome records of an
// experiment: return, step count, success flag, and the exploration
// rate in force during the episode. The saved data is what learning
// curves are plotted from.
type Outcomes struct {
	outcomes []tracker.Outcome
	filename string
}

// NewOutcomes returns a new Outcomes tracker which will save its data
// at the specified location filename
func NewOutcomes(filename string) *Outcomes {
	return &Outcomes{filename: filename}
}

// Track is a no-op: Outcomes consumes episode-level records, not
// timesteps
func (o *Outcomes) Track(timestep.TimeStep) {}

// TrackOutcome caches the outcome of a finished episode
func (o *Outcomes) TrackOutcome(outcome tracker.Outcome) {
	o.outcomes = append(o.outcomes, outcome)
}

// Save saves the data tracked by the Outcomes Tracker to disk
func (o *Outcomes) Save() {
	file, err := os.Create(o.filename)
	if err != nil {
		log.Fatalf("could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err = en.Encode(o.outcomes); err != nil {
		log.Fatalf("could not encode outcome data: %v", err)
	}
}

// LoadOutcomes loads and returns the records saved by an Outcomes
// tracker
func LoadOutcomes(filename string) []tracker.Outcome {
	file, err := os.Open(filename)
	if err != nil {
		log.Fatalf("could not open data file: %v", err)
	}
	defer file.Close()

	var outcomes []tracker.Outcome
	if err := gob.NewDecoder(file).Decode(&outcomes); err != nil {
		log.Fatalf("could not decode outcome data: %v", err)
	}

	return outcomes
}
