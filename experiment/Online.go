package experiment

import (
	"sync"

	"github.com/dupo2/MDP-LD3/agent"
	env "github.com/dupo2/MDP-LD3/environment"
	"github.com/dupo2/MDP-LD3/experiment/checkpointer"
	"github.com/dupo2/MDP-LD3/experiment/tracker"
	"github.com/dupo2/MDP-LD3/render"
	ts "github.com/dupo2/MDP-LD3/timestep"
	"github.com/dupo2/MDP-LD3/utils/floatutils"
	"github.com/dupo2/MDP-LD3/utils/progressbar"
)

// Online is an Experiment that trains an agent online: every transition
// updates the agent as soon as it is generated. Execution is strictly
// sequential; each step fully completes its select-step-update cycle
// before the next one begins.
//
// Between episodes Online applies the configured epsilon and learning
// rate decay schedules, reports the episode Outcome to its trackers,
// invokes any registered renderers, and checkpoints any registered
// serializable objects. A stop signal is polled once per episode, so a
// run can be cancelled between episodes but never mid-step.
type Online struct {
	env.Environment
	agent.Agent
	config Config
	ender  env.StepLimit

	trackers      []tracker.Tracker
	renderers     []render.Renderer
	checkpointers []checkpointer.Checkpointer
	bar           *progressbar.ProgressBar

	stop     chan struct{}
	stopOnce sync.Once
}

// NewOnline creates and returns a new online experiment of an agent on
// an environment. The config is validated here, before any training
// begins.
func NewOnline(e env.Environment, a agent.Agent, config Config,
	trackers ...tracker.Tracker) (*Online, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Online{
		Environment: e,
		Agent:       a,
		config:      config,
		ender:       env.NewStepLimit(config.MaxEpisodeSteps),
		trackers:    trackers,
		stop:        make(chan struct{}),
	}, nil
}

// Register registers a tracker.Tracker with the experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RegisterRenderer registers a render sink invoked at every episode
// boundary (and at every step of an evaluation episode)
func (o *Online) RegisterRenderer(r render.Renderer) {
	o.renderers = append(o.renderers, r)
}

// RegisterCheckpointer registers a checkpointer invoked after every
// episode
func (o *Online) RegisterCheckpointer(c checkpointer.Checkpointer) {
	o.checkpointers = append(o.checkpointers, c)
}

// ShowProgress makes Run display a terminal progress bar over the
// episode budget
func (o *Online) ShowProgress() {
	o.bar = progressbar.New(50, o.config.Episodes)
}

// Stop requests that the experiment stop at the next episode boundary.
// Stop is safe to call from other goroutines and more than once.
func (o *Online) Stop() {
	o.stopOnce.Do(func() { close(o.stop) })
}

// RunEpisode runs a single training episode, returning its Outcome.
// Episodes that exhaust the step budget terminate normally with
// Success = false; only usage bugs and numeric divergence produce
// errors.
func (o *Online) RunEpisode() (tracker.Outcome, error) {
	step := o.Environment.Reset()
	if err := o.Agent.ObserveFirst(step); err != nil {
		return tracker.Outcome{}, err
	}
	o.track(step)

	var episodeReturn float64
	success := false

	for {
		// Select action, step in environment
		action := o.Agent.SelectAction(step)
		next, done, err := o.Environment.Step(action)
		if err != nil {
			return tracker.Outcome{}, err
		}
		episodeReturn += next.Reward

		// Observe the timestep and update the agent. The update
		// happens before any step-budget cutoff is applied, so a
		// cutoff transition still bootstraps from the next state.
		if err := o.Agent.Observe(action, next); err != nil {
			return tracker.Outcome{}, err
		}
		if err := o.Agent.Step(); err != nil {
			return tracker.Outcome{}, err
		}

		if done {
			success = true
		} else {
			o.ender.End(&next)
		}

		o.track(next)
		step = next
		if step.Last() {
			break
		}
	}
	o.Agent.EndEpisode()

	outcome := tracker.Outcome{
		Return:  episodeReturn,
		Steps:   step.Number,
		Success: success,
		Epsilon: o.epsilon(),
	}
	o.trackOutcome(outcome)

	return outcome, o.render()
}

// Run runs the entire experiment for all episodes in the budget,
// applying the decay schedules between episodes
func (o *Online) Run() error {
	for episode := 1; episode <= o.config.Episodes; episode++ {
		select {
		case <-o.stop:
			return nil
		default:
		}

		if _, err := o.RunEpisode(); err != nil {
			return err
		}
		o.decay()

		for _, c := range o.checkpointers {
			if err := c.Checkpoint(episode); err != nil {
				return err
			}
		}

		if o.bar != nil {
			o.bar.Increment()
			o.bar.Display()
		}
	}
	return nil
}

// Evaluate runs a single greedy episode without learning: exploration
// is turned off and no weight updates occur. Registered renderers are
// invoked after every step, so the learned path can be visualized.
func (o *Online) Evaluate() (tracker.Outcome, error) {
	o.Agent.Eval()
	defer o.Agent.Train()

	step := o.Environment.Reset()
	if err := o.render(); err != nil {
		return tracker.Outcome{}, err
	}

	var episodeReturn float64
	success := false

	for {
		action := o.Agent.SelectAction(step)
		next, done, err := o.Environment.Step(action)
		if err != nil {
			return tracker.Outcome{}, err
		}
		episodeReturn += next.Reward

		if err := o.render(); err != nil {
			return tracker.Outcome{}, err
		}

		if done {
			success = true
		} else {
			o.ender.End(&next)
		}

		step = next
		if step.Last() {
			break
		}
	}

	return tracker.Outcome{
		Return:  episodeReturn,
		Steps:   step.Number,
		Success: success,
		Epsilon: 0.0,
	}, nil
}

// Save saves all the data cached by the trackers to disk
func (o *Online) Save() {
	for _, t := range o.trackers {
		t.Save()
	}
}

// track tracks the current timestep by caching its data in each tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tr := range o.trackers {
		tr.Track(t)
	}
}

// trackOutcome sends a finished episode's outcome to each tracker that
// consumes outcomes
func (o *Online) trackOutcome(outcome tracker.Outcome) {
	for _, tr := range o.trackers {
		if ot, ok := tr.(tracker.OutcomeTracker); ok {
			ot.TrackOutcome(outcome)
		}
	}
}

func (o *Online) render() error {
	for _, r := range o.renderers {
		if err := r.Render(); err != nil {
			return err
		}
	}
	return nil
}

// decay applies the epsilon and learning rate decay schedules between
// episodes, when the agent supports them
func (o *Online) decay() {
	if eg, ok := o.Agent.(agent.EGreedyPolicy); ok {
		eg.SetEpsilon(floatutils.Max(o.config.EpsilonFloor,
			eg.Epsilon()*o.config.EpsilonDecay))
	}
	if ss, ok := o.Agent.(agent.StepSizer); ok {
		ss.SetLearningRate(floatutils.Max(o.config.LearningRateFloor,
			ss.LearningRate()*o.config.LearningRateDecay))
	}
}

// epsilon reports the agent's current exploration rate for outcome
// records, or 0 if the agent's policy is not ε-greedy
func (o *Online) epsilon() float64 {
	if eg, ok := o.Agent.(agent.EGreedyPolicy); ok {
		return eg.Epsilon()
	}
	return 0.0
}
