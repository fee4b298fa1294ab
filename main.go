package main

import (
	"fmt"
	"log"

	"github.com/dupo2/MDP-LD3/agent/linear/qlearning"
	"github.com/dupo2/MDP-LD3/environment/storeroom"
	"github.com/dupo2/MDP-LD3/environment/wrappers"
	"github.com/dupo2/MDP-LD3/experiment"
	"github.com/dupo2/MDP-LD3/experiment/checkpointer"
	"github.com/dupo2/MDP-LD3/experiment/trackers"
	"github.com/dupo2/MDP-LD3/render"
	"github.com/dupo2/MDP-LD3/utils/matutils/initializers/weights"
)

func main() {
	var seed uint64 = 192382

	// A 6x6 storage room with a wall segment, a second smaller
	// obstruction, and three items to collect
	obstacles := []storeroom.Cell{
		{Row: 1, Col: 1}, {Row: 2, Col: 1}, {Row: 3, Col: 1},
		{Row: 1, Col: 4}, {Row: 2, Col: 4},
	}
	items := []storeroom.Cell{
		{Row: 0, Col: 5}, {Row: 5, Col: 0}, {Row: 4, Col: 3},
	}
	config := storeroom.NewConfig(6, 6, obstacles, items,
		storeroom.Cell{Row: 0, Col: 0}, 0.95)

	room, _, err := storeroom.New(config, seed)
	if err != nil {
		log.Fatal(err)
	}

	// Encode raw storeroom observations as feature vectors
	env, _ := wrappers.NewItemFeatures(room)

	// Create the learning algorithm with zero-initialized weights
	args := qlearning.Config{Epsilon: 1.0, LearningRate: 0.05}
	init := weights.NewLinearUV(weights.NewZeroUV())
	q, err := qlearning.New(env, args, init, seed)
	if err != nil {
		log.Fatal(err)
	}

	// Experiment: 2000 episodes with epsilon decaying to a floor
	expConfig := experiment.NewConfig(2000, 200)
	expConfig.EpsilonDecay = 0.995
	expConfig.EpsilonFloor = 0.05

	outcomes := trackers.NewOutcomes("./outcomes.bin")
	returns := trackers.NewReturn("./returns.bin")
	e, err := experiment.NewOnline(env, q, expConfig, outcomes, returns)
	if err != nil {
		log.Fatal(err)
	}

	e.RegisterCheckpointer(checkpointer.NewNEpisode(500, q,
		checkpointer.FilenameEnumerator(0, "./weights-", ".bin")))
	e.ShowProgress()

	if err := e.Run(); err != nil {
		log.Fatal(err)
	}
	e.Save()
	if err := q.Save("./weights.bin"); err != nil {
		log.Fatal(err)
	}

	// Visualize the learned greedy path
	frames, err := render.NewImage(room, "./frames", 48)
	if err != nil {
		log.Fatal(err)
	}
	e.RegisterRenderer(frames)

	final, err := e.Evaluate()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("greedy episode: return %.1f over %d steps (success: %v)\n",
		final.Return, final.Steps, final.Success)

	data := trackers.LoadOutcomes("./outcomes.bin")
	last := data[len(data)-1]
	fmt.Printf("final training episode: return %.1f over %d steps "+
		"(epsilon %.3f)\n", last.Return, last.Steps, last.Epsilon)
}
