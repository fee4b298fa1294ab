// Package render implements visualization sinks for storeroom
// training runs. Renderers are read-only observers: they receive
// snapshots of the episode state and can never affect training.
package render

import "github.com/dupo2/MDP-LD3/environment/storeroom"

// Renderer renders the current state of an environment
type Renderer interface {
	Render() error
}

// Snapshotter is an environment that can report a read-only snapshot
// of its episode state
type Snapshotter interface {
	Snapshot() storeroom.Snapshot
}
