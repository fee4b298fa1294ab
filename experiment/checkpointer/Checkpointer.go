// Package checkpointer implements periodic saving of learned state
// during an experiment
package checkpointer

// Serializable is an object whose learned state can be saved to a file
type Serializable interface {
	Save(filename string) error
}

// Checkpointer saves serializable objects at episode boundaries
type Checkpointer interface {
	Checkpoint(episode int) error
}
