package checkpointer

// nEpisode implements checkpointing every N episodes
type nEpisode struct {
	interval int
	object   Serializable // Object to save

	// filename returns the string filename of the file to save the
	// object in. Use FilenameEnumerator or FileTimer to generate
	// naming functions that keep each checkpoint in its own file.
	filename func() string
}

// NewNEpisode returns a checkpointer that saves object every n episodes
func NewNEpisode(n int, object Serializable,
	filename func() string) Checkpointer {
	return &nEpisode{
		interval: n,
		object:   object,
		filename: filename,
	}
}

// Checkpoint saves the tracked object if episode falls on the
// checkpoint interval
func (n *nEpisode) Checkpoint(episode int) error {
	if episode > 0 && episode%n.interval == 0 {
		return n.object.Save(n.filename())
	}
	return nil
}
