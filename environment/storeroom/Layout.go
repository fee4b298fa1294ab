package storeroom

import (
	"fmt"
)

// Cell is a single (row, column) coordinate on the storeroom grid
type Cell struct {
	Row, Col int
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d, %d)", c.Row, c.Col)
}

// Action is one of the four cardinal moves available in the storeroom
type Action int

const (
	Up Action = iota
	Down
	Left
	Right
)

// NumActions is the number of discrete actions in the storeroom
const NumActions int = 4

func (a Action) String() string {
	switch a {
	case Up:
		return "Up"
	case Down:
		return "Down"
	case Left:
		return "Left"
	case Right:
		return "Right"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// perpendicular returns the two actions perpendicular to a. Used when
// resolving action slip.
func (a Action) perpendicular() [2]Action {
	switch a {
	case Up, Down:
		return [2]Action{Left, Right}
	default:
		return [2]Action{Up, Down}
	}
}

// Default reward constants for the Collect task
const (
	DefaultStepCost           float64 = -1.0
	DefaultItemReward         float64 = 10.0
	DefaultTerminalBonus      float64 = 50.0
	DefaultInvalidMovePenalty float64 = -1.0
)

// Config fully describes a storeroom: its geometry, its reward scheme,
// and its episode dynamics. A Config is validated once, before any
// training begins.
type Config struct {
	Rows, Cols int
	Obstacles  []Cell
	Items      []Cell
	Start      Cell

	// RandomStart selects a uniformly random free cell at each reset
	// instead of Start
	RandomStart bool

	// SlipProb is the probability that an executed action is a random
	// perpendicular of the requested one. Zero gives a deterministic
	// environment.
	SlipProb float64

	Discount float64

	StepCost           float64
	ItemReward         float64
	TerminalBonus      float64
	InvalidMovePenalty float64
}

// NewConfig returns a Config with the default reward constants and a
// deterministic start at start
func NewConfig(rows, cols int, obstacles, items []Cell, start Cell,
	discount float64) Config {
	return Config{
		Rows:               rows,
		Cols:               cols,
		Obstacles:          obstacles,
		Items:              items,
		Start:              start,
		Discount:           discount,
		StepCost:           DefaultStepCost,
		ItemReward:         DefaultItemReward,
		TerminalBonus:      DefaultTerminalBonus,
		InvalidMovePenalty: DefaultInvalidMovePenalty,
	}
}

// Validate ensures that the Config describes a well-formed storeroom
func (c Config) Validate() error {
	if c.Rows < 1 || c.Cols < 1 {
		return fmt.Errorf("storeroom: invalid dimensions (%d, %d)", c.Rows,
			c.Cols)
	}
	if len(c.Items) == 0 {
		return fmt.Errorf("storeroom: at least one item is required")
	}
	if c.SlipProb < 0.0 || c.SlipProb > 1.0 {
		return fmt.Errorf("storeroom: slip probability %v not in [0, 1]",
			c.SlipProb)
	}
	if c.Discount < 0.0 || c.Discount >= 1.0 {
		return fmt.Errorf("storeroom: discount %v not in [0, 1)", c.Discount)
	}

	inBounds := func(cell Cell) bool {
		return cell.Row >= 0 && cell.Row < c.Rows &&
			cell.Col >= 0 && cell.Col < c.Cols
	}

	obstructed := make(map[Cell]bool, len(c.Obstacles))
	for _, cell := range c.Obstacles {
		if !inBounds(cell) {
			return fmt.Errorf("storeroom: obstacle %v outside %dx%d grid",
				cell, c.Rows, c.Cols)
		}
		obstructed[cell] = true
	}

	seen := make(map[Cell]bool, len(c.Items))
	for _, cell := range c.Items {
		if !inBounds(cell) {
			return fmt.Errorf("storeroom: item %v outside %dx%d grid", cell,
				c.Rows, c.Cols)
		}
		if obstructed[cell] {
			return fmt.Errorf("storeroom: item %v overlaps an obstacle", cell)
		}
		if seen[cell] {
			return fmt.Errorf("storeroom: duplicate item cell %v", cell)
		}
		seen[cell] = true
	}

	if !c.RandomStart {
		if !inBounds(c.Start) {
			return fmt.Errorf("storeroom: start %v outside %dx%d grid",
				c.Start, c.Rows, c.Cols)
		}
		if obstructed[c.Start] {
			return fmt.Errorf("storeroom: start %v overlaps an obstacle",
				c.Start)
		}
		if seen[c.Start] {
			return fmt.Errorf("storeroom: start %v overlaps an item", c.Start)
		}
	}
	return nil
}

// Layout is the static map of a storeroom. It is immutable once
// constructed, so a single Layout is safely shared by the environment,
// its task, and any feature encoders.
type Layout struct {
	rows, cols int
	obstacles  map[Cell]bool
	items      []Cell
	start      Cell

	dists map[[2]Cell]int // memoized BFS path distances
}

// NewLayout validates config and constructs the static map it describes
func NewLayout(config Config) (*Layout, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	obstacles := make(map[Cell]bool, len(config.Obstacles))
	for _, cell := range config.Obstacles {
		obstacles[cell] = true
	}

	items := make([]Cell, len(config.Items))
	copy(items, config.Items)

	return &Layout{
		rows:      config.Rows,
		cols:      config.Cols,
		obstacles: obstacles,
		items:     items,
		start:     config.Start,
		dists:     make(map[[2]Cell]int),
	}, nil
}

// Dims returns the rows and columns of the Layout
func (l *Layout) Dims() (rows, cols int) {
	return l.rows, l.cols
}

// Contains returns whether cell lies on the grid
func (l *Layout) Contains(cell Cell) bool {
	return cell.Row >= 0 && cell.Row < l.rows &&
		cell.Col >= 0 && cell.Col < l.cols
}

// Obstructed returns whether cell holds an obstacle
func (l *Layout) Obstructed(cell Cell) bool {
	return l.obstacles[cell]
}

// Items returns the cells at which items are initially placed. The i'th
// cell corresponds to the i'th bit of the environment observation.
func (l *Layout) Items() []Cell {
	items := make([]Cell, len(l.items))
	copy(items, l.items)
	return items
}

// Start returns the configured deterministic start cell
func (l *Layout) Start() Cell {
	return l.start
}

// FreeCells returns every cell that is neither an obstacle nor an item
// cell. These are the cells eligible as randomized start positions.
func (l *Layout) FreeCells() []Cell {
	itemCells := make(map[Cell]bool, len(l.items))
	for _, cell := range l.items {
		itemCells[cell] = true
	}

	var free []Cell
	for row := 0; row < l.rows; row++ {
		for col := 0; col < l.cols; col++ {
			cell := Cell{row, col}
			if !l.obstacles[cell] && !itemCells[cell] {
				free = append(free, cell)
			}
		}
	}
	return free
}

// Move applies action a to the position from, returning the resulting
// position and whether the agent actually moved. Moves off the grid or
// into an obstacle leave the position unchanged.
func (l *Layout) Move(from Cell, a Action) (Cell, bool) {
	to := from
	switch a {
	case Up:
		to.Row--
	case Down:
		to.Row++
	case Left:
		to.Col--
	case Right:
		to.Col++
	}

	if !l.Contains(to) || l.obstacles[to] {
		return from, false
	}
	return to, true
}

// PathDistance returns the length of the shortest obstacle-respecting
// path between two cells, or -1 if no such path exists. Distances are
// memoized, since the same queries recur on every feature encoding.
func (l *Layout) PathDistance(from, to Cell) int {
	key := [2]Cell{from, to}
	if from.Row > to.Row || (from.Row == to.Row && from.Col > to.Col) {
		key = [2]Cell{to, from} // distance is symmetric
	}
	if d, ok := l.dists[key]; ok {
		return d
	}

	d := l.bfs(from, to)
	l.dists[key] = d
	return d
}

func (l *Layout) bfs(from, to Cell) int {
	if from == to {
		return 0
	}

	type node struct {
		cell Cell
		dist int
	}

	queue := []node{{from, 0}}
	visited := map[Cell]bool{from: true}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for a := Up; a <= Right; a++ {
			next, moved := l.Move(current.cell, a)
			if !moved || visited[next] {
				continue
			}
			if next == to {
				return current.dist + 1
			}
			visited[next] = true
			queue = append(queue, node{next, current.dist + 1})
		}
	}
	return -1
}
