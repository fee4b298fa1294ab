package render

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"

	"github.com/dupo2/MDP-LD3/environment/storeroom"
)

// Image renders storeroom snapshots to consecutively numbered PNG
// frames: obstacles as filled squares, remaining items as circles, and
// the agent as a larger filled circle.
type Image struct {
	source   Snapshotter
	dir      string
	cellSize int
	frame    int
}

// NewImage creates an Image renderer writing frames of source into dir,
// drawing each grid cell cellSize pixels wide
func NewImage(source Snapshotter, dir string, cellSize int) (*Image,
	error) {
	if cellSize < 1 {
		return nil, fmt.Errorf("image: cell size %d < 1", cellSize)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("image: could not create %v: %w", dir, err)
	}

	return &Image{source: source, dir: dir, cellSize: cellSize}, nil
}

// Render draws the current snapshot of the source to the next PNG frame
func (i *Image) Render() error {
	snap := i.source.Snapshot()
	cell := float64(i.cellSize)

	dc := gg.NewContext(snap.Cols*i.cellSize, snap.Rows*i.cellSize)

	// Background
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// Obstacles
	dc.SetRGB(0.35, 0.35, 0.35)
	for _, o := range snap.Obstacles {
		dc.DrawRectangle(float64(o.Col)*cell, float64(o.Row)*cell, cell,
			cell)
		dc.Fill()
	}

	// Remaining items
	dc.SetRGB(0.1, 0.6, 0.2)
	for _, item := range snap.Remaining {
		dc.DrawCircle(center(item.Col, cell), center(item.Row, cell),
			cell/4)
		dc.Fill()
	}

	// Agent
	dc.SetRGB(0.8, 0.15, 0.15)
	dc.DrawCircle(center(snap.Position.Col, cell),
		center(snap.Position.Row, cell), cell/3)
	dc.Fill()

	// Grid lines
	dc.SetRGB(0.75, 0.75, 0.75)
	dc.SetLineWidth(1)
	for row := 0; row <= snap.Rows; row++ {
		y := float64(row) * cell
		dc.DrawLine(0, y, float64(snap.Cols)*cell, y)
	}
	for col := 0; col <= snap.Cols; col++ {
		x := float64(col) * cell
		dc.DrawLine(x, 0, x, float64(snap.Rows)*cell)
	}
	dc.Stroke()

	name := fmt.Sprintf("frame-%06d.png", i.frame)
	i.frame++
	return dc.SavePNG(filepath.Join(i.dir, name))
}

func center(index int, cell float64) float64 {
	return float64(index)*cell + cell/2
}

var _ Snapshotter = (*storeroom.Storeroom)(nil)
