package movement

import (
	"fmt"

	"github.com/robmorgan/onbeat/input"
)

// Cell is a position on the grid.
type Cell struct {
	X int
	Y int
}

// Step returns the neighbouring cell in direction dir.
func (c Cell) Step(dir input.Direction) Cell {
	dx, dy := dir.Delta()
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Grid is a bounded board with blocked cells.
type Grid struct {
	Width   int
	Height  int
	Blocked map[Cell]struct{}
}

// NewGrid creates a width by height grid.
func NewGrid(width, height int, blocked ...Cell) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid size must be positive, got %dx%d", width, height)
	}
	g := &Grid{
		Width:   width,
		Height:  height,
		Blocked: make(map[Cell]struct{}),
	}
	for _, c := range blocked {
		if err := g.Block(c); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Block marks c as not walkable.
func (g *Grid) Block(c Cell) error {
	if !g.Contains(c) {
		return fmt.Errorf("the grid does not contain the cell: %s", c)
	}
	g.Blocked[c] = struct{}{}
	return nil
}

// Contains returns true if c lies within the grid bounds
func (g *Grid) Contains(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.Width && c.Y < g.Height
}

// Walkable returns true if c is inside the grid and not blocked
func (g *Grid) Walkable(c Cell) bool {
	if !g.Contains(c) {
		return false
	}
	_, blocked := g.Blocked[c]
	return !blocked
}
