package movement

import (
	"fmt"

	"github.com/fogleman/ease"
	"github.com/robmorgan/onbeat/effect"
	"github.com/robmorgan/onbeat/input"
	"github.com/robmorgan/onbeat/logger"
	"github.com/sirupsen/logrus"
)

// Result is the outcome of a move attempt. Both values count as a response to the beat.
type Result int

const (
	Succeeded Result = iota
	Blocked
)

func (r Result) String() string {
	if r == Blocked {
		return "blocked"
	}
	return "succeeded"
}

// Executor moves a player one cell at a time on a grid, with an eased per-tick progress value
// between the previous and the current cell.
type Executor struct {
	grid     *Grid
	curve    ease.Function
	duration float64

	from   Cell
	pos    Cell
	motion *effect.Effect
}

// NewExecutor places a player on start. Each move is eased by curve over duration seconds.
func NewExecutor(grid *Grid, start Cell, curve ease.Function, duration float64) (*Executor, error) {
	if !grid.Walkable(start) {
		return nil, fmt.Errorf("start cell %s is not walkable", start)
	}
	return &Executor{
		grid:     grid,
		curve:    curve,
		duration: duration,
		from:     start,
		pos:      start,
	}, nil
}

// AttemptMove moves one cell in dir. A move still in flight is completed first.
func (e *Executor) AttemptMove(dir input.Direction) Result {
	target := e.pos.Step(dir)
	if dir == input.None || !e.grid.Walkable(target) {
		logger.GetProjectLogger().WithFields(logrus.Fields{"from": e.pos, "direction": dir}).Debug("move blocked")
		return Blocked
	}

	e.from = e.pos
	e.pos = target
	e.motion = effect.NewEffect(e.curve, e.duration)
	return Succeeded
}

// Update advances the move in flight by dt seconds and returns its progress in [0,1].
func (e *Executor) Update(dt float64) float64 {
	if e.motion == nil {
		return 1
	}
	p := e.motion.Update(dt)
	if e.motion.Done() {
		e.motion = nil
		e.from = e.pos
	}
	return p
}

// Moving reports whether a move is in flight.
func (e *Executor) Moving() bool {
	return e.motion != nil
}

// Position returns the cell the player occupies, or is moving to.
func (e *Executor) Position() Cell {
	return e.pos
}

// Rendered returns the interpolated position of the player.
func (e *Executor) Rendered() (x, y float64) {
	p := 1.0
	if e.motion != nil {
		p = e.motion.Value()
	}
	x = float64(e.from.X) + float64(e.pos.X-e.from.X)*p
	y = float64(e.from.Y) + float64(e.pos.Y-e.from.Y)*p
	return x, y
}
