package input

import "github.com/robmorgan/onbeat/utils"

// Direction is a discrete movement intent.
type Direction int

const (
	None Direction = iota
	Up
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "none"
	}
}

// ParseDirection maps a name as printed by String back to a Direction.
func ParseDirection(name string) (Direction, bool) {
	for _, d := range []Direction{None, Up, Down, Left, Right} {
		if d.String() == name {
			return d, true
		}
	}
	return None, false
}

// Delta returns the grid step of the direction. Y grows upwards.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, 1
	case Down:
		return 0, -1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// Vector is a continuous two-axis direction signal, each axis within [-1, 1].
type Vector struct {
	X, Y float64
}

// Discretize picks the axis with the larger magnitude. Ties and magnitudes below the deadzone
// resolve to None.
func Discretize(v Vector, deadzone float64) Direction {
	ax, ay := utils.Abs(v.X), utils.Abs(v.Y)
	if ax == ay {
		return None
	}
	if ax > ay {
		if ax < deadzone {
			return None
		}
		if v.X > 0 {
			return Right
		}
		return Left
	}
	if ay < deadzone {
		return None
	}
	if v.Y > 0 {
		return Up
	}
	return Down
}
