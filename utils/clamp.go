package utils

import "golang.org/x/exp/constraints"

// Clamp limits t to the interval [min, max]. The bounds may be given in either order.
func Clamp[T constraints.Integer | constraints.Float](t, min, max T) T {
	if min > max {
		min, max = max, min
	}
	if t < min {
		return min
	}
	if t > max {
		return max
	}
	return t
}

// Abs returns the absolute value of t.
func Abs[T constraints.Signed | constraints.Float](t T) T {
	if t < 0 {
		return -t
	}
	return t
}
