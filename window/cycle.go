package window

import "github.com/robmorgan/onbeat/timing"

// State is the position of the song relative to the outer acceptance window.
type State int

const (
	Outside State = iota
	Inside
)

func (s State) String() string {
	if s == Inside {
		return "inside"
	}
	return "outside"
}

// Verdict is the scoring state of a cycle. A cycle receives at most one verdict.
type Verdict int

const (
	Pending Verdict = iota
	Succeeded
	MissRecorded
)

func (v Verdict) String() string {
	switch v {
	case Succeeded:
		return "succeeded"
	case MissRecorded:
		return "miss"
	default:
		return "pending"
	}
}

// MissReason tells apart the two ways a cycle can be missed.
type MissReason int

const (
	// NoInput: the window closed without any action.
	NoInput MissReason = iota
	// WrongTiming: an action arrived outside the outer window.
	WrongTiming
)

func (r MissReason) String() string {
	if r == WrongTiming {
		return "wrong timing"
	}
	return "no input"
}

// Cycle is the span between one re-anchoring of the window and the next.
type Cycle struct {
	// Number increases by one for every new cycle.
	Number int64

	// EndTime is the song position at which an acted cycle rolls over.
	EndTime float64

	// NextBeatStartTime is the song position the following cycle is anchored on.
	NextBeatStartTime float64

	// Entered is set once the song position enters the outer window during this cycle.
	Entered bool

	// Acted is set when an action was accepted in this cycle.
	Acted bool

	Verdict Verdict

	// Tier is set when Verdict is Succeeded.
	Tier timing.Tier

	// First is true for the first cycle after a reset. Misses are not recorded for it.
	First bool
}
