package input

// Intent is a discrete direction detected on an edge of the continuous signal.
type Intent struct {
	Direction Direction

	// Timestamp is the song position at which the intent was detected.
	Timestamp float64
}

// Decision is what the arbiter did with the signal of one tick.
type Decision int

const (
	// NoIntent: the discrete direction did not change to a new non-None value.
	NoIntent Decision = iota
	// Forward: the intent should be handed to the window tracker.
	Forward
	// Cooldown: an intent arrived before the minimum inter-input interval elapsed.
	Cooldown
)

func (d Decision) String() string {
	switch d {
	case Forward:
		return "forward"
	case Cooldown:
		return "cooldown"
	default:
		return "no intent"
	}
}

// Arbiter edge-detects a continuous direction signal into discrete intents and enforces a
// minimum interval between forwarded intents.
type Arbiter struct {
	Deadzone    float64
	MinInterval float64

	last        Direction
	nextAllowed float64
}

// NewArbiter creates an arbiter with the given deadzone and minimum interval in seconds.
func NewArbiter(deadzone, minInterval float64) *Arbiter {
	return &Arbiter{Deadzone: deadzone, MinInterval: minInterval}
}

// OnRawDirection is called once per tick with the latest signal and song position.
func (a *Arbiter) OnRawDirection(v Vector, now float64) (Intent, Decision) {
	dir := Discretize(v, a.Deadzone)
	changed := dir != None && dir != a.last
	a.last = dir
	if !changed {
		return Intent{}, NoIntent
	}

	intent := Intent{Direction: dir, Timestamp: now}
	if now < a.nextAllowed {
		return intent, Cooldown
	}
	a.nextAllowed = now + a.MinInterval
	return intent, Forward
}

// NextAllowedInputTime returns the song position from which a new intent is forwarded.
func (a *Arbiter) NextAllowedInputTime() float64 {
	return a.nextAllowed
}

// Reset forgets the held direction and the cooldown, e.g. after a restart.
func (a *Arbiter) Reset() {
	a.last = None
	a.nextAllowed = 0
}
