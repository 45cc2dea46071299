package rhythm

import "math"

// Snapshot captures the state of a BeatClock at one instant. Everything that happens within a tick
// reads the same snapshot so that window transitions and input handling agree about "now".
type Snapshot struct {
	// SongPosition is the number of seconds since song position zero.
	SongPosition float64

	// BeatIndex is floor(SongPosition / BeatInterval).
	BeatIndex int64

	// BeatInterval is the length of a beat in seconds.
	BeatInterval float64

	// Tempo is the clock's tempo in beats per minute.
	Tempo float64

	// Playing is false while the clock is stopped or paused.
	Playing bool
}

// Beats returns the song position expressed in beats.
func (s Snapshot) Beats() float64 {
	if s.BeatInterval <= 0 {
		return 0
	}
	return s.SongPosition / s.BeatInterval
}

// BeatPhase returns the fractional position within the current beat, in [0, 1).
func (s Snapshot) BeatPhase() float64 {
	beats := s.Beats()
	return beats - math.Floor(beats)
}

// DistanceFromBeat returns the signed offset from the nearest beat, in beats, within (-0.5, 0.5].
// Negative values are early (before the beat), positive values are late.
func (s Snapshot) DistanceFromBeat() float64 {
	p := s.BeatPhase()
	if p > 0.5 {
		return p - 1
	}
	return p
}

// GetTimeOfBeat returns the song position at which the given beat occurs.
func (s Snapshot) GetTimeOfBeat(beat int64) float64 {
	return float64(beat) * s.BeatInterval
}

// NearestBeat returns the index of the beat DistanceFromBeat is measured against.
func (s Snapshot) NearestBeat() int64 {
	if s.BeatPhase() > 0.5 {
		return s.BeatIndex + 1
	}
	return s.BeatIndex
}
