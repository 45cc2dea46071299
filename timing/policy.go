package timing

import (
	"fmt"
	"math"

	"github.com/robmorgan/onbeat/rhythm"
	"golang.org/x/exp/slices"
)

// Policy classifies song positions against an ordered list of timing windows. It has no state
// besides its windows, so Evaluate always returns the same result for the same snapshot.
type Policy struct {
	windows []Window
}

// NewPolicy validates the windows and orders them ascending by half-width.
func NewPolicy(windows []Window) (*Policy, error) {
	if len(windows) == 0 {
		return nil, rhythm.ConfigurationError{Field: "windows", Reason: "at least one timing window is required"}
	}

	ws := slices.Clone(windows)
	for _, w := range ws {
		if !w.Tier.IsHit() {
			return nil, rhythm.ConfigurationError{Field: "windows", Reason: fmt.Sprintf("tier %q cannot be used for a window", w.Tier)}
		}
		if math.IsNaN(w.HalfWidth) || w.HalfWidth <= 0 || w.HalfWidth >= 0.5 {
			return nil, rhythm.ConfigurationError{Field: "windows", Reason: fmt.Sprintf("half-width of %s must be within (0, 0.5), got %v", w.Tier, w.HalfWidth)}
		}
	}
	slices.SortStableFunc(ws, func(a, b Window) bool { return a.HalfWidth < b.HalfWidth })
	for i := 1; i < len(ws); i++ {
		if ws[i].HalfWidth == ws[i-1].HalfWidth {
			return nil, rhythm.ConfigurationError{Field: "windows", Reason: fmt.Sprintf("%s and %s share the half-width %v", ws[i-1].Tier, ws[i].Tier, ws[i].HalfWidth)}
		}
	}

	return &Policy{windows: ws}, nil
}

// Windows returns a copy of the windows, narrowest first.
func (p *Policy) Windows() []Window {
	return slices.Clone(p.windows)
}

// OuterHalfWidth returns the half-width of the widest window, the outer acceptance boundary.
func (p *Policy) OuterHalfWidth() float64 {
	return p.windows[len(p.windows)-1].HalfWidth
}

// Classify returns the tier of the narrowest window containing accuracy, or Miss.
func (p *Policy) Classify(accuracy float64) Tier {
	abs := math.Abs(accuracy)
	for _, w := range p.windows {
		if abs <= w.HalfWidth {
			return w.Tier
		}
	}
	return Miss
}

// Evaluate computes the accuracy of a snapshot and classifies it.
func (p *Policy) Evaluate(s rhythm.Snapshot) Result {
	accuracy := s.DistanceFromBeat()
	return Result{Accuracy: accuracy, Tier: p.Classify(accuracy)}
}

// IsInWindow reports whether the snapshot lies inside the outer acceptance window.
func (p *Policy) IsInWindow(s rhythm.Snapshot) bool {
	return math.Abs(s.DistanceFromBeat()) <= p.OuterHalfWidth()
}

// WindowCloseTime returns the song position at which the outer window around beat closes.
func (p *Policy) WindowCloseTime(s rhythm.Snapshot, beat int64) float64 {
	return s.GetTimeOfBeat(beat) + p.OuterHalfWidth()*s.BeatInterval
}

// WindowOpenTime returns the song position at which the outer window around beat opens.
func (p *Policy) WindowOpenTime(s rhythm.Snapshot, beat int64) float64 {
	return s.GetTimeOfBeat(beat) - p.OuterHalfWidth()*s.BeatInterval
}
