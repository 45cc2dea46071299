package window

import (
	"github.com/robmorgan/onbeat/logger"
	"github.com/robmorgan/onbeat/rhythm"
	"github.com/robmorgan/onbeat/timing"
	"github.com/sirupsen/logrus"
)

// Recorder receives the verdicts of the tracker.
type Recorder interface {
	Hit(tier timing.Tier, accuracy float64)
	Miss(reason MissReason)
}

// OutcomeKind describes what an attempted action resolved to.
type OutcomeKind int

const (
	// Rejected: the action was ignored and did not change the cycle.
	Rejected OutcomeKind = iota
	// TimingMiss: the action was outside the outer window.
	TimingMiss
	// EarlyHit: inside the window, before the nominal beat.
	EarlyHit
	// LateHit: inside the window, at or after the nominal beat.
	LateHit
)

func (k OutcomeKind) String() string {
	switch k {
	case TimingMiss:
		return "timing miss"
	case EarlyHit:
		return "early hit"
	case LateHit:
		return "late hit"
	default:
		return "rejected"
	}
}

// RejectReason explains a Rejected outcome.
type RejectReason int

const (
	NotRejected RejectReason = iota
	AlreadyActed
	NotPlaying
)

// Outcome is the result of Attempt.
type Outcome struct {
	Kind   OutcomeKind
	Reason RejectReason
	Result timing.Result

	// Counted is false when a miss was swallowed by first-cycle suppression.
	Counted bool

	// CycleEndTime is the song position at which the acted cycle rolls over.
	CycleEndTime float64
}

// IsHit reports whether the action scored a hit tier.
func (o Outcome) IsHit() bool {
	return o.Kind == EarlyHit || o.Kind == LateHit
}

// TickResult lists the transitions one Tick went through.
type TickResult struct {
	RolledOver bool
	Entered    bool
	Exited     bool
	Missed     bool

	// Skipped counts the windows that opened and closed between this tick and the previous one.
	Skipped int
}

// Tracker follows the song position in and out of the outer window and gives every cycle
// exactly one verdict. It is not safe for concurrent use.
type Tracker struct {
	policy   *timing.Policy
	recorder Recorder
	state    State
	cycle    Cycle

	// lastWindow is the beat of the last window entered. Windows up to it are done.
	lastWindow int64

	onCycleEnd []func(Cycle)
}

// NewTracker creates a tracker reset to the start of a song.
func NewTracker(policy *timing.Policy, recorder Recorder) *Tracker {
	t := &Tracker{policy: policy, recorder: recorder}
	t.Reset(rhythm.Snapshot{})
	return t
}

// OnCycleEnd registers fn to receive every cycle as it is replaced by the next one.
func (t *Tracker) OnCycleEnd(fn func(Cycle)) {
	t.onCycleEnd = append(t.onCycleEnd, fn)
}

// SetPolicy swaps the timing windows used for the following ticks.
func (t *Tracker) SetPolicy(policy *timing.Policy) {
	t.policy = policy
}

// State returns whether the last tick was inside the outer window.
func (t *Tracker) State() State {
	return t.state
}

// Cycle returns a copy of the live cycle.
func (t *Tracker) Cycle() Cycle {
	return t.cycle
}

// Reset reinitializes the tracker: outside the window, a fresh first cycle anchored on the close
// of the first nominal beat at or after s.
func (t *Tracker) Reset(s rhythm.Snapshot) {
	beat := s.BeatIndex
	if s.BeatInterval > 0 && s.SongPosition > t.policy.WindowCloseTime(s, beat) {
		beat++
	}
	anchor := t.policy.WindowCloseTime(s, beat)

	t.state = Outside
	t.lastWindow = beat - 1
	t.cycle = Cycle{
		Number:            t.cycle.Number + 1,
		EndTime:           anchor,
		NextBeatStartTime: anchor,
		First:             true,
	}
}

// Tick evaluates the rollover and window transitions for one snapshot. Windows passed since the
// previous tick are replayed in order, so a long tick still gives each of them a verdict. A
// stopped clock suspends all transitions.
func (t *Tracker) Tick(s rhythm.Snapshot) TickResult {
	var res TickResult
	if !s.Playing {
		return res
	}

	in := t.policy.IsInWindow(s)
	current := s.NearestBeat()
	for {
		if t.state == Inside {
			if in && current == t.lastWindow {
				break
			}
			closed := t.policy.WindowCloseTime(s, t.lastWindow)
			res.RolledOver = t.rolloverBefore(closed) || res.RolledOver
			t.state = Outside
			res.Exited = true
			if t.exit(s, t.lastWindow) {
				res.Missed = true
			}
			continue
		}

		next := t.lastWindow + 1
		if (in && current == next) || s.SongPosition <= t.policy.WindowCloseTime(s, next) {
			break
		}
		res.RolledOver = t.rolloverBefore(t.policy.WindowOpenTime(s, next)) || res.RolledOver
		t.enter(next)
		res.Skipped++
	}
	if res.Skipped > 0 {
		t.log(s).WithField("windows", res.Skipped).Warn("tick stepped over whole timing windows")
	}

	res.RolledOver = t.rolloverBefore(s.SongPosition) || res.RolledOver

	if t.state == Outside && in && current > t.lastWindow {
		t.enter(current)
		res.Entered = true
	}
	return res
}

func (t *Tracker) enter(beat int64) {
	t.state = Inside
	t.lastWindow = beat
	t.cycle.Entered = true
}

// rolloverBefore starts a fresh cycle if the acted cycle ended at or before position.
func (t *Tracker) rolloverBefore(position float64) bool {
	if !t.cycle.Acted || t.cycle.EndTime > position {
		return false
	}
	next := t.cycle.NextBeatStartTime
	if next == 0 {
		next = position
	}
	t.begin(next)
	return true
}

// Attempt resolves an action at s. It is accepted at most once per cycle.
func (t *Tracker) Attempt(s rhythm.Snapshot) Outcome {
	if !s.Playing {
		return Outcome{Kind: Rejected, Reason: NotPlaying}
	}
	c := &t.cycle
	if c.Acted {
		return Outcome{Kind: Rejected, Reason: AlreadyActed, CycleEndTime: c.EndTime}
	}

	res := t.policy.Evaluate(s)
	c.Acted = true

	if !res.Tier.IsHit() {
		anchor := t.policy.WindowCloseTime(s, s.BeatIndex+1)
		c.Verdict = MissRecorded
		c.EndTime = anchor
		c.NextBeatStartTime = anchor
		counted := !c.First
		if counted {
			t.recorder.Miss(WrongTiming)
		}
		t.log(s).WithFields(logrus.Fields{"accuracy": res.Accuracy, "counted": counted}).Debug("action outside window")
		return Outcome{Kind: TimingMiss, Result: res, Counted: counted, CycleEndTime: anchor}
	}

	kind := LateHit
	end := s.SongPosition
	if res.Accuracy < 0 {
		kind = EarlyHit
		end = s.GetTimeOfBeat(s.NearestBeat())
	}
	c.Verdict = Succeeded
	c.Tier = res.Tier
	c.EndTime = end
	c.NextBeatStartTime = end
	t.recorder.Hit(res.Tier, res.Accuracy)

	t.log(s).WithFields(logrus.Fields{"accuracy": res.Accuracy, "tier": res.Tier, "kind": kind}).Debug("action inside window")
	return Outcome{Kind: kind, Result: res, Counted: true, CycleEndTime: end}
}

// exit handles leaving the outer window around beat and reports whether a no-input miss was
// recorded.
func (t *Tracker) exit(s rhythm.Snapshot, beat int64) bool {
	c := &t.cycle
	anchor := t.policy.WindowCloseTime(s, beat+1)

	if c.First {
		// an acted first cycle ends at its rollover
		if !c.Acted {
			t.begin(anchor)
		}
		return false
	}
	if !c.Entered || c.Verdict != Pending {
		return false
	}

	c.Verdict = MissRecorded
	t.recorder.Miss(NoInput)
	t.log(s).WithField("next_anchor", anchor).Debug("window closed without input")
	t.begin(anchor)
	return true
}

func (t *Tracker) begin(anchor float64) {
	ended := t.cycle
	t.cycle = Cycle{
		Number:            ended.Number + 1,
		EndTime:           anchor,
		NextBeatStartTime: anchor,
	}
	for _, fn := range t.onCycleEnd {
		fn(ended)
	}
}

func (t *Tracker) log(s rhythm.Snapshot) *logrus.Entry {
	return logger.GetProjectLogger().WithFields(logrus.Fields{
		"cycle":    t.cycle.Number,
		"position": s.SongPosition,
		"beat":     s.BeatIndex,
	})
}
