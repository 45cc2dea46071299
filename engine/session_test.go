package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/fogleman/ease"
	"github.com/robmorgan/onbeat/config"
	"github.com/robmorgan/onbeat/feedback"
	"github.com/robmorgan/onbeat/input"
	"github.com/robmorgan/onbeat/movement"
	"github.com/robmorgan/onbeat/rhythm"
	"github.com/robmorgan/onbeat/timing"
	"github.com/robmorgan/onbeat/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

type scriptedInput struct {
	state InputState
	polls int
}

func (i *scriptedInput) Poll() InputState {
	i.polls++
	st := i.state
	i.state.Toggle = false
	return st
}

func vector(dir input.Direction) input.Vector {
	dx, dy := dir.Delta()
	return input.Vector{X: float64(dx), Y: float64(dy)}
}

type harness struct {
	t     *testing.T
	clk   *clocktesting.FakeClock
	in    *scriptedInput
	mover *movement.Executor
	fb    *feedback.Recorder
	s     *Session
	ms    int
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}

	grid, err := movement.NewGrid(9, 9, movement.Cell{X: 4, Y: 3})
	require.NoError(t, err)
	mover, err := movement.NewExecutor(grid, movement.Cell{X: 4, Y: 4}, ease.Linear, 0.1)
	require.NoError(t, err)

	h := &harness{
		t:     t,
		clk:   clocktesting.NewFakeClock(time.Unix(1000, 0)),
		in:    &scriptedInput{},
		mover: mover,
		fb:    &feedback.Recorder{},
	}
	h.s, err = New(cfg, Deps{Clock: h.clk, Input: h.in, Mover: h.mover, Feedback: h.fb})
	require.NoError(t, err)
	h.s.Start()
	return h
}

// advanceTo ticks once per millisecond of song time up to ms and returns the last report.
func (h *harness) advanceTo(ms int) TickReport {
	var rep TickReport
	for h.ms < ms {
		h.clk.Step(time.Millisecond)
		h.ms++
		var err error
		rep, err = h.s.Tick()
		require.NoError(h.t, err)
	}
	return rep
}

// pressAt holds dir for the single tick at ms.
func (h *harness) pressAt(ms int, dir input.Direction) TickReport {
	h.advanceTo(ms - 1)
	h.in.state.Direction = vector(dir)
	rep := h.advanceTo(ms)
	h.in.state.Direction = input.Vector{}
	return rep
}

func TestNewRequiresCollaborators(t *testing.T) {
	t.Parallel()

	clk := clocktesting.NewFakeClock(time.Unix(0, 0))
	in := &scriptedInput{}
	fb := &feedback.Recorder{}
	grid, err := movement.NewGrid(1, 1)
	require.NoError(t, err)
	mover, err := movement.NewExecutor(grid, movement.Cell{}, ease.Linear, 0)
	require.NoError(t, err)

	testCases := []struct {
		name string
		deps Deps
	}{
		{"clock source", Deps{Input: in, Mover: mover, Feedback: fb}},
		{"input source", Deps{Clock: clk, Mover: mover, Feedback: fb}},
		{"movement executor", Deps{Clock: clk, Input: in, Feedback: fb}},
		{"feedback sink", Deps{Clock: clk, Input: in, Mover: mover}},
	}

	for _, testCase := range testCases {
		_, err := New(config.Default(), testCase.deps)
		var werr WiringError
		require.True(t, errors.As(err, &werr), "expected a wiring error, got %v", err)
		assert.Equal(t, testCase.name, werr.Collaborator)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.BPM = 0
	_, err := New(cfg, Deps{
		Clock:    clocktesting.NewFakeClock(time.Unix(0, 0)),
		Input:    &scriptedInput{},
		Mover:    &movement.Executor{},
		Feedback: &feedback.Recorder{},
	})
	var cerr rhythm.ConfigurationError
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, "bpm", cerr.Field)
}

func TestOnBeatHitMovesPlayer(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	var hits, evaluated []timing.Tier
	h.s.OnHit(func(tier timing.Tier) {
		hits = append(hits, tier)
		// notifications arrive after the tick released the session
		require.Equal(t, 1, h.s.Stats().Hits)
	})
	h.s.OnTimingEvaluated(func(tier timing.Tier) { evaluated = append(evaluated, tier) })

	rep := h.pressAt(500, input.Up)
	require.Equal(t, input.Forward, rep.Decision)
	require.Equal(t, window.LateHit, rep.Outcome.Kind)
	require.Equal(t, timing.Perfect, rep.Outcome.Result.Tier)
	require.True(t, rep.Moved)
	require.Equal(t, movement.Succeeded, rep.Move)
	require.Equal(t, movement.Cell{X: 4, Y: 5}, h.mover.Position())

	require.Equal(t, []timing.Tier{timing.Perfect}, hits)
	require.Equal(t, []timing.Tier{timing.Perfect}, evaluated)
	require.Equal(t, []string{"Perfect"}, h.fb.Texts())

	report := h.s.Stats()
	require.Equal(t, 1, report.Hits)
	require.Equal(t, 0, report.Misses)
	require.Equal(t, 100.0, report.Accuracy)
}

func TestBlockedMoveStillScores(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	rep := h.pressAt(500, input.Down) // (4,3) is blocked
	require.True(t, rep.Outcome.IsHit())
	require.Equal(t, movement.Blocked, rep.Move)
	require.Equal(t, movement.Cell{X: 4, Y: 4}, h.mover.Position())
	require.Equal(t, []string{"Perfect", TextBlocked}, h.fb.Texts())
	require.Equal(t, 1, h.s.Stats().Hits)
}

func TestMissedBeat(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	var misses []window.MissReason
	h.s.OnMiss(func(reason window.MissReason) { misses = append(misses, reason) })

	// the first window closes at 75ms without a miss
	h.advanceTo(400)
	require.Empty(t, misses)

	h.advanceTo(600)
	require.Equal(t, []window.MissReason{window.NoInput}, misses)
	require.Equal(t, []string{TextMissedBeat}, h.fb.Texts())
	require.Equal(t, 1, h.s.Stats().Misses)
	require.InDelta(t, 1.075, h.s.Cycle().EndTime, 1e-9)
}

func TestStalledTickStillRecordsMiss(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.advanceTo(400)

	// one late tick jumps over the whole window around beat 1
	h.clk.Step(300 * time.Millisecond)
	h.ms += 300
	rep, err := h.s.Tick()
	require.NoError(t, err)
	require.Equal(t, 1, rep.Window.Skipped)
	require.True(t, rep.Window.Missed)
	require.Equal(t, 1, h.s.Stats().Misses)

	h.advanceTo(1100)
	require.Equal(t, 2, h.s.Stats().Misses)
}

func TestTimingWrongAndAlreadyMoved(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(c *config.Config) { c.MinInputInterval = 0 })

	rep := h.pressAt(420, input.Up)
	require.Equal(t, window.TimingMiss, rep.Outcome.Kind)
	require.False(t, rep.Moved)

	rep = h.pressAt(450, input.Left)
	require.Equal(t, input.Forward, rep.Decision)
	require.Equal(t, window.Rejected, rep.Outcome.Kind)
	require.Equal(t, window.AlreadyActed, rep.Outcome.Reason)
	require.False(t, rep.Moved)

	h.advanceTo(700)
	require.Equal(t, []string{TextTimingWrong, TextAlreadyMoved}, h.fb.Texts())
	require.Equal(t, 1, h.s.Stats().Misses)
	require.Equal(t, 0, h.s.Stats().Hits)
}

func TestCooldownDoesNotTouchCycle(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.pressAt(500, input.Up)
	h.advanceTo(520)
	before := h.s.Cycle()

	rep := h.pressAt(550, input.Right)
	require.Equal(t, input.Cooldown, rep.Decision)
	require.False(t, rep.Moved)
	require.Equal(t, before, h.s.Cycle())
	require.Equal(t, []string{"Perfect", TextTooFast}, h.fb.Texts())
	require.Equal(t, 1, h.s.Stats().Hits)
}

func TestFreeMoveWithoutRhythm(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.in.state.Toggle = true
	h.advanceTo(1)
	require.False(t, h.s.RhythmRequired())

	rep := h.pressAt(300, input.Left)
	require.True(t, rep.Moved)
	require.Equal(t, window.Outcome{}, rep.Outcome)
	require.Equal(t, movement.Cell{X: 3, Y: 4}, h.mover.Position())

	h.advanceTo(2000)
	require.Equal(t, 0, h.s.Stats().Hits+h.s.Stats().Misses)

	// back on: the first cycle is suppressed again
	h.in.state.Toggle = true
	h.advanceTo(2001)
	require.True(t, h.s.RhythmRequired())
	require.True(t, h.s.Cycle().First)

	h.advanceTo(2500)
	require.Equal(t, 0, h.s.Stats().Misses)
	h.advanceTo(2600)
	require.Equal(t, 1, h.s.Stats().Misses)
	require.Equal(t, []string{TextRhythmOff, TextRhythmOn, TextMissedBeat}, h.fb.Texts())
}

func TestStopSuspendsMisses(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.advanceTo(100)
	cycle := h.s.Cycle()
	h.s.Stop()

	h.advanceTo(5000)
	require.Equal(t, 0, h.s.Stats().Misses)
	require.Equal(t, cycle, h.s.Cycle())
	require.InDelta(t, 0.1, h.s.Snapshot().SongPosition, 1e-9)

	// an intent while stopped is ignored
	rep := h.pressAt(5100, input.Up)
	require.Equal(t, input.NoIntent, rep.Decision)
}

func TestBeatBoundaryNotifications(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	var beats []int64
	cancel := h.s.OnBeatBoundary(func(beat int64) { beats = append(beats, beat) })

	h.advanceTo(2000)
	require.Equal(t, []int64{1, 2, 3, 4}, beats)

	cancel()
	h.advanceTo(3000)
	require.Len(t, beats, 4)
}

func TestPauseResumeKeepsPosition(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.advanceTo(300)
	h.s.Pause()
	h.advanceTo(1300)
	require.InDelta(t, 0.3, h.s.Snapshot().SongPosition, 1e-9)

	h.s.Resume()
	h.advanceTo(1400)
	require.InDelta(t, 0.4, h.s.Snapshot().SongPosition, 1e-9)
	require.Equal(t, 0, h.s.Stats().Misses)
}

func TestRestartClearsStats(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.pressAt(500, input.Up)
	h.advanceTo(1200)
	require.Equal(t, 1, h.s.Stats().Hits)

	h.s.Restart()
	require.Equal(t, 0, h.s.Stats().Hits+h.s.Stats().Misses)
	require.Equal(t, 0.0, h.s.Snapshot().SongPosition)
	require.True(t, h.s.Cycle().First)

	// the cooldown is measured from the new song position zero
	rep := h.pressAt(h.ms+500, input.Up)
	require.Equal(t, input.Forward, rep.Decision)
	require.True(t, rep.Outcome.IsHit())
}

func TestApplyConfig(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.advanceTo(1000)

	cfg := config.Default()
	cfg.BPM = 60
	cfg.MinInputInterval = 0.3
	require.NoError(t, h.s.ApplyConfig(cfg))

	snap := h.s.Snapshot()
	require.Equal(t, 1.0, snap.BeatInterval)
	require.Equal(t, int64(2), snap.BeatIndex)
	require.True(t, h.s.Cycle().First)
	require.Equal(t, 60.0, h.s.Tempo())

	bad := cfg
	bad.Windows = nil
	var cerr rhythm.ConfigurationError
	require.True(t, errors.As(h.s.ApplyConfig(bad), &cerr))
	require.Equal(t, 1.0, h.s.Snapshot().BeatInterval)
	require.Equal(t, 60.0, h.s.Tempo())
}
