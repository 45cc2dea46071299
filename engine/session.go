package engine

import (
	"sync"
	"time"

	"github.com/robmorgan/onbeat/config"
	"github.com/robmorgan/onbeat/feedback"
	"github.com/robmorgan/onbeat/input"
	"github.com/robmorgan/onbeat/logger"
	"github.com/robmorgan/onbeat/movement"
	"github.com/robmorgan/onbeat/notify"
	"github.com/robmorgan/onbeat/rhythm"
	"github.com/robmorgan/onbeat/stats"
	"github.com/robmorgan/onbeat/timing"
	"github.com/robmorgan/onbeat/window"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// Feedback texts shown to the player.
const (
	TextTimingWrong  = "timing wrong"
	TextMissedBeat   = "missed beat"
	TextTooFast      = "too fast"
	TextAlreadyMoved = "already moved"
	TextBlocked      = "blocked"
	TextRhythmOn     = "rhythm on"
	TextRhythmOff    = "free move"
)

// InputState is the input of one tick.
type InputState struct {
	// Direction is the continuous direction signal.
	Direction input.Vector

	// Toggle is true on the tick the rhythm-required toggle was pressed.
	Toggle bool
}

// InputSource is polled once per tick.
type InputSource interface {
	Poll() InputState
}

// Mover executes the moves of the player.
type Mover interface {
	AttemptMove(dir input.Direction) movement.Result
}

// animator is implemented by movers that interpolate a move over several ticks.
type animator interface {
	Update(dt float64) float64
}

// Deps are the collaborators of a session. All of them are required.
type Deps struct {
	Clock    clock.PassiveClock
	Input    InputSource
	Mover    Mover
	Feedback feedback.Sink
}

// TickReport describes what happened during one tick.
type TickReport struct {
	Snapshot rhythm.Snapshot
	Window   window.TickResult
	Decision input.Decision
	Intent   input.Intent
	Outcome  window.Outcome

	// Moved is true when the mover was asked to move, Move holds its result.
	Moved bool
	Move  movement.Result
}

// Session runs the timing core. Every tick is one atomic step: the clock is read once, then the
// beat clock, the window tracker, the input arbiter and the stats are updated in that order.
// Notifications are delivered after the tick completes, on the goroutine that called Tick.
type Session struct {
	mu sync.Mutex

	cfg      config.Config
	clock    clock.PassiveClock
	input    InputSource
	mover    Mover
	feedback feedback.Sink

	beat    *rhythm.BeatClock
	tracker *window.Tracker
	arbiter *input.Arbiter
	stats   *stats.Aggregator

	rhythmRequired bool
	lastTick       time.Time
	pending        []func()

	beats     notify.List[int64]
	evaluated notify.List[timing.Tier]
	hits      notify.List[timing.Tier]
	misses    notify.List[window.MissReason]
}

// New wires a session. It returns a WiringError for a missing collaborator and a
// rhythm.ConfigurationError for an invalid config.
func New(cfg config.Config, deps Deps) (*Session, error) {
	log := logger.GetProjectLogger()

	for _, c := range []struct {
		name    string
		missing bool
	}{
		{"clock source", deps.Clock == nil},
		{"input source", deps.Input == nil},
		{"movement executor", deps.Mover == nil},
		{"feedback sink", deps.Feedback == nil},
	} {
		if c.missing {
			err := WiringError{Collaborator: c.name}
			log.WithError(err).Error("cannot create session")
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("cannot create session")
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:            cfg,
		clock:          deps.Clock,
		input:          deps.Input,
		mover:          deps.Mover,
		feedback:       deps.Feedback,
		beat:           rhythm.NewBeatClock(deps.Clock, cfg.BPM),
		arbiter:        input.NewArbiter(cfg.Deadzone, cfg.MinInputInterval),
		stats:          stats.NewAggregator(cfg.Tiers()...),
		rhythmRequired: cfg.RhythmRequired,
	}
	s.tracker = window.NewTracker(policy, recorder{s})
	s.tracker.OnCycleEnd(func(c window.Cycle) {
		logger.GetProjectLogger().WithFields(logrus.Fields{
			"cycle":   c.Number,
			"verdict": c.Verdict,
			"tier":    c.Tier,
			"end":     c.EndTime,
		}).Debug("cycle ended")
	})
	s.beat.OnBeatBoundary(func(beat int64) {
		logger.GetProjectLogger().WithField("beat", beat).Debug("beat boundary")
		s.queue(func() { s.beats.Emit(beat) })
	})

	log.WithFields(logrus.Fields{
		"bpm":             cfg.BPM,
		"outer_window":    policy.OuterHalfWidth(),
		"cooldown":        cfg.MinInputInterval,
		"rhythm_required": cfg.RhythmRequired,
	}).Info("session created")
	return s, nil
}

// OnBeatBoundary subscribes fn to every beat boundary crossed.
func (s *Session) OnBeatBoundary(fn func(beat int64)) (cancel func()) {
	return s.beats.Subscribe(fn)
}

// OnTimingEvaluated subscribes fn to the tier of every evaluated action, Miss included.
func (s *Session) OnTimingEvaluated(fn func(tier timing.Tier)) (cancel func()) {
	return s.evaluated.Subscribe(fn)
}

// OnHit subscribes fn to every recorded hit.
func (s *Session) OnHit(fn func(tier timing.Tier)) (cancel func()) {
	return s.hits.Subscribe(fn)
}

// OnMiss subscribes fn to every recorded miss.
func (s *Session) OnMiss(fn func(reason window.MissReason)) (cancel func()) {
	return s.misses.Subscribe(fn)
}

// Start starts the beat clock from song position zero with a fresh first cycle.
func (s *Session) Start() {
	s.lockAndFlush(func() {
		s.beat.Start()
		s.reinit()
	})
}

// Restart is Start with the stats cleared.
func (s *Session) Restart() {
	s.lockAndFlush(func() {
		s.stats.Reset()
		s.beat.Start()
		s.reinit()
	})
}

// Stop freezes the beat clock. No transitions happen until the next Start.
func (s *Session) Stop() {
	s.lockAndFlush(s.beat.Stop)
}

// Pause freezes the beat clock; Resume continues from the same song position and cycle.
func (s *Session) Pause() {
	s.lockAndFlush(s.beat.Pause)
}

func (s *Session) Resume() {
	s.lockAndFlush(func() {
		s.beat.Resume()
		s.lastTick = time.Time{}
	})
}

// ApplyConfig swaps the configuration while running. A tempo change re-initializes the tracker
// with a first cycle.
func (s *Session) ApplyConfig(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	var applyErr error
	s.lockAndFlush(func() {
		old := s.cfg
		if cfg.BPM != old.BPM {
			if applyErr = s.beat.SetTempo(cfg.BPM); applyErr != nil {
				return
			}
		}
		s.cfg = cfg
		s.tracker.SetPolicy(policy)
		s.arbiter.Deadzone = cfg.Deadzone
		s.arbiter.MinInterval = cfg.MinInputInterval
		if cfg.BPM != old.BPM {
			s.reinit()
		}
		if cfg.RhythmRequired != old.RhythmRequired {
			s.setRhythmRequired(cfg.RhythmRequired, s.beat.Snapshot())
		}
		if err := logger.SetLevel(cfg.LogLevel); err != nil {
			applyErr = err
			return
		}

		logger.GetProjectLogger().WithFields(logrus.Fields{
			"bpm":          s.beat.GetTempo(),
			"outer_window": policy.OuterHalfWidth(),
			"cooldown":     cfg.MinInputInterval,
		}).Info("configuration applied")
	})
	return applyErr
}

// Tick runs one step of the core.
func (s *Session) Tick() (TickReport, error) {
	var (
		rep TickReport
		err error
	)
	s.lockAndFlush(func() {
		rep, err = s.tick()
	})
	return rep, err
}

func (s *Session) tick() (TickReport, error) {
	now := s.clock.Now()
	snap, err := s.beat.Advance(now)
	if err != nil {
		return TickReport{}, err
	}

	dt := 0.0
	if !s.lastTick.IsZero() && snap.Playing {
		dt = now.Sub(s.lastTick).Seconds()
	}
	s.lastTick = now

	rep := TickReport{Snapshot: snap}
	if s.rhythmRequired {
		rep.Window = s.tracker.Tick(snap)
	}

	state := s.input.Poll()
	if state.Toggle {
		s.setRhythmRequired(!s.rhythmRequired, snap)
	}

	if snap.Playing {
		rep.Intent, rep.Decision = s.arbiter.OnRawDirection(state.Direction, snap.SongPosition)
		switch rep.Decision {
		case input.Cooldown:
			s.show(TextTooFast, feedback.Info)
		case input.Forward:
			s.act(snap, rep.Intent.Direction, &rep)
		}
	}

	if a, ok := s.mover.(animator); ok {
		a.Update(dt)
	}
	return rep, nil
}

// act resolves one forwarded intent.
func (s *Session) act(snap rhythm.Snapshot, dir input.Direction, rep *TickReport) {
	if !s.rhythmRequired {
		s.move(dir, rep)
		return
	}

	out := s.tracker.Attempt(snap)
	rep.Outcome = out
	if out.Kind != window.Rejected {
		tier := out.Result.Tier
		s.queue(func() { s.evaluated.Emit(tier) })
	}

	switch {
	case out.Kind == window.Rejected:
		s.show(TextAlreadyMoved, feedback.Info)
	case out.Kind == window.TimingMiss:
		s.show(TextTimingWrong, feedback.Warning)
	case out.IsHit():
		s.show(string(out.Result.Tier), feedback.Success)
		s.move(dir, rep)
	}
}

func (s *Session) move(dir input.Direction, rep *TickReport) {
	rep.Moved = true
	rep.Move = s.mover.AttemptMove(dir)
	if rep.Move == movement.Blocked {
		s.show(TextBlocked, feedback.Info)
	}
}

func (s *Session) setRhythmRequired(on bool, snap rhythm.Snapshot) {
	if on == s.rhythmRequired {
		return
	}
	s.rhythmRequired = on
	if on {
		s.tracker.Reset(snap)
		s.show(TextRhythmOn, feedback.Info)
	} else {
		s.show(TextRhythmOff, feedback.Info)
	}
	logger.GetProjectLogger().WithField("rhythm_required", on).Info("rhythm mode changed")
}

// reinit starts a fresh first cycle at the current clock state.
func (s *Session) reinit() {
	s.tracker.Reset(s.beat.Snapshot())
	s.arbiter.Reset()
	s.lastTick = time.Time{}
}

func (s *Session) show(text string, severity feedback.Severity) {
	sink, d := s.feedback, s.cfg.FeedbackTime()
	s.queue(func() { sink.Show(text, severity, d) })
}

// queue defers fn until the current tick has released the lock.
func (s *Session) queue(fn func()) {
	s.pending = append(s.pending, fn)
}

func (s *Session) lockAndFlush(fn func()) {
	s.mu.Lock()
	fn()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, p := range pending {
		p()
	}
}

// Stats returns the current counters.
func (s *Session) Stats() stats.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.Report()
}

// Tempo returns the beat clock tempo in beats per minute.
func (s *Session) Tempo() float64 {
	return s.beat.GetTempo()
}

// Snapshot returns the beat clock state without advancing it.
func (s *Session) Snapshot() rhythm.Snapshot {
	return s.beat.Snapshot()
}

// Cycle returns the live timing cycle.
func (s *Session) Cycle() window.Cycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Cycle()
}

// RhythmRequired reports whether actions are scored.
func (s *Session) RhythmRequired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rhythmRequired
}

// recorder feeds tracker verdicts into the stats and the notifications.
type recorder struct {
	s *Session
}

func (r recorder) Hit(tier timing.Tier, accuracy float64) {
	r.s.stats.RecordHit(tier)
	r.s.stats.ObserveAccuracy(accuracy)
	r.s.queue(func() { r.s.hits.Emit(tier) })
}

func (r recorder) Miss(reason window.MissReason) {
	r.s.stats.RecordMiss()
	if reason == window.NoInput {
		r.s.show(TextMissedBeat, feedback.Warning)
	}
	r.s.queue(func() { r.s.misses.Emit(reason) })
}
