package rhythm

import (
	"math"
	"sync"
	"time"

	"github.com/robmorgan/onbeat/logger"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// DefaultTempo is the tempo a BeatClock starts with.
const DefaultTempo = 120.0

// BeatClock derives a monotonic song position and beat index from an external clock source.
//
// Start always realigns song position zero to "now"; a stopped clock restarted with Start begins
// again from the first beat. Pause and Resume instead preserve the elapsed song position.
type BeatClock struct {
	mu sync.Mutex

	source       clock.PassiveClock
	tempo        float64
	beatInterval float64

	originTime time.Time
	position   float64
	beatIndex  int64
	playing    bool
	paused     bool

	onBeat []func(beat int64)
}

// NewBeatClock creates a stopped BeatClock at the given tempo that reads time from source.
func NewBeatClock(source clock.PassiveClock, bpm float64) *BeatClock {
	return &BeatClock{
		source:       source,
		tempo:        bpm,
		beatInterval: secondsPerBeat(bpm),
	}
}

// OnBeatBoundary registers fn to be called once for every integer beat crossed by Advance.
func (c *BeatClock) OnBeatBoundary(fn func(beat int64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onBeat = append(c.onBeat, fn)
}

// GetTempo returns the clock's tempo in beats per minute.
func (c *BeatClock) GetTempo() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tempo
}

// GetBeatInterval returns the number of seconds a beat lasts.
func (c *BeatClock) GetBeatInterval() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beatInterval
}

// SetTempo changes the tempo. While playing, the origin is moved so that the beat and phase
// reached at the source's current time are unaffected by the change. The song position in
// seconds is rescaled with them, so raising the tempo lowers it.
func (c *BeatClock) SetTempo(bpm float64) error {
	if bpm <= 0 {
		return ConfigurationError{Field: "bpm", Reason: "must be greater than zero"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.source.Now()
	reached := c.position
	if c.playing {
		reached = math.Max(reached, now.Sub(c.originTime).Seconds())
	}

	scale := 0.0
	if c.beatInterval > 0 {
		scale = secondsPerBeat(bpm) / c.beatInterval
	}
	c.tempo = bpm
	c.beatInterval = secondsPerBeat(bpm)
	c.position *= scale
	if c.playing {
		c.originTime = now.Add(-seconds(reached * scale))
	}
	return nil
}

// Start sets song position zero to now and starts playing from the first beat.
func (c *BeatClock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.originTime = c.source.Now()
	c.position = 0
	c.beatIndex = 0
	c.playing = true
	c.paused = false

	logger.GetProjectLogger().WithFields(logrus.Fields{"bpm": c.tempo}).Debug("beat clock started")
}

// Stop freezes the song position at its last value. A later Start begins again from zero.
func (c *BeatClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = false
	c.paused = false
}

// Pause freezes the song position; Resume continues from it.
func (c *BeatClock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing {
		return
	}
	c.playing = false
	c.paused = true
}

// Resume continues a paused clock from the song position it was paused at.
func (c *BeatClock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	c.originTime = c.source.Now().Add(-seconds(c.position))
	c.playing = true
	c.paused = false
}

// IsPlaying reports whether the song position is advancing.
func (c *BeatClock) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Snapshot returns the clock state without advancing it.
func (c *BeatClock) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Advance updates the song position from now and fires one beat notification for every beat
// boundary crossed since the previous call, in index order.
func (c *BeatClock) Advance(now time.Time) (Snapshot, error) {
	c.mu.Lock()

	if c.tempo <= 0 {
		c.mu.Unlock()
		return Snapshot{}, ConfigurationError{Field: "bpm", Reason: "must be greater than zero"}
	}
	if !c.playing {
		snap := c.snapshot()
		c.mu.Unlock()
		return snap, nil
	}

	position := now.Sub(c.originTime).Seconds()
	if position < c.position {
		logger.GetProjectLogger().WithFields(logrus.Fields{
			"previous": c.position,
			"reported": position,
		}).Warn("clock source went backwards, holding song position")
		position = c.position
	}
	c.position = position

	previous := c.beatIndex
	c.beatIndex = markerNumber(c.position, c.beatInterval)
	if c.beatIndex < previous {
		c.beatIndex = previous
	}

	snap := c.snapshot()
	listeners := c.onBeat
	c.mu.Unlock()

	for beat := previous + 1; beat <= snap.BeatIndex; beat++ {
		for _, fn := range listeners {
			fn(beat)
		}
	}
	return snap, nil
}

func (c *BeatClock) snapshot() Snapshot {
	return Snapshot{
		SongPosition: c.position,
		BeatIndex:    c.beatIndex,
		BeatInterval: c.beatInterval,
		Tempo:        c.tempo,
		Playing:      c.playing,
	}
}

func secondsPerBeat(bpm float64) float64 {
	if bpm <= 0 {
		return 0
	}
	return 60.0 / bpm
}

// markerNumber calculates the index of the beat a song position falls in.
func markerNumber(position, interval float64) int64 {
	if interval <= 0 {
		return 0
	}
	return int64(math.Floor(position / interval))
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
