package config

import (
	"fmt"
	"math"
	"time"

	"github.com/robmorgan/onbeat/effect"
	"github.com/robmorgan/onbeat/rhythm"
	"github.com/robmorgan/onbeat/timing"
	"github.com/sirupsen/logrus"
)

// WindowConfig is one tier window, with a half-width in beats.
type WindowConfig struct {
	Tier      timing.Tier
	HalfWidth float64
}

// GridConfig describes the board the player moves on.
type GridConfig struct {
	Width   int
	Height  int
	Start   [2]int
	Blocked [][2]int
}

// Config represents options that configure the global behavior of the program
type Config struct {
	// Tempo in beats per minute
	BPM float64

	// Tier windows, in any order
	Windows []WindowConfig

	// MinInputInterval is the cooldown between two forwarded intents, in seconds
	MinInputInterval float64

	// Deadzone is the magnitude below which a direction axis is ignored
	Deadzone float64

	// TickRate is the number of ticks per second of the run loop
	TickRate int

	// RhythmRequired enables scoring. When false the player moves freely.
	RhythmRequired bool

	LogLevel string

	// MoveDuration is the length of one eased move, in seconds
	MoveDuration float64

	// Ease is the name of the easing curve of a move
	Ease string

	// FeedbackDuration is how long a feedback message stays on screen, in seconds
	FeedbackDuration float64

	Grid GridConfig
}

// Default returns a Config object with reasonable defaults for real usage
func Default() Config {
	return Config{
		BPM: 120,
		Windows: []WindowConfig{
			{Tier: timing.Perfect, HalfWidth: 0.05},
			{Tier: timing.Great, HalfWidth: 0.10},
			{Tier: timing.Good, HalfWidth: 0.15},
		},
		MinInputInterval: 0.15,
		Deadzone:         0.5,
		TickRate:         120,
		RhythmRequired:   true,
		LogLevel:         "info",
		MoveDuration:     0.12,
		Ease:             "out-quad",
		FeedbackDuration: 0.6,
		Grid: GridConfig{
			Width:  9,
			Height: 9,
			Start:  [2]int{4, 4},
		},
	}
}

// Validate returns a rhythm.ConfigurationError for the first invalid setting.
func (c Config) Validate() error {
	if math.IsNaN(c.BPM) || c.BPM <= 0 {
		return rhythm.ConfigurationError{Field: "bpm", Reason: fmt.Sprintf("must be positive, got %v", c.BPM)}
	}
	policy, err := c.Policy()
	if err != nil {
		return err
	}
	if math.IsNaN(c.MinInputInterval) || c.MinInputInterval < 0 {
		return rhythm.ConfigurationError{Field: "min_input_interval", Reason: fmt.Sprintf("must not be negative, got %v", c.MinInputInterval)}
	}
	if math.IsNaN(c.Deadzone) || c.Deadzone < 0 || c.Deadzone >= 1 {
		return rhythm.ConfigurationError{Field: "deadzone", Reason: fmt.Sprintf("must be within [0, 1), got %v", c.Deadzone)}
	}
	if c.TickRate <= 0 {
		return rhythm.ConfigurationError{Field: "tick_rate", Reason: fmt.Sprintf("must be positive, got %d", c.TickRate)}
	}
	// a tick period must fit inside half of the outer window
	if limit := policy.OuterHalfWidth() * 60 / c.BPM; 1/float64(c.TickRate) > limit {
		return rhythm.ConfigurationError{
			Field:  "tick_rate",
			Reason: fmt.Sprintf("period of %.4fs exceeds %.4fs, half of the outer window", 1/float64(c.TickRate), limit),
		}
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return rhythm.ConfigurationError{Field: "log_level", Reason: err.Error()}
	}
	if c.MoveDuration < 0 {
		return rhythm.ConfigurationError{Field: "move_duration", Reason: "must not be negative"}
	}
	if c.FeedbackDuration < 0 {
		return rhythm.ConfigurationError{Field: "feedback_duration", Reason: "must not be negative"}
	}
	if _, err := effect.Curve(c.Ease); err != nil {
		return rhythm.ConfigurationError{Field: "ease", Reason: err.Error()}
	}
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		return rhythm.ConfigurationError{Field: "grid", Reason: fmt.Sprintf("size must be positive, got %dx%d", c.Grid.Width, c.Grid.Height)}
	}
	return nil
}

// Policy builds the timing policy of the configured windows.
func (c Config) Policy() (*timing.Policy, error) {
	windows := make([]timing.Window, 0, len(c.Windows))
	for _, w := range c.Windows {
		windows = append(windows, timing.Window{Tier: w.Tier, HalfWidth: w.HalfWidth})
	}
	return timing.NewPolicy(windows)
}

// Tiers returns the configured hit tiers, narrowest window first.
func (c Config) Tiers() []timing.Tier {
	p, err := c.Policy()
	if err != nil {
		return nil
	}
	var tiers []timing.Tier
	for _, w := range p.Windows() {
		tiers = append(tiers, w.Tier)
	}
	return tiers
}

// FeedbackTime returns FeedbackDuration as a time.Duration.
func (c Config) FeedbackTime() time.Duration {
	return time.Duration(c.FeedbackDuration * float64(time.Second))
}
