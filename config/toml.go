package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/gruntwork-io/go-commons/errors"
	"github.com/robmorgan/onbeat/timing"
)

// FileConfig represents the TOML configuration file. Absent keys keep their defaults.
type FileConfig struct {
	BPM              *float64     `toml:"bpm"`
	Windows          []WindowFile `toml:"windows"`
	MinInputInterval *float64     `toml:"min_input_interval"`
	Deadzone         *float64     `toml:"deadzone"`
	TickRate         *int         `toml:"tick_rate"`
	RhythmRequired   *bool        `toml:"rhythm_required"`
	LogLevel         *string      `toml:"log_level"`
	MoveDuration     *float64     `toml:"move_duration"`
	Ease             *string      `toml:"ease"`
	FeedbackDuration *float64     `toml:"feedback_duration"`
	Grid             *GridFile    `toml:"grid"`
}

// WindowFile maps one [[windows]] table.
type WindowFile struct {
	Tier      string  `toml:"tier"`
	HalfWidth float64 `toml:"half_width"`
}

// GridFile maps the [grid] table.
type GridFile struct {
	Width   *int     `toml:"width"`
	Height  *int     `toml:"height"`
	Start   *[2]int  `toml:"start"`
	Blocked [][2]int `toml:"blocked"`
}

// Load reads a TOML config from path on top of the defaults. A missing file is not an error.
// The result is not validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.WithStackTrace(err)
	}

	var file FileConfig
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return cfg, errors.WithStackTrace(err)
	}
	file.apply(&cfg)
	return cfg, nil
}

// Decode parses TOML text on top of the defaults.
func Decode(data string) (Config, error) {
	cfg := Default()
	var file FileConfig
	if _, err := toml.Decode(data, &file); err != nil {
		return cfg, errors.WithStackTrace(err)
	}
	file.apply(&cfg)
	return cfg, nil
}

func (f FileConfig) apply(cfg *Config) {
	if f.BPM != nil {
		cfg.BPM = *f.BPM
	}
	if f.Windows != nil {
		cfg.Windows = make([]WindowConfig, 0, len(f.Windows))
		for _, w := range f.Windows {
			cfg.Windows = append(cfg.Windows, WindowConfig{Tier: timing.Tier(w.Tier), HalfWidth: w.HalfWidth})
		}
	}
	if f.MinInputInterval != nil {
		cfg.MinInputInterval = *f.MinInputInterval
	}
	if f.Deadzone != nil {
		cfg.Deadzone = *f.Deadzone
	}
	if f.TickRate != nil {
		cfg.TickRate = *f.TickRate
	}
	if f.RhythmRequired != nil {
		cfg.RhythmRequired = *f.RhythmRequired
	}
	if f.LogLevel != nil {
		cfg.LogLevel = *f.LogLevel
	}
	if f.MoveDuration != nil {
		cfg.MoveDuration = *f.MoveDuration
	}
	if f.Ease != nil {
		cfg.Ease = *f.Ease
	}
	if f.FeedbackDuration != nil {
		cfg.FeedbackDuration = *f.FeedbackDuration
	}
	if g := f.Grid; g != nil {
		if g.Width != nil {
			cfg.Grid.Width = *g.Width
		}
		if g.Height != nil {
			cfg.Grid.Height = *g.Height
		}
		if g.Start != nil {
			cfg.Grid.Start = *g.Start
		}
		if g.Blocked != nil {
			cfg.Grid.Blocked = g.Blocked
		}
	}
}
