// Package feedback contains the sinks that present short player-facing messages.
package feedback

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aybabtme/rgbterm"
	"github.com/lucasb-eyer/go-colorful"
	"k8s.io/utils/clock"
)

// Severity orders messages from neutral to bad.
type Severity int

const (
	Info Severity = iota
	Success
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Sink receives feedback messages. It must not block.
type Sink interface {
	Show(text string, severity Severity, duration time.Duration)
}

// Message is one shown feedback text.
type Message struct {
	Text     string
	Severity Severity
	Shown    time.Time
	Duration time.Duration
}

// Expired reports whether the message has been displayed for its full duration at now.
func (m Message) Expired(now time.Time) bool {
	return !now.Before(m.Shown.Add(m.Duration))
}

// DefaultPalette maps each severity to a hex colour.
var DefaultPalette = map[Severity]string{
	Info:    "#B0BEC5",
	Success: "#66BB6A",
	Warning: "#FFCA28",
	Error:   "#EF5350",
}

// Terminal writes coloured messages to out and keeps them until they expire.
type Terminal struct {
	mu      sync.Mutex
	out     io.Writer
	clock   clock.PassiveClock
	palette map[Severity]colorful.Color
	active  []Message
}

// NewTerminal creates a sink with the default palette.
func NewTerminal(out io.Writer, clk clock.PassiveClock) (*Terminal, error) {
	palette := make(map[Severity]colorful.Color, len(DefaultPalette))
	for sev, hex := range DefaultPalette {
		c, err := colorful.Hex(hex)
		if err != nil {
			return nil, fmt.Errorf("invalid colour %q for severity %s: %w", hex, sev, err)
		}
		palette[sev] = c
	}
	return &Terminal{out: out, clock: clk, palette: palette}, nil
}

// Show prints text in the colour of severity and keeps it active for duration.
func (t *Terminal) Show(text string, severity Severity, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	t.prune(now)
	t.active = append(t.active, Message{Text: text, Severity: severity, Shown: now, Duration: duration})

	r, g, b := t.palette[severity].RGB255()
	fmt.Fprintln(t.out, rgbterm.FgString(text, r, g, b))
}

// Active returns the messages that have not expired yet, oldest first.
func (t *Terminal) Active() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.prune(t.clock.Now())
	out := make([]Message, len(t.active))
	copy(out, t.active)
	return out
}

func (t *Terminal) prune(now time.Time) {
	kept := t.active[:0]
	for _, m := range t.active {
		if !m.Expired(now) {
			kept = append(kept, m)
		}
	}
	t.active = kept
}

// Recorder keeps every message it is shown.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Show(text string, severity Severity, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Text: text, Severity: severity, Duration: duration})
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Texts returns the recorded message texts in order.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.messages))
	for _, m := range r.messages {
		out = append(out, m.Text)
	}
	return out
}
