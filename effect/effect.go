package effect

import (
	"fmt"
	"strings"
	"time"

	"github.com/fogleman/ease"
	"github.com/robmorgan/onbeat/utils"
)

var curves = map[string]ease.Function{
	"linear":       ease.Linear,
	"in-quad":      ease.InQuad,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"in-cubic":     ease.InCubic,
	"out-cubic":    ease.OutCubic,
	"in-out-cubic": ease.InOutCubic,
	"in-quart":     ease.InQuart,
	"out-quart":    ease.OutQuart,
	"in-out-quart": ease.InOutQuart,
	"out-back":     ease.OutBack,
}

// Curve returns the easing function registered under name, e.g. "out-quad".
func Curve(name string) (ease.Function, error) {
	if fn, ok := curves[strings.ToLower(name)]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown easing curve: %s", name)
}

// FPS returns the time delta in seconds of one frame at n frames per second.
func FPS(n int) float64 {
	return (time.Second / time.Duration(n)).Seconds()
}

// Effect is an eased progress value running from 0 to 1 over Duration seconds.
type Effect struct {
	EasingFunc ease.Function

	// Duration in seconds. A non-positive duration completes on the first update.
	Duration float64

	elapsed float64
	value   float64
}

// NewEffect creates an effect that has not started yet.
func NewEffect(easingFunc ease.Function, duration float64) *Effect {
	return &Effect{
		EasingFunc: easingFunc,
		Duration:   duration,
	}
}

// Update advances the effect by deltaTime seconds and returns the eased value.
func (e *Effect) Update(deltaTime float64) float64 {
	if e.Done() {
		return e.value
	}

	e.elapsed += deltaTime
	if e.Duration <= 0 || e.elapsed >= e.Duration {
		e.elapsed = e.Duration
		e.value = 1.0
		return e.value
	}

	// out-back overshoots, keep the result in range
	e.value = utils.Clamp(e.EasingFunc(e.elapsed/e.Duration), 0.0, 1.0)
	return e.value
}

// Value returns the last computed value.
func (e *Effect) Value() float64 {
	return e.value
}

// Done reports whether the effect has reached its end.
func (e *Effect) Done() bool {
	return e.value == 1.0 && e.elapsed >= e.Duration
}
