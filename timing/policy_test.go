package timing

import (
	"errors"
	"testing"

	"github.com/robmorgan/onbeat/rhythm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(position, interval float64) rhythm.Snapshot {
	s := rhythm.Snapshot{SongPosition: position, BeatInterval: interval, Playing: true}
	s.BeatIndex = int64(s.Beats())
	return s
}

func TestNewPolicySortsWindows(t *testing.T) {
	t.Parallel()

	p, err := NewPolicy([]Window{
		{HalfWidth: 0.15, Tier: Good},
		{HalfWidth: 0.05, Tier: Perfect},
		{HalfWidth: 0.10, Tier: Great},
	})
	require.NoError(t, err)

	ws := p.Windows()
	require.Equal(t, []Tier{Perfect, Great, Good}, []Tier{ws[0].Tier, ws[1].Tier, ws[2].Tier})
	require.Equal(t, 0.15, p.OuterHalfWidth())
}

func TestNewPolicyRejectsInvalidWindows(t *testing.T) {
	t.Parallel()

	invalid := map[string][]Window{
		"empty":     {},
		"miss tier": {{HalfWidth: 0.1, Tier: Miss}},
		"zero":      {{HalfWidth: 0, Tier: Good}},
		"too wide":  {{HalfWidth: 0.6, Tier: Good}},
		"half beat": {{HalfWidth: 0.5, Tier: Good}},
		"duplicate": {{HalfWidth: 0.1, Tier: Good}, {HalfWidth: 0.1, Tier: Great}},
	}
	for name, ws := range invalid {
		_, err := NewPolicy(ws)
		var cfgErr rhythm.ConfigurationError
		assert.True(t, errors.As(err, &cfgErr), name)
	}
}

func TestEvaluateTiers(t *testing.T) {
	t.Parallel()

	p, err := NewPolicy([]Window{{HalfWidth: 0.05, Tier: Perfect}, {HalfWidth: 0.15, Tier: Good}})
	require.NoError(t, err)

	res := p.Evaluate(at(0.5, 0.5))
	require.Equal(t, 0.0, res.Accuracy)
	require.Equal(t, Perfect, res.Tier)

	res = p.Evaluate(at(0.54, 0.5))
	require.InDelta(t, 0.08, res.Accuracy, 1e-9)
	require.Equal(t, Good, res.Tier)

	res = p.Evaluate(at(0.42, 0.5))
	require.InDelta(t, -0.16, res.Accuracy, 1e-9)
	require.Equal(t, Miss, res.Tier)
	require.False(t, p.IsInWindow(at(0.42, 0.5)))
}

func TestEvaluateIsIdempotent(t *testing.T) {
	t.Parallel()

	p, err := NewPolicy([]Window{{HalfWidth: 0.15, Tier: Good}})
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		s := at(float64(i)*0.0173, 0.5)
		first := p.Evaluate(s)
		second := p.Evaluate(s)
		require.Equal(t, first, second)
		require.LessOrEqual(t, first.Accuracy, 0.5)
		require.Greater(t, first.Accuracy, -0.5)
		require.Equal(t, first.Tier.IsHit(), p.IsInWindow(s))
	}
}

func TestOuterEdgeIsInclusive(t *testing.T) {
	t.Parallel()

	p, err := NewPolicy([]Window{{HalfWidth: 0.125, Tier: Perfect}, {HalfWidth: 0.25, Tier: Good}})
	require.NoError(t, err)

	// 60 bpm, so positions are exact in beats
	late := p.Evaluate(at(2.25, 1))
	require.Equal(t, 0.25, late.Accuracy)
	require.Equal(t, Good, late.Tier)

	early := p.Evaluate(at(1.75, 1))
	require.Equal(t, -0.25, early.Accuracy)
	require.Equal(t, Good, early.Tier)
	require.True(t, p.IsInWindow(at(1.75, 1)))

	require.Equal(t, Perfect, p.Evaluate(at(3.125, 1)).Tier)
}

func TestWindowTimes(t *testing.T) {
	t.Parallel()

	p, err := NewPolicy([]Window{{HalfWidth: 0.15, Tier: Good}})
	require.NoError(t, err)

	s := at(0, 0.5)
	require.InDelta(t, 0.575, p.WindowCloseTime(s, 1), 1e-9)
	require.InDelta(t, 0.425, p.WindowOpenTime(s, 1), 1e-9)
}
