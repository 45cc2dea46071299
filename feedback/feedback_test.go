package feedback

import (
	"bytes"
	"testing"
	"time"

	"github.com/aybabtme/rgbterm"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func TestTerminalExpiry(t *testing.T) {
	t.Parallel()

	clk := clocktesting.NewFakeClock(time.Unix(0, 0))
	var buf bytes.Buffer
	sink, err := NewTerminal(&buf, clk)
	require.NoError(t, err)

	sink.Show("Perfect", Success, 500*time.Millisecond)
	clk.Step(200 * time.Millisecond)
	sink.Show("too fast", Info, 500*time.Millisecond)
	require.Len(t, sink.Active(), 2)

	clk.Step(300 * time.Millisecond)
	active := sink.Active()
	require.Len(t, active, 1)
	require.Equal(t, "too fast", active[0].Text)

	clk.Step(200 * time.Millisecond)
	require.Empty(t, sink.Active())
}

func TestTerminalColours(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink, err := NewTerminal(&buf, clocktesting.NewFakeClock(time.Unix(0, 0)))
	require.NoError(t, err)

	sink.Show("timing wrong", Warning, time.Second)
	require.Equal(t, rgbterm.FgString("timing wrong", 0xFF, 0xCA, 0x28)+"\n", buf.String())
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder
	r.Show("a", Info, time.Second)
	r.Show("b", Error, 0)

	require.Equal(t, []string{"a", "b"}, r.Texts())
	require.Equal(t, Error, r.Messages()[1].Severity)
}
