package main

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gruntwork-io/go-commons/errors"
	"github.com/robmorgan/onbeat/engine"
	"github.com/robmorgan/onbeat/feedback"
	"github.com/robmorgan/onbeat/input"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
	clocktesting "k8s.io/utils/clock/testing"
)

// Script is a list of inputs replayed against a session.
type Script struct {
	// Duration of the run in seconds. Defaults to one second after the last input.
	Duration float64       `toml:"duration"`
	Inputs   []ScriptInput `toml:"input"`
}

// ScriptInput is one input, held for a single tick.
type ScriptInput struct {
	// At is the song position in seconds.
	At        float64 `toml:"at"`
	Direction string  `toml:"direction"`
	Toggle    bool    `toml:"toggle"`
}

func loadScript(path string) (Script, error) {
	var script Script
	if _, err := toml.DecodeFile(path, &script); err != nil {
		return script, errors.WithStackTrace(err)
	}
	for i, in := range script.Inputs {
		if in.Direction == "" {
			continue
		}
		if _, ok := input.ParseDirection(in.Direction); !ok {
			return script, fmt.Errorf("input %d: unknown direction %q", i, in.Direction)
		}
	}
	slices.SortStableFunc(script.Inputs, func(a, b ScriptInput) bool { return a.At < b.At })
	if script.Duration <= 0 && len(script.Inputs) > 0 {
		script.Duration = script.Inputs[len(script.Inputs)-1].At + 1
	}
	return script, nil
}

func newSimulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <script.toml>",
		Short: "Replay a scripted list of inputs on a simulated clock and print the stats",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulateCmd,
	}
}

func runSimulateCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	script, err := loadScript(args[0])
	if err != nil {
		return err
	}

	clk := clocktesting.NewFakeClock(time.Unix(0, 0))
	mover, err := newMover(cfg)
	if err != nil {
		return err
	}
	sink, err := feedback.NewTerminal(cmd.OutOrStdout(), clk)
	if err != nil {
		return err
	}
	in := &scriptedInput{clock: clk, start: clk.Now(), inputs: script.Inputs}

	session, err := engine.New(cfg, engine.Deps{Clock: clk, Input: in, Mover: mover, Feedback: sink})
	if err != nil {
		return err
	}

	period := time.Second / time.Duration(cfg.TickRate)
	end := clk.Now().Add(time.Duration(script.Duration * float64(time.Second)))
	session.Start()
	for clk.Now().Before(end) {
		clk.Step(period)
		if _, err := session.Tick(); err != nil {
			return err
		}
	}

	return session.Stats().Write(cmd.OutOrStdout())
}

// scriptedInput reports every script input on the first tick at or after its time.
type scriptedInput struct {
	clock  *clocktesting.FakeClock
	start  time.Time
	inputs []ScriptInput
	next   int
}

func (s *scriptedInput) Poll() engine.InputState {
	var st engine.InputState
	elapsed := s.clock.Since(s.start).Seconds()
	for s.next < len(s.inputs) && s.inputs[s.next].At <= elapsed {
		in := s.inputs[s.next]
		s.next++
		if in.Toggle {
			st.Toggle = true
		}
		if dir, ok := input.ParseDirection(in.Direction); ok && dir != input.None {
			dx, dy := dir.Delta()
			st.Direction = input.Vector{X: float64(dx), Y: float64(dy)}
		}
	}
	return st
}
