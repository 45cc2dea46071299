package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/robmorgan/onbeat/engine"
	"github.com/robmorgan/onbeat/feedback"
	"github.com/robmorgan/onbeat/input"
	"github.com/robmorgan/onbeat/logger"
	"github.com/spf13/cobra"
	"k8s.io/utils/clock"
)

// keyHold is how long a key press counts as a held direction. Terminals only report key
// presses and repeats.
const keyHold = 80 * time.Millisecond

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play with the arrow keys, t toggles rhythm mode, esc quits",
		Args:  cobra.NoArgs,
		RunE:  runPlayCmd,
	}
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := logger.GetProjectLogger()
	clk := clock.RealClock{}

	mover, err := newMover(cfg)
	if err != nil {
		return err
	}
	sink, err := feedback.NewTerminal(cmd.OutOrStdout(), clk)
	if err != nil {
		return err
	}

	keys, err := keyboard.GetKeys(16)
	if err != nil {
		return err
	}
	defer func() {
		if err := keyboard.Close(); err != nil {
			log.WithError(err).Warn("unable to close keyboard")
		}
	}()

	kb := newKeyboardInput(clk, keyHold)
	go kb.listen(keys)

	session, err := engine.New(cfg, engine.Deps{Clock: clk, Input: kb, Mover: mover, Feedback: sink})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	defer signal.Stop(quit)

	session.Start()
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx, session, cfg.TickRate) }()

	select {
	case err := <-done:
		return err
	case <-kb.quit:
	case <-quit:
	}
	log.Info("shutting down onbeat")
	cancel()
	if err := <-done; err != nil {
		return err
	}
	return session.Stats().Write(cmd.OutOrStdout())
}

// keyboardInput turns arrow key presses into a held direction signal.
type keyboardInput struct {
	mu        sync.Mutex
	clock     clock.PassiveClock
	hold      time.Duration
	dir       input.Direction
	pressedAt time.Time
	toggle    bool

	quit     chan struct{}
	quitOnce sync.Once
}

func newKeyboardInput(clk clock.PassiveClock, hold time.Duration) *keyboardInput {
	return &keyboardInput{clock: clk, hold: hold, quit: make(chan struct{})}
}

func (k *keyboardInput) listen(events <-chan keyboard.KeyEvent) {
	for ev := range events {
		if ev.Err != nil {
			logger.GetProjectLogger().WithError(ev.Err).Warn("keyboard error")
			continue
		}
		k.handle(ev)
	}
}

func (k *keyboardInput) handle(ev keyboard.KeyEvent) {
	k.mu.Lock()
	defer k.mu.Unlock()

	dir := input.None
	switch ev.Key {
	case keyboard.KeyArrowUp:
		dir = input.Up
	case keyboard.KeyArrowDown:
		dir = input.Down
	case keyboard.KeyArrowLeft:
		dir = input.Left
	case keyboard.KeyArrowRight:
		dir = input.Right
	case keyboard.KeyEsc, keyboard.KeyCtrlC:
		k.quitOnce.Do(func() { close(k.quit) })
		return
	}
	if ev.Rune == 't' || ev.Rune == 'T' {
		k.toggle = true
		return
	}
	if dir != input.None {
		k.dir = dir
		k.pressedAt = k.clock.Now()
	}
}

func (k *keyboardInput) Poll() engine.InputState {
	k.mu.Lock()
	defer k.mu.Unlock()

	var st engine.InputState
	if k.dir != input.None && k.clock.Since(k.pressedAt) < k.hold {
		dx, dy := k.dir.Delta()
		st.Direction = input.Vector{X: float64(dx), Y: float64(dy)}
	}
	st.Toggle = k.toggle
	k.toggle = false
	return st
}
