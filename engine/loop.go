package engine

import (
	"context"
	"math"
	"time"

	"github.com/robmorgan/onbeat/effect"
	"github.com/robmorgan/onbeat/logger"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// Run ticks the session tickRate times per second until ctx is done. The clock source of the
// session must be able to create timers.
func Run(ctx context.Context, s *Session, tickRate int) error {
	clk, ok := s.clock.(clock.Clock)
	if !ok {
		return WiringError{Collaborator: "clock source with timers"}
	}
	if tickRate <= 0 {
		s.mu.Lock()
		tickRate = s.cfg.TickRate
		s.mu.Unlock()
	}
	period := time.Duration(math.Round(effect.FPS(tickRate) * float64(time.Second)))

	log := logger.GetProjectLogger()
	log.WithFields(logrus.Fields{"tick_rate": tickRate, "period": period}).Info("run loop started")

	t := clk.NewTimer(period)
	defer t.Stop()

	ticks := 0
	for {
		select {
		case <-ctx.Done():
			log.WithField("ticks", ticks).Info("run loop shutdown")
			return nil
		case <-t.C():
			if _, err := s.Tick(); err != nil {
				log.WithError(err).Error("tick failed")
				return err
			}
			ticks++
			t.Reset(period)
		}
	}
}
