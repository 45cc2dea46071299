package main

import (
	"os"

	"github.com/robmorgan/onbeat/config"
	"github.com/robmorgan/onbeat/effect"
	"github.com/robmorgan/onbeat/logger"
	"github.com/robmorgan/onbeat/movement"
	"github.com/spf13/cobra"
)

var (
	configPath string
	bpm        float64
	logLevel   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "onbeat",
		Short:        "Move on the beat",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "onbeat.toml", "path of the TOML config file")
	rootCmd.PersistentFlags().Float64Var(&bpm, "bpm", 0, "tempo in beats per minute, overrides the config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides the config file")

	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newSimulateCmd())

	return rootCmd
}

// loadConfig reads the config file and applies the flags set on the command line.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("bpm") {
		cfg.BPM = bpm
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newMover(cfg config.Config) (*movement.Executor, error) {
	var blocked []movement.Cell
	for _, b := range cfg.Grid.Blocked {
		blocked = append(blocked, movement.Cell{X: b[0], Y: b[1]})
	}
	grid, err := movement.NewGrid(cfg.Grid.Width, cfg.Grid.Height, blocked...)
	if err != nil {
		return nil, err
	}
	curve, err := effect.Curve(cfg.Ease)
	if err != nil {
		return nil, err
	}
	start := movement.Cell{X: cfg.Grid.Start[0], Y: cfg.Grid.Start[1]}
	return movement.NewExecutor(grid, start, curve, cfg.MoveDuration)
}
