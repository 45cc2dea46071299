package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSimulate(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "script.toml", `
duration = 1.6

[[input]]
at = 0.5
direction = "up"

[[input]]
at = 1.0
direction = "up"

[[input]]
at = 1.5
direction = "up"
`)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", filepath.Join(dir, "missing.toml"), "simulate", script})
	require.NoError(t, cmd.Execute())

	require.Contains(t, out.String(), "Perfect:      3")
	require.Contains(t, out.String(), "Miss:      0")
	require.Contains(t, out.String(), "Accuracy: 100.00%")
}

func TestSimulateFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "onbeat.toml", "bpm = 60\n")
	// half a beat off at 60 bpm, on the beat at 120 bpm
	script := writeFile(t, dir, "script.toml", `
[[input]]
at = 2.5
direction = "left"
`)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", cfg, "--bpm", "120", "simulate", script})
	require.NoError(t, cmd.Execute())

	require.Contains(t, out.String(), "Perfect:      1")
	require.NotContains(t, out.String(), "timing wrong")
}

func TestSimulateRejectsBadScript(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "script.toml", `
[[input]]
at = 1.0
direction = "sideways"
`)

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(dir, "missing.toml"), "simulate", script})
	require.Error(t, cmd.Execute())
}
