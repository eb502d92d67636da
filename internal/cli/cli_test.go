package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/platforms/pkg/types"
)

// run executes the CLI against a private config directory.
func run(t *testing.T, configDir string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(append([]string{"--config-dir", configDir}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func pairLayout(t *testing.T) string {
	t.Helper()
	p, err := filepath.Abs(filepath.Join("testdata", "pair.yaml"))
	require.NoError(t, err)
	return p
}

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte(body), 0o644))
}

func TestVersion(t *testing.T) {
	code, out, _ := run(t, t.TempDir(), "version")
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "deck v")
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	code, out, _ := run(t, dir, "init")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "deck initialized")
	assert.FileExists(t, filepath.Join(dir, configFileExt))
	assert.DirExists(t, filepath.Join(dir, "layouts"))

	code, out, _ = run(t, dir, "init")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "already initialized")

	cfg, err := loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	flags = rootFlags{}
	dir := t.TempDir()
	writeConfig(t, dir, "cell_size: 2\ndebounce_window: 50ms\n")

	cfg, err := loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.CellSize)
	assert.Equal(t, "50ms", cfg.DebounceWindow.String())
	assert.Equal(t, types.GridBackendMemory, cfg.GridBackend)

	writeConfig(t, dir, "connectivity: 6\n")
	_, err = loadConfig(dir)
	assert.ErrorIs(t, err, types.ErrConnectivityInvalid)
}

func TestSockets(t *testing.T) {
	code, out, _ := run(t, t.TempDir(), "sockets", "--width", "2", "--length", "1", "--json")
	require.Equal(t, exitSuccess, code)

	var ss []types.Socket
	require.NoError(t, json.Unmarshal([]byte(out), &ss))
	require.Len(t, ss, 6)
	for i, s := range ss {
		assert.Equal(t, i, s.Index)
		assert.Equal(t, types.StatusLinkable, s.Status)
	}
	assert.Equal(t, types.South, ss[0].Outward)

	code, out, _ = run(t, t.TempDir(), "sockets", "--width", "1", "--length", "1")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "INDEX")
	assert.Contains(t, out, "linkable")
}

func TestResolve(t *testing.T) {
	code, out, stderr := run(t, t.TempDir(), "resolve", pairLayout(t), "--json")
	require.Equal(t, exitSuccess, code, stderr)

	var r report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.Len(t, r.Modules, 3)
	assert.Len(t, r.Connections, 2)
	for _, c := range r.Connections {
		assert.Equal(t, "left", c.ModuleA)
		assert.Equal(t, "right", c.ModuleB)
	}
	assert.Contains(t, r.Modules[0].Hidden, "left/rail-2")
	assert.Contains(t, r.Modules[0].Hidden, "left/rail-3")
	assert.Empty(t, r.Modules[2].Hidden)

	code, out, _ = run(t, t.TempDir(), "resolve", pairLayout(t))
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "connections: 2")
	assert.Contains(t, out, "left/2 <-> right/")
}

func TestResolve_SQLiteBackend(t *testing.T) {
	code, out, stderr := run(t, t.TempDir(), "--grid-backend", "sqlite", "resolve", pairLayout(t))
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "connections: 2")
}

func TestResolve_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("modules:\n  - id: x\n    width: wide\n"), 0o644))

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"invalid layout", []string{"resolve", bad}, exitUserError},
		{"missing layout", []string{"resolve", "nowhere.yaml"}, exitUserError},
		{"no argument", []string{"resolve"}, exitUserError},
		{"unknown backend", []string{"--grid-backend", "redis", "resolve", bad}, exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := run(t, dir, tt.args...)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, stderr, "deck:")
		})
	}
}

func TestResolve_LayoutDir(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile(pairLayout(t))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "layouts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "layouts", "stored.yaml"), data, 0o644))

	code, out, stderr := run(t, dir, "resolve", "stored.yaml")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "connections: 2")
}

func TestSettle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "debounce_window: 20ms\n")

	code, out, stderr := run(t, dir, "settle", pairLayout(t), "--timeout", "5s", "--json")
	require.Equal(t, exitSuccess, code, stderr)

	var events []settleEvent
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	var ids []string
	for _, ev := range events {
		ids = append(ids, ev.Module)
	}
	assert.ElementsMatch(t, []string{"left", "right"}, ids, "picked-up crane never settles")
}

func TestCells(t *testing.T) {
	code, out, stderr := run(t, t.TempDir(), "cells", pairLayout(t), "--owner", "left", "--json")
	require.Equal(t, exitSuccess, code, stderr)

	var records []struct {
		Owner string `json:"owner"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.NotEmpty(t, records)
	for _, r := range records {
		assert.Equal(t, "left", r.Owner)
	}
}
