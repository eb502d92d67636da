package paths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigDir_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/platforms", got)
	})

	t.Run("falls back to ~/.config when XDG unset", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".config", "platforms"), got)
	})
}

func TestDefaultConfigDir_Darwin(t *testing.T) {
	if runtime.GOOS != "darwin" {
		t.Skip("darwin-only test")
	}

	got, err := DefaultConfigDir()
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Library", "Application Support", "platforms"), got)
}

func TestDefaultConfigDir_HomeError(t *testing.T) {
	orig := platformDir
	t.Cleanup(func() { platformDir = orig })
	boom := errors.New("no home")
	platformDir.homeDir = func() (string, error) { return "", boom }
	platformDir.userConfigDir = func() (string, error) { return "", boom }
	t.Setenv("XDG_CONFIG_HOME", "")

	_, err := DefaultConfigDir()
	assert.ErrorIs(t, err, boom)
}

func TestResolveConfigDir(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		want func(t *testing.T) string
	}{
		{
			name: "flag wins over env",
			flag: "/tmp/flag-config",
			env:  "/tmp/env-config",
			want: func(t *testing.T) string { return "/tmp/flag-config" },
		},
		{
			name: "env used when flag empty",
			env:  "/tmp/env-config",
			want: func(t *testing.T) string { return "/tmp/env-config" },
		},
		{
			name: "platform default when both empty",
			want: func(t *testing.T) string {
				d, err := DefaultConfigDir()
				require.NoError(t, err)
				return d
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.env)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want(t), got)
		})
	}
}

func TestResolveConfigDir_RelativeFlagIsAbsolute(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	got, err := ResolveConfigDir("rel-config")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "rel-config", filepath.Base(got))
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("modules: []\n"), 0o644))
}

func TestResolveLayoutFile(t *testing.T) {
	configDir := t.TempDir()
	envDir := t.TempDir()
	writeFile(t, filepath.Join(configDir, LayoutDirName, "pier.yaml"))
	writeFile(t, filepath.Join(configDir, LayoutDirName, "dock.yaml"))
	writeFile(t, filepath.Join(envDir, "dock.yaml"))
	abs := filepath.Join(t.TempDir(), "abs.yaml")
	writeFile(t, abs)
	t.Setenv(EnvLayoutDir, envDir)

	got, err := ResolveLayoutFile("pier.yaml", configDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(configDir, LayoutDirName, "pier.yaml"), got)

	got, err = ResolveLayoutFile("dock.yaml", configDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(envDir, "dock.yaml"), got)

	got, err = ResolveLayoutFile(abs, configDir)
	require.NoError(t, err)
	assert.Equal(t, abs, got)

	_, err = ResolveLayoutFile("missing.yaml", configDir)
	assert.ErrorIs(t, err, ErrLayoutNotFound)
	_, err = ResolveLayoutFile(filepath.Join(configDir, "nope.yaml"), configDir)
	assert.ErrorIs(t, err, ErrLayoutNotFound)
	_, err = ResolveLayoutFile("", configDir)
	assert.ErrorIs(t, err, ErrLayoutNotFound)
}

func TestLayoutDirs(t *testing.T) {
	t.Setenv(EnvLayoutDir, "")
	assert.Equal(t, []string{filepath.Join("/cfg", LayoutDirName)}, LayoutDirs("/cfg"))
	assert.Empty(t, LayoutDirs(""))
}
