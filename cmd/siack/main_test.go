package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "b.jpg"), []byte("b"), 0o644))

	t.Run("single file", func(t *testing.T) {
		files, err := collectFiles(filepath.Join(dir, "a.png"), false)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "a.png")}, files)
	})

	t.Run("directory without recursive", func(t *testing.T) {
		_, err := collectFiles(dir, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "use -r")
	})

	t.Run("directory recursive", func(t *testing.T) {
		files, err := collectFiles(dir, true)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{
			filepath.Join(dir, "a.png"),
			filepath.Join(dir, "nested", "b.jpg"),
		}, files)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := collectFiles(filepath.Join(dir, "missing"), false)
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/png", detectContentType("photo.png"))
	assert.Equal(t, "application/octet-stream", detectContentType("README"))
	assert.Equal(t, "application/octet-stream", detectContentType("data.zzunknown"))
}
