package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: " warn ", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", want: slog.LevelInfo, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)
	logger.Info("hidden")
	logger.Warn("shown", "page", 3)

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "msg=shown")
	require.Contains(t, buf.String(), "page=3")
}

func TestOpenTruncates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	path := filepath.Join(dir, FileName)

	logger, closer, err := Open(Options{Dir: dir, Level: "debug"})
	require.NoError(t, err)
	logger.Debug("first run")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "first run")

	logger, closer, err = Open(Options{Dir: dir})
	require.NoError(t, err)
	logger.Info("second run")
	require.NoError(t, closer.Close())

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "first run")
	require.Contains(t, string(data), "second run")
}

func TestOpenRejectsBadLevel(t *testing.T) {
	_, _, err := Open(Options{Dir: t.TempDir(), Level: "chatty"})
	require.Error(t, err)
}
