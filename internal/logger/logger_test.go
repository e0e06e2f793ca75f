package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "DEBUG", want: slog.LevelDebug},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "trace", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log, closeFn := New(WithWriter(&buf), WithNoColor(true), WithLevel(slog.LevelWarn))
	defer closeFn()

	log.Info("hidden")
	log.Warn("export slow", "seconds", 90)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "export slow")
	assert.Contains(t, out, "seconds=90")
}

func TestNewWithFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "model-export.log")
	log, closeFn := New(WithWriter(&buf), WithNoColor(true), WithLogFile(path))

	log.With("checkpoint", "yolov8n.pt").Info("exporting checkpoint")
	require.NoError(t, closeFn())

	assert.Contains(t, buf.String(), "exporting checkpoint")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, `"msg":"exporting checkpoint"`)
	assert.Contains(t, line, `"checkpoint":"yolov8n.pt"`)
}
