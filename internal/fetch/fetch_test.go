// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/model-export/pkg/types"
)

func TestCheckpointName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "yolov8n", want: "yolov8n.pt"},
		{in: "yolov8n.pt", want: "yolov8n.pt"},
		{in: " yolo11s ", want: "yolo11s.pt"},
		{in: "", wantErr: true},
		{in: "../etc/passwd", wantErr: true},
		{in: "sub/yolov8n.pt", wantErr: true},
		{in: "..", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CheckpointName(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetch(t *testing.T) {
	var gotPath, gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("checkpoint bytes"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	cfg := types.FetchConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "model-export/test"},
		BaseURL:    ts.URL + "/releases/v8.3.0",
		Dir:        dir,
	}

	res, err := Fetch(context.Background(), ts.Client(), cfg, "yolov8n")
	require.NoError(t, err)

	assert.Equal(t, "/releases/v8.3.0/yolov8n.pt", gotPath)
	assert.Equal(t, "model-export/test", gotUA)
	assert.Equal(t, filepath.Join(dir, "yolov8n.pt"), res.Path)
	assert.Equal(t, int64(len("checkpoint bytes")), res.Bytes)
	assert.Len(t, res.SHA256, 64)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "checkpoint bytes", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be gone")
}

func TestFetch_Token(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("private"))
	}))
	defer ts.Close()

	cfg := types.FetchConfig{BaseURL: ts.URL, Dir: t.TempDir(), Token: "tok_123"}
	_, err := Fetch(context.Background(), ts.Client(), cfg, "custom")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok_123", gotAuth)
}

func TestFetch_Existing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("server should not be called for an existing checkpoint")
	}))
	defer ts.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "yolov8n.pt"), []byte("local"), 0o644))

	_, err := Fetch(context.Background(), ts.Client(), types.FetchConfig{BaseURL: ts.URL, Dir: dir}, "yolov8n.pt")
	assert.True(t, errors.Is(err, ErrExists))
}

func TestFetch_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	dir := t.TempDir()
	_, err := Fetch(context.Background(), ts.Client(), types.FetchConfig{BaseURL: ts.URL, Dir: dir}, "yolov99x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetch_EmptyBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	dir := t.TempDir()
	_, err := Fetch(context.Background(), ts.Client(), types.FetchConfig{BaseURL: ts.URL, Dir: dir}, "yolov8n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response body")

	_, statErr := os.Stat(filepath.Join(dir, "yolov8n.pt"))
	assert.True(t, os.IsNotExist(statErr))
}
