// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads published model checkpoints into a local directory.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pdiddy/model-export/internal/httputil"
	"github.com/pdiddy/model-export/pkg/types"
)

// ErrExists is returned when the destination file is already present.
var ErrExists = errors.New("checkpoint already exists")

// Result describes a completed download.
type Result struct {
	Path   string
	Bytes  int64
	SHA256 string
}

// CheckpointName normalizes name to a file name, appending ".pt" when name
// has no extension ("yolov8n" -> "yolov8n.pt").
func CheckpointName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != path.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid checkpoint name %q", name)
	}
	if path.Ext(name) == "" {
		name += ".pt"
	}
	return name, nil
}

// Fetch downloads <cfg.BaseURL>/<name> into cfg.Dir. The body is streamed to
// a temporary file in the same directory and renamed into place only after
// the transfer completes, so an interrupted download never leaves a partial
// checkpoint behind.
func Fetch(ctx context.Context, client *http.Client, cfg types.FetchConfig, name string) (Result, error) {
	file, err := CheckpointName(name)
	if err != nil {
		return Result{}, err
	}

	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	dest := filepath.Join(dir, file)
	if _, err := os.Stat(dest); err == nil {
		return Result{Path: dest}, fmt.Errorf("%w: %s", ErrExists, dest)
	}

	src, err := url.JoinPath(cfg.BaseURL, file)
	if err != nil {
		return Result{}, fmt.Errorf("building URL for %s: %w", file, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	slog.Info("downloading checkpoint", "url", src, "dest", dest)
	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return Result{}, fmt.Errorf("downloading %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("downloading %s: unexpected status %d", src, resp.StatusCode)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+file+".*.part")
	if err != nil {
		return Result{}, fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", dest, err)
	}
	if n == 0 {
		return Result{}, fmt.Errorf("downloading %s: empty response body", src)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return Result{}, fmt.Errorf("downloading %s: got %d bytes, want %d", src, n, resp.ContentLength)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return Result{}, fmt.Errorf("moving download into place: %w", err)
	}

	res := Result{Path: dest, Bytes: n, SHA256: hex.EncodeToString(h.Sum(nil))}
	slog.Info("checkpoint downloaded", "path", res.Path, "bytes", res.Bytes, "sha256", res.SHA256)
	return res, nil
}
