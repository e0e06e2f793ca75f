// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export drives an external model exporter over a single checkpoint.
// It resolves the checkpoint, hands the fixed options to an Exporter, and
// reports success only after the expected artifact is confirmed on disk.
package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/model-export/internal/onnx"
	"github.com/pdiddy/model-export/pkg/types"
)

var (
	// ErrCheckpointNotFound means the checkpoint path does not name a file.
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	// ErrArtifactMissing means the exporter returned without writing its artifact.
	ErrArtifactMissing = errors.New("export artifact missing")
	// ErrVerification means the artifact does not match the requested options.
	ErrVerification = errors.New("export verification failed")
)

// Exporter converts a checkpoint into the requested format. Implementations
// write the artifact next to the checkpoint, named per ArtifactPath.
type Exporter interface {
	Export(ctx context.Context, checkpoint string, opts types.ExportOptions) error
}

// ExporterFunc adapts a function to the Exporter interface.
type ExporterFunc func(ctx context.Context, checkpoint string, opts types.ExportOptions) error

// Export calls f.
func (f ExporterFunc) Export(ctx context.Context, checkpoint string, opts types.ExportOptions) error {
	return f(ctx, checkpoint, opts)
}

// artifactSuffix maps each format to what the exporter appends to the
// checkpoint stem. Suffixes ending in "_model" or ".mlpackage" are directories.
var artifactSuffix = map[types.ExportFormat]string{
	types.FormatONNX:        ".onnx",
	types.FormatTorchScript: ".torchscript",
	types.FormatOpenVINO:    "_openvino_model",
	types.FormatEngine:      ".engine",
	types.FormatCoreML:      ".mlpackage",
	types.FormatSavedModel:  "_saved_model",
	types.FormatPaddle:      "_paddle_model",
	types.FormatNCNN:        "_ncnn_model",
}

// ArtifactPath returns where the exporter writes the artifact for checkpoint:
// the checkpoint's directory, its stem, and the format suffix.
func ArtifactPath(checkpoint string, format types.ExportFormat) string {
	stem := strings.TrimSuffix(checkpoint, filepath.Ext(checkpoint))
	suffix, ok := artifactSuffix[format]
	if !ok {
		suffix = "." + string(format)
	}
	return stem + suffix
}

// Run exports cfg.Checkpoint with e and returns the record of the run. Status
// lines go to w; the completion line is written only after the artifact is
// confirmed. A missing checkpoint fails before e is called.
func Run(ctx context.Context, e Exporter, cfg types.ExportConfig, w io.Writer) (types.ExportRecord, error) {
	start := time.Now()
	rec := types.ExportRecord{
		ID:         uuid.NewString(),
		Checkpoint: cfg.Checkpoint,
		Options:    cfg.ExportOptions,
		Backend:    cfg.Backend,
		Host:       hostInfo(ctx),
		StartedAt:  start.UTC(),
	}

	fail := func(err error) (types.ExportRecord, error) {
		rec.Status = types.ExportFailed
		rec.Error = err.Error()
		rec.Duration = time.Since(start)
		fmt.Fprintf(w, "failed:  %s (%v)\n", cfg.Checkpoint, err)
		return rec, err
	}

	info, err := os.Stat(cfg.Checkpoint)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fail(fmt.Errorf("%w: %s", ErrCheckpointNotFound, cfg.Checkpoint))
	case err != nil:
		return fail(fmt.Errorf("checking checkpoint %s: %w", cfg.Checkpoint, err))
	case info.IsDir():
		return fail(fmt.Errorf("%w: %s is a directory", ErrCheckpointNotFound, cfg.Checkpoint))
	}

	sum, err := fileSHA256(cfg.Checkpoint)
	if err != nil {
		return fail(err)
	}
	rec.CheckpointSHA256 = sum

	artifact := ArtifactPath(cfg.Checkpoint, cfg.Format)
	rec.Artifact = artifact

	if _, err := os.Stat(artifact); err == nil {
		if !cfg.Force {
			err := checkExisting(artifact, cfg)
			if err == nil {
				rec.Status = types.ExportSkipped
				rec.Duration = time.Since(start)
				fmt.Fprintf(w, "skipped: %s (already exists)\n", artifact)
				return rec, nil
			}
			slog.Info("existing artifact does not match options, re-exporting", "artifact", artifact, "reason", err)
		}
		slog.Debug("removing previous artifact", "artifact", artifact)
		if err := os.RemoveAll(artifact); err != nil {
			return fail(fmt.Errorf("removing previous artifact %s: %w", artifact, err))
		}
	}

	slog.Info("exporting checkpoint",
		"checkpoint", cfg.Checkpoint,
		"backend", cfg.Backend,
		"format", cfg.Format,
		"opset", cfg.Opset,
		"dynamic", cfg.Dynamic,
		"imgsz", cfg.ImgSize,
	)

	if err := e.Export(ctx, cfg.Checkpoint, cfg.ExportOptions); err != nil {
		return fail(fmt.Errorf("exporting %s: %w", cfg.Checkpoint, err))
	}

	size, err := confirmArtifact(artifact)
	if err != nil {
		return fail(err)
	}
	rec.ArtifactSize = size

	if cfg.Verify && cfg.Format == types.FormatONNX {
		m, err := onnx.Inspect(artifact)
		if err != nil {
			return fail(fmt.Errorf("%w: %v", ErrVerification, err))
		}
		if err := Verify(m, cfg.ExportOptions); err != nil {
			return fail(err)
		}
	}

	rec.Status = types.ExportDone
	rec.Duration = time.Since(start)
	slog.Info("export finished", "artifact", artifact, "bytes", size, "duration", rec.Duration)
	fmt.Fprintf(w, "export complete: %s\n", artifact)
	return rec, nil
}

// checkExisting reports whether a previous artifact can stand in for this
// run. ONNX artifacts are checked against the requested options when Verify
// is set; other formats are trusted as-is.
func checkExisting(artifact string, cfg types.ExportConfig) error {
	if !cfg.Verify || cfg.Format != types.FormatONNX {
		return nil
	}
	m, err := onnx.Inspect(artifact)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}
	return Verify(m, cfg.ExportOptions)
}

// confirmArtifact checks that the exporter wrote artifact. Files must be
// non-empty; directories must contain at least one entry. It returns the file
// size, or 0 for directories.
func confirmArtifact(artifact string) (int64, error) {
	info, err := os.Stat(artifact)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("%w: %s", ErrArtifactMissing, artifact)
	}
	if err != nil {
		return 0, fmt.Errorf("checking artifact %s: %w", artifact, err)
	}

	if info.IsDir() {
		entries, err := os.ReadDir(artifact)
		if err != nil {
			return 0, fmt.Errorf("reading artifact %s: %w", artifact, err)
		}
		if len(entries) == 0 {
			return 0, fmt.Errorf("%w: %s is empty", ErrArtifactMissing, artifact)
		}
		return 0, nil
	}

	if info.Size() == 0 {
		return 0, fmt.Errorf("%w: %s is empty", ErrArtifactMissing, artifact)
	}
	return info.Size(), nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening checkpoint %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing checkpoint %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
