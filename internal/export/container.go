package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pdiddy/model-export/internal/container"
	"github.com/pdiddy/model-export/pkg/types"
)

// containerWorkDir is where the checkpoint directory is mounted.
const containerWorkDir = "/work"

// ContainerExporter runs the Ultralytics CLI inside a container image,
// bind-mounting the checkpoint's directory so the artifact is written to the
// host.
type ContainerExporter struct {
	runtime container.Runtime
	image   string
}

// NewContainerExporter verifies that image exists in rt before returning.
func NewContainerExporter(ctx context.Context, rt container.Runtime, image string) (*ContainerExporter, error) {
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("exporter image not available in %s: %w", rt.Name(), err)
	}
	return &ContainerExporter{runtime: rt, image: image}, nil
}

// Export runs `yolo export ...` in the container against the mounted checkpoint.
func (c *ContainerExporter) Export(ctx context.Context, checkpoint string, opts types.ExportOptions) error {
	abs, err := filepath.Abs(checkpoint)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", checkpoint, err)
	}
	dir, model := filepath.Split(abs)

	spec := container.RunSpec{
		Image:   c.image,
		Mounts:  []container.Mount{{Host: filepath.Clean(dir), Container: containerWorkDir}},
		WorkDir: containerWorkDir,
		Args:    append([]string{"yolo"}, Args(model, opts)...),
	}

	slog.Debug("running exporter container", "runtime", c.runtime.Name(), "image", c.image, "args", spec.Args)
	var stdout, stderr bytes.Buffer
	if err := c.runtime.Run(ctx, spec, &stdout, &stderr); err != nil {
		return fmt.Errorf("%w%s", err, stderrSuffix(stderr.Bytes()))
	}
	if stdout.Len() > 0 {
		slog.Debug("exporter output", "stdout", stdout.String())
	}
	return nil
}
