package export

import (
	"context"
	"fmt"

	"github.com/pdiddy/model-export/internal/container"
	"github.com/pdiddy/model-export/pkg/types"
)

// NewExporter builds the exporter selected by cfg.Backend.
func NewExporter(ctx context.Context, cfg types.ExportConfig) (Exporter, error) {
	switch cfg.Backend {
	case types.BackendYolo, "":
		bin := cfg.YoloBin
		if bin == "" {
			bin = types.DefaultYoloBin
		}
		return NewYoloExporter(bin)
	case types.BackendContainer:
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		image := cfg.Image
		if image == "" {
			image = types.DefaultImage
		}
		return NewContainerExporter(ctx, rt, image)
	default:
		return nil, fmt.Errorf("unsupported backend %q: use yolo or container", cfg.Backend)
	}
}
