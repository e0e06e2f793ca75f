package export

import (
	"context"
	"log/slog"
	"os"
	goruntime "runtime"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/pdiddy/model-export/pkg/types"
)

// hostInfo describes the local machine for export records. gopsutil failures
// fall back to what the Go runtime knows.
func hostInfo(ctx context.Context) types.HostInfo {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		slog.Debug("host info unavailable", "error", err)
		name, _ := os.Hostname()
		return types.HostInfo{Hostname: name, Platform: goruntime.GOOS, Arch: goruntime.GOARCH}
	}

	platform := info.Platform
	if info.PlatformVersion != "" {
		platform += " " + info.PlatformVersion
	}
	if platform == "" {
		platform = info.OS
	}
	return types.HostInfo{
		Hostname: info.Hostname,
		Platform: platform,
		Arch:     info.KernelArch,
	}
}
