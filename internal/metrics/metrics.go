// Package metrics writes the outcome of an export run as a Prometheus
// textfile, for node_exporter's textfile collector or CI scraping.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdiddy/model-export/pkg/types"
)

const namespace = "model_export"

// Registry builds a registry holding the gauges for rec.
func Registry(rec types.ExportRecord) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "duration_seconds",
		Help:      "Wall time of the last export run.",
	})
	size := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "artifact_bytes",
		Help:      "Size of the exported artifact in bytes (0 for directories).",
	})
	success := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "success",
		Help:      "1 if the last export produced a confirmed artifact or was skipped, 0 on failure.",
	})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last export started.",
	})
	info := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "info",
		Help:      "Options of the last export run.",
	}, []string{"checkpoint", "format", "opset", "dynamic", "imgsz", "status"})

	reg.MustRegister(duration, size, success, lastRun, info)

	duration.Set(rec.Duration.Seconds())
	size.Set(float64(rec.ArtifactSize))
	if rec.Status != types.ExportFailed {
		success.Set(1)
	}
	lastRun.Set(float64(rec.StartedAt.Unix()))
	info.WithLabelValues(
		filepath.Base(rec.Checkpoint),
		string(rec.Options.Format),
		strconv.Itoa(rec.Options.Opset),
		strconv.FormatBool(rec.Options.Dynamic),
		strconv.Itoa(rec.Options.ImgSize),
		string(rec.Status),
	).Set(1)

	return reg
}

// WriteFile writes the metrics for rec to path atomically.
func WriteFile(path string, rec types.ExportRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, Registry(rec)); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
