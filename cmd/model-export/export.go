// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/model-export/internal/export"
	"github.com/pdiddy/model-export/internal/history"
	"github.com/pdiddy/model-export/internal/metrics"
	"github.com/pdiddy/model-export/internal/validation"
	"github.com/pdiddy/model-export/pkg/types"
)

// newExporter builds the backend; tests replace it with a fake.
var newExporter = export.NewExporter

var exportCmd = &cobra.Command{
	Use:   "export [checkpoint]",
	Short: "Export a checkpoint to an interchange format",
	Long: `Export loads a checkpoint from the working directory (default yolov8n.pt)
and asks the Ultralytics exporter to convert it with a fixed set of options:
format, opset version, dynamic input axes, and input resolution.

The artifact is written next to the checkpoint (yolov8n.pt -> yolov8n.onnx).
"export complete" is printed only once the artifact exists and, for ONNX with
--verify, its opset and input shape match the request. A missing checkpoint
fails without invoking the exporter. Every run is recorded in the history
ledger under --history-dir.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := exportConfig()
	if len(args) == 1 {
		cfg.Checkpoint = args[0]
	}
	if err := validation.New().Struct(cfg); err != nil {
		return err
	}

	ctx := cmd.Context()

	// The backend is only built once the checkpoint is known to exist, so a
	// missing checkpoint never depends on the exporter being installed.
	e := export.ExporterFunc(func(ctx context.Context, checkpoint string, opts types.ExportOptions) error {
		inner, err := newExporter(ctx, cfg)
		if err != nil {
			return err
		}
		return inner.Export(ctx, checkpoint, opts)
	})

	rec, runErr := export.Run(ctx, e, cfg, cmd.OutOrStdout())

	if cfg.HistoryDir != "" {
		if err := recordHistory(ctx, cfg.HistoryDir, rec); err != nil {
			slog.Warn("could not record export history", "error", err)
		}
	}
	if cfg.MetricsFile != "" {
		if err := metrics.WriteFile(cfg.MetricsFile, rec); err != nil {
			slog.Warn("could not write metrics", "error", err)
		}
	}
	return runErr
}

func recordHistory(ctx context.Context, dir string, rec types.ExportRecord) error {
	// History survives cancellation of the export itself.
	ctx = context.WithoutCancel(ctx)

	store, err := history.Open(dir)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Record(ctx, rec)
}

// exportConfig assembles the export configuration from flags, environment,
// and the config file, in viper's precedence order.
func exportConfig() types.ExportConfig {
	return types.ExportConfig{
		ExportOptions: types.ExportOptions{
			Format:  types.ExportFormat(viper.GetString("export.format")),
			Opset:   viper.GetInt("export.opset"),
			Dynamic: viper.GetBool("export.dynamic"),
			ImgSize: viper.GetInt("export.imgsz"),
		},
		Checkpoint:  viper.GetString("export.checkpoint"),
		Backend:     types.ExportBackend(viper.GetString("export.backend")),
		YoloBin:     viper.GetString("export.yolo_bin"),
		Image:       viper.GetString("export.image"),
		Force:       viper.GetBool("export.force"),
		Verify:      viper.GetBool("export.verify"),
		HistoryDir:  viper.GetString("export.history_dir"),
		MetricsFile: viper.GetString("export.metrics_file"),
	}
}

func init() {
	d := types.DefaultExportConfig()
	f := exportCmd.Flags()

	f.String("checkpoint", d.Checkpoint, "checkpoint to export, relative to the working directory")
	f.String("format", string(d.Format), "target format: onnx, torchscript, openvino, engine, coreml, saved_model, paddle, ncnn")
	f.Int("opset", d.Opset, "ONNX opset version (0 = exporter default)")
	f.Bool("dynamic", d.Dynamic, "export with dynamic input axes")
	f.Int("imgsz", d.ImgSize, "input image size in pixels (multiple of 32)")
	f.String("backend", string(d.Backend), "exporter backend: yolo or container")
	f.String("yolo-bin", d.YoloBin, "Ultralytics CLI for the yolo backend")
	f.String("image", d.Image, "Ultralytics image for the container backend")
	f.Bool("force", d.Force, "re-export even if the artifact already exists")
	f.Bool("verify", d.Verify, "check opset and input shape of ONNX artifacts")
	f.String("history-dir", d.HistoryDir, "directory for the export history ledger (empty disables)")
	f.String("metrics-file", d.MetricsFile, "write Prometheus textfile metrics for the run to this path")

	for key, flag := range map[string]string{
		"export.checkpoint":   "checkpoint",
		"export.format":       "format",
		"export.opset":        "opset",
		"export.dynamic":      "dynamic",
		"export.imgsz":        "imgsz",
		"export.backend":      "backend",
		"export.yolo_bin":     "yolo-bin",
		"export.image":        "image",
		"export.force":        "force",
		"export.verify":       "verify",
		"export.history_dir":  "history-dir",
		"export.metrics_file": "metrics-file",
	} {
		mustBind(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(exportCmd)
}
