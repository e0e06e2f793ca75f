// Package types defines shared data structures for model-export: the options
// handed to the external exporter, command configuration, and the records
// kept for each export run.
package types

import (
	"fmt"
	"time"
)

// ExportFormat names a target interchange format understood by the exporter.
type ExportFormat string

const (
	FormatONNX        ExportFormat = "onnx"
	FormatTorchScript ExportFormat = "torchscript"
	FormatOpenVINO    ExportFormat = "openvino"
	FormatEngine      ExportFormat = "engine"
	FormatCoreML      ExportFormat = "coreml"
	FormatSavedModel  ExportFormat = "saved_model"
	FormatPaddle      ExportFormat = "paddle"
	FormatNCNN        ExportFormat = "ncnn"
)

// ExportOptions is the fixed configuration passed unchanged to the exporter.
type ExportOptions struct {
	// Format is the target interchange format.
	Format ExportFormat `json:"format" yaml:"format" mapstructure:"format" validate:"required,oneof=onnx torchscript openvino engine coreml saved_model paddle ncnn"`

	// Opset is the ONNX operator-set version. Zero leaves the choice to the exporter.
	Opset int `json:"opset" yaml:"opset" mapstructure:"opset" validate:"gte=0,lte=23"`

	// Dynamic enables variable input dimensions.
	Dynamic bool `json:"dynamic" yaml:"dynamic" mapstructure:"dynamic"`

	// ImgSize is the square input resolution in pixels, a multiple of the
	// detector stride (32).
	ImgSize int `json:"imgsz" yaml:"imgsz" mapstructure:"imgsz" validate:"gt=0,stride32"`
}

// DefaultExportOptions returns format=onnx, opset=12, dynamic=true, imgsz=640.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format:  DefaultFormat,
		Opset:   DefaultOpset,
		Dynamic: DefaultDynamic,
		ImgSize: DefaultImgSize,
	}
}

func (o ExportOptions) String() string {
	return fmt.Sprintf("format=%s opset=%d dynamic=%t imgsz=%d", o.Format, o.Opset, o.Dynamic, o.ImgSize)
}

// ExportStatus is the outcome of one export run.
type ExportStatus string

const (
	ExportDone    ExportStatus = "exported"
	ExportSkipped ExportStatus = "skipped"
	ExportFailed  ExportStatus = "failed"
)

// HostInfo describes the machine an export ran on.
type HostInfo struct {
	Hostname string `json:"hostname" yaml:"hostname"`
	Platform string `json:"platform" yaml:"platform"`
	Arch     string `json:"arch" yaml:"arch"`
}

// ExportRecord captures a single export run for the history ledger.
type ExportRecord struct {
	// ID uniquely identifies the run.
	ID string `json:"id" yaml:"id"`

	// Checkpoint is the checkpoint path as given on the command line.
	Checkpoint string `json:"checkpoint" yaml:"checkpoint"`

	// CheckpointSHA256 is the hex digest of the checkpoint contents.
	CheckpointSHA256 string `json:"checkpoint_sha256,omitempty" yaml:"checkpoint_sha256,omitempty"`

	// Artifact is the path of the exported file or directory.
	Artifact string `json:"artifact,omitempty" yaml:"artifact,omitempty"`

	// ArtifactSize is the artifact size in bytes (0 for directories).
	ArtifactSize int64 `json:"artifact_size" yaml:"artifact_size"`

	// Options are the options handed to the exporter.
	Options ExportOptions `json:"options" yaml:"options"`

	// Backend is the exporter backend that ran.
	Backend ExportBackend `json:"backend" yaml:"backend"`

	// Status is the run outcome.
	Status ExportStatus `json:"status" yaml:"status"`

	// Error records the failure message. Empty on success.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Host is where the export ran.
	Host HostInfo `json:"host" yaml:"host"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at" yaml:"started_at"`

	// Duration is the wall time of the run.
	Duration time.Duration `json:"duration" yaml:"duration"`
}
