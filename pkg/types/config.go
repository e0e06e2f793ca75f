package types

import "time"

// HTTPConfig holds shared HTTP settings used by commands that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "model-export/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ExportBackend identifies how the external export routine is invoked.
type ExportBackend string

const (
	// BackendYolo runs the Ultralytics `yolo` CLI installed on the host.
	BackendYolo ExportBackend = "yolo"
	// BackendContainer runs the `yolo` CLI inside an Ultralytics image.
	BackendContainer ExportBackend = "container"
)

// Defaults for the reference export: yolov8n.pt to ONNX opset 12, dynamic axes, 640px.
const (
	DefaultCheckpoint = "yolov8n.pt"
	DefaultFormat     = FormatONNX
	DefaultOpset      = 12
	DefaultDynamic    = true
	DefaultImgSize    = 640
	DefaultYoloBin    = "yolo"
	DefaultImage      = "ultralytics/ultralytics:latest-cpu"
	DefaultHistoryDir = ".model-export"
	DefaultBaseURL    = "https://github.com/ultralytics/assets/releases/download/v8.3.0"
)

// ExportConfig holds settings for the export command.
type ExportConfig struct {
	ExportOptions `yaml:",inline" mapstructure:",squash"`

	// Checkpoint is the path of the model checkpoint, relative to the working directory.
	Checkpoint string `json:"checkpoint" yaml:"checkpoint" mapstructure:"checkpoint" validate:"required"`

	// Backend selects how the exporter runs: yolo or container.
	Backend ExportBackend `json:"backend" yaml:"backend" mapstructure:"backend" validate:"required,oneof=yolo container"`

	// YoloBin is the Ultralytics CLI binary for the yolo backend.
	YoloBin string `json:"yolo_bin" yaml:"yolo_bin" mapstructure:"yolo_bin"`

	// Image is the container image for the container backend.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// Force re-exports even when the artifact already exists.
	Force bool `json:"force" yaml:"force" mapstructure:"force"`

	// Verify reads back ONNX artifacts and checks opset and input shapes.
	Verify bool `json:"verify" yaml:"verify" mapstructure:"verify"`

	// HistoryDir holds the export ledger database. Empty disables history.
	HistoryDir string `json:"history_dir" yaml:"history_dir" mapstructure:"history_dir"`

	// MetricsFile, when set, receives a Prometheus textfile for the run.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty" mapstructure:"metrics_file"`
}

// DefaultExportConfig returns the reference export configuration.
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		ExportOptions: DefaultExportOptions(),
		Checkpoint:    DefaultCheckpoint,
		Backend:       BackendYolo,
		YoloBin:       DefaultYoloBin,
		Image:         DefaultImage,
		Verify:        true,
		HistoryDir:    DefaultHistoryDir,
	}
}

// FetchConfig holds settings for the fetch command.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the release location checkpoints are downloaded from.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// Dir is the directory checkpoints are written into.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxRetries bounds retries on HTTP 429 (0 uses the default).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0,lte=20"`

	// Token is sent as a bearer token when set. It is loaded from the
	// secrets directory and never written to config output.
	Token string `json:"-" yaml:"-" mapstructure:"-"`
}

// LogConfig controls the diagnostic logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`

	// File, when set, receives a rotated copy of the log.
	File string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`

	// NoColor disables ANSI colors on the console handler.
	NoColor bool `json:"no_color" yaml:"no_color" mapstructure:"no_color"`
}

// Config groups all command configurations as read from model-export.yaml.
type Config struct {
	Export ExportConfig `json:"export" yaml:"export" mapstructure:"export"`
	Fetch  FetchConfig  `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Log    LogConfig    `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultFetchConfig returns fetch settings pointing at the Ultralytics
// asset releases.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   5 * time.Minute,
			UserAgent: "model-export",
		},
		BaseURL: DefaultBaseURL,
		Dir:     ".",
	}
}

// DefaultConfig returns the configuration used when no file, flag, or
// environment variable overrides a setting.
func DefaultConfig() Config {
	return Config{
		Export: DefaultExportConfig(),
		Fetch:  DefaultFetchConfig(),
		Log:    LogConfig{Level: "info"},
	}
}
