package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/model-export/pkg/types"
)

// maxStderr bounds how much exporter stderr is folded into an error.
const maxStderr = 2048

// Args builds the Ultralytics CLI arguments for exporting model:
//
//	export model=yolov8n.pt format=onnx opset=12 dynamic=True imgsz=640
//
// opset is omitted when zero so the exporter picks its default.
func Args(model string, opts types.ExportOptions) []string {
	args := []string{
		"export",
		"model=" + model,
		"format=" + string(opts.Format),
	}
	if opts.Opset > 0 {
		args = append(args, "opset="+strconv.Itoa(opts.Opset))
	}
	return append(args,
		"dynamic="+pyBool(opts.Dynamic),
		"imgsz="+strconv.Itoa(opts.ImgSize),
	)
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// CommandRunner runs a process in dir and returns its captured output.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args []string) (stdout, stderr []byte, err error)
}

// ExecCommandRunner uses os/exec.
type ExecCommandRunner struct{}

// Run runs name with args in dir.
func (ExecCommandRunner) Run(ctx context.Context, dir, name string, args []string) (stdout, stderr []byte, err error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// YoloExporter invokes the Ultralytics `yolo` CLI installed on the host.
type YoloExporter struct {
	bin    string
	runner CommandRunner
}

// NewYoloExporter resolves bin on PATH and returns an exporter for it.
func NewYoloExporter(bin string) (*YoloExporter, error) {
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("ultralytics CLI %q not found: %w", bin, err)
	}
	return &YoloExporter{bin: path, runner: ExecCommandRunner{}}, nil
}

// NewYoloExporterWithRunner returns an exporter that runs bin through runner.
func NewYoloExporterWithRunner(bin string, runner CommandRunner) *YoloExporter {
	return &YoloExporter{bin: bin, runner: runner}
}

// Export runs `yolo export ...` from the checkpoint's directory so the
// artifact lands next to it.
func (y *YoloExporter) Export(ctx context.Context, checkpoint string, opts types.ExportOptions) error {
	dir, model := filepath.Split(checkpoint)
	if dir == "" {
		dir = "."
	}
	args := Args(model, opts)

	slog.Debug("running exporter", "bin", y.bin, "dir", dir, "args", args)
	stdout, stderr, err := y.runner.Run(ctx, dir, y.bin, args)
	if len(stdout) > 0 {
		slog.Debug("exporter output", "stdout", string(stdout))
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w%s", y.bin, strings.Join(args, " "), err, stderrSuffix(stderr))
	}
	return nil
}

// stderrSuffix returns ": <tail of stderr>" or "" when stderr is blank.
func stderrSuffix(stderr []byte) string {
	s := strings.TrimSpace(string(stderr))
	if s == "" {
		return ""
	}
	if len(s) > maxStderr {
		s = "..." + s[len(s)-maxStderr:]
	}
	return ": " + s
}
