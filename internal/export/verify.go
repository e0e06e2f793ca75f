package export

import (
	"fmt"

	"github.com/pdiddy/model-export/internal/onnx"
	"github.com/pdiddy/model-export/pkg/types"
)

// Verify checks an exported ONNX header against the options it was exported
// with: the default-domain opset (when one was requested) and the shape of
// the first graph input, which must carry symbolic axes when opts.Dynamic is
// set and NCHW dims of opts.ImgSize otherwise.
func Verify(m *onnx.Model, opts types.ExportOptions) error {
	if opts.Opset > 0 {
		v, ok := m.Opset("")
		if !ok {
			return fmt.Errorf("%w: no default-domain opset import", ErrVerification)
		}
		if v != int64(opts.Opset) {
			return fmt.Errorf("%w: opset %d, want %d", ErrVerification, v, opts.Opset)
		}
	}

	if len(m.Inputs) == 0 {
		return fmt.Errorf("%w: graph has no inputs", ErrVerification)
	}
	in := m.Inputs[0]

	if opts.Dynamic {
		if !in.Dynamic() {
			return fmt.Errorf("%w: input %s has fixed shape %s, want dynamic axes", ErrVerification, in.Name, in.Shape())
		}
		return nil
	}

	size := int64(opts.ImgSize)
	if len(in.Dims) != 4 || in.Dims[2].Value != size || in.Dims[3].Value != size {
		return fmt.Errorf("%w: input %s has shape %s, want [* * %d %d]", ErrVerification, in.Name, in.Shape(), size, size)
	}
	return nil
}
